// File: pkg/blob/s3/s3.go
package s3

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"voltct/internal/provider/registry"
	"voltct/pkg/blob"
	"voltct/pkg/common"
)

func init() {
	registry.RegisterProvider(common.SchemeS3, registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
		ConfigHint:  "Use 'voltct config set aws.region <region>'",
	})
}

func isConfigured(env registry.Env) bool {
	return env.Config != nil && env.Config.AWS.Region != ""
}

func initialize(ctx context.Context, env registry.Env) (blob.Store, error) {
	if !isConfigured(env) {
		return nil, fmt.Errorf("AWS configuration missing or incomplete")
	}
	return NewS3Store(ctx, env.Config.AWS.Region, env.Logger)
}

// objectAPI is the subset of the S3 client the store uses
type objectAPI interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

// S3Store reads run outputs mirrored to S3. Credentials come from the AWS default chain
type S3Store struct {
	client objectAPI
	region string
	logger *slog.Logger
}

var _ blob.Store = (*S3Store)(nil)

func NewS3Store(ctx context.Context, region string, logger *slog.Logger) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &S3Store{
		client: awss3.NewFromConfig(cfg),
		region: region,
		logger: logger,
	}, nil
}

func (s *S3Store) Download(ctx context.Context, loc blob.Location, w io.Writer) (int64, error) {
	s.logger.Debug("Starting S3 Download operation", "bucket", loc.Bucket, "object", loc.Key)

	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return 0, fmt.Errorf("error opening object %s: %w", loc, err)
	}
	defer out.Body.Close()

	n, err := io.Copy(w, out.Body)
	if err != nil {
		return n, fmt.Errorf("error reading object %s: %w", loc, err)
	}
	return n, nil
}

func (s *S3Store) DescribeBucket(ctx context.Context, bucketName string) (blob.Bucket, error) {
	s.logger.Debug("Starting S3 DescribeBucket operation", "bucket", bucketName)

	out, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return blob.Bucket{}, fmt.Errorf("error getting bucket attributes: %w", err)
	}

	location := s.region
	if region := aws.ToString(out.BucketRegion); region != "" {
		location = region
	}

	// S3 reports no usage or creation data through HeadBucket
	return blob.Bucket{
		Name:       bucketName,
		Provider:   common.AWS,
		Location:   location,
		UsageBytes: -1,
	}, nil
}

func (s *S3Store) Close() error {
	return nil
}
