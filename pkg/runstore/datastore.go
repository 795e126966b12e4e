// File: pkg/runstore/datastore.go
package runstore

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"voltct/pkg/ctrun"
)

const (
	groupNameProperty   = "GroupName"
	tsCompletedProperty = "TsCompleted"
	rawOutputProperty   = "RawOutput"
)

// Query selects the tasks of one page-set group
type Query struct {
	Namespace string
	Kind      string
	GroupName string
	Limit     int
}

// Builds the Datastore query. TsCompleted is filtered by the caller because
// there is no composite index on GroupName and TsCompleted
func (q Query) datastoreQuery() *datastore.Query {
	dq := datastore.NewQuery(q.Kind).
		Namespace(q.Namespace).
		FilterField(groupNameProperty, "=", q.GroupName)
	if q.Limit > 0 {
		dq = dq.Limit(q.Limit)
	}
	return dq
}

// Store reads CT analysis tasks from Cloud Datastore
type Store struct {
	client *datastore.Client
	logger *slog.Logger
}

func NewStore(ctx context.Context, projectID string, logger *slog.Logger, opts ...option.ClientOption) (*Store, error) {
	client, err := datastore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datastore client: %w", err)
	}
	return &Store{client: client, logger: logger}, nil
}

// Returns up to q.Limit tasks of q.GroupName in Datastore order
func (s *Store) ListRuns(ctx context.Context, q Query) ([]ctrun.Run, error) {
	s.logger.Debug("Starting Datastore ListRuns operation", "namespace", q.Namespace, "kind", q.Kind, "group", q.GroupName, "limit", q.Limit)

	var runs []ctrun.Run
	it := s.client.Run(ctx, q.datastoreQuery())
	for {
		var entity taskEntity
		key, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error querying %s: %w", q.Kind, err)
		}
		runs = append(runs, entity.toRun(key))
	}

	s.logger.Debug("Fetched runs from Datastore", "count", len(runs))
	return runs, nil
}

// Issues a keys-only query to confirm the identity can read the namespace
func (s *Store) Ping(ctx context.Context, q Query) error {
	dq := datastore.NewQuery(q.Kind).Namespace(q.Namespace).KeysOnly().Limit(1)
	if _, err := s.client.GetAll(ctx, dq, nil); err != nil {
		return fmt.Errorf("error querying %s: %w", q.Kind, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// taskEntity loads only the properties the tool reads; CT tasks carry many more
type taskEntity struct {
	GroupName   string
	TsCompleted int64
	RawOutput   string
}

var _ datastore.PropertyLoadSaver = (*taskEntity)(nil)

func (e *taskEntity) Load(props []datastore.Property) error {
	for _, p := range props {
		switch p.Name {
		case groupNameProperty:
			e.GroupName, _ = p.Value.(string)
		case rawOutputProperty:
			e.RawOutput, _ = p.Value.(string)
		case tsCompletedProperty:
			ts, err := toInt64(p.Value)
			if err != nil {
				return fmt.Errorf("property %s: %w", p.Name, err)
			}
			e.TsCompleted = ts
		}
	}
	return nil
}

func (e *taskEntity) Save() ([]datastore.Property, error) {
	return []datastore.Property{
		{Name: groupNameProperty, Value: e.GroupName},
		{Name: tsCompletedProperty, Value: e.TsCompleted},
		{Name: rawOutputProperty, Value: e.RawOutput, NoIndex: true},
	}, nil
}

func (e *taskEntity) toRun(key *datastore.Key) ctrun.Run {
	return ctrun.Run{
		ID:          keyID(key),
		GroupName:   e.GroupName,
		TsCompleted: e.TsCompleted,
		RawOutput:   e.RawOutput,
	}
}

func keyID(key *datastore.Key) string {
	if key == nil {
		return ""
	}
	if key.Name != "" {
		return key.Name
	}
	return strconv.FormatInt(key.ID, 10)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
