// File: internal/auth/serviceaccount.go
package auth

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"

	"golang.org/x/oauth2/google"

	"voltct/internal/errs"
)

type serviceAccountFile struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
}

func (r *Resolver) resolveServiceAccount(ctx context.Context, s Settings) (*Identity, error) {
	data, err := readCredentialFile(s.ServiceAccountFile, ServiceAccountEnv)
	if err != nil {
		return nil, err
	}

	sa, err := validateServiceAccount(data)
	if err != nil {
		return nil, errs.Authentication("load service account", fmt.Errorf("%s: %w", s.ServiceAccountFile, err))
	}

	creds, err := google.CredentialsFromJSONWithType(ctx, data, google.ServiceAccount, s.Scopes...)
	if err != nil {
		return nil, errs.Authentication("load service account", fmt.Errorf("%s: %w", s.ServiceAccountFile, err))
	}

	r.logger.Debug("Using service account credentials", "email", sa.ClientEmail, "project", creds.ProjectID)

	return &Identity{
		Mode:            ModeServiceAccount,
		ProjectID:       creds.ProjectID,
		Email:           sa.ClientEmail,
		CredentialsFile: s.ServiceAccountFile,
		TokenSource:     creds.TokenSource,
	}, nil
}

// Checks the fields the token exchange depends on, including that the private key parses,
// so a broken key file fails here rather than on the first API call
func validateServiceAccount(data []byte) (*serviceAccountFile, error) {
	var sa serviceAccountFile
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("malformed credentials file: %w", err)
	}

	if sa.Type != string(google.ServiceAccount) {
		return nil, fmt.Errorf("credentials type is %q, want %q", sa.Type, google.ServiceAccount)
	}
	if sa.ClientEmail == "" {
		return nil, errors.New("credentials file has no client_email")
	}
	if sa.PrivateKey == "" {
		return nil, errors.New("credentials file has no private_key")
	}

	block, _ := pem.Decode([]byte(sa.PrivateKey))
	if block == nil {
		return nil, errors.New("private_key is not PEM encoded")
	}
	if _, err := x509.ParsePKCS8PrivateKey(block.Bytes); err != nil {
		if _, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes); pkcs1Err != nil {
			return nil, fmt.Errorf("private_key cannot be parsed: %w", err)
		}
	}
	return &sa, nil
}
