// File: internal/auth/oauth.go
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"voltct/internal/errs"
)

func (r *Resolver) resolveOAuth(ctx context.Context, s Settings, forceLogin bool) (*Identity, error) {
	data, err := readCredentialFile(s.ClientSecretsFile, ClientSecretsEnv)
	if err != nil {
		return nil, err
	}

	conf, err := google.ConfigFromJSON(data, s.Scopes...)
	if err != nil {
		return nil, errs.Authentication("load client secrets", fmt.Errorf("%s: %w", s.ClientSecretsFile, err))
	}

	cache := NewTokenCache(s.TokenCachePath)

	var tok *oauth2.Token
	if !forceLogin {
		tok, err = cache.Load()
		switch {
		case err == nil:
			r.logger.Debug("Using cached OAuth token", "path", cache.Path())
		case errors.Is(err, ErrNoCachedToken):
			tok = nil
		default:
			r.logger.Warn("Ignoring unreadable OAuth token cache", "path", cache.Path(), "error", err)
			tok = nil
		}
	}

	if tok == nil {
		tok, err = r.authorize(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := cache.Save(tok); err != nil {
			r.logger.Warn("Failed to cache OAuth token, the next run will ask for consent again", "path", cache.Path(), "error", err)
		}
	}

	ts := newCachingTokenSource(conf.TokenSource(ctx, tok), cache, tok, r.logger)

	return &Identity{
		Mode:            ModeOAuthClient,
		CredentialsFile: s.ClientSecretsFile,
		TokenSource:     oauth2.ReuseTokenSource(tok, ts),
	}, nil
}

// Runs the authorization-code flow with PKCE and returns the exchanged token
func (r *Resolver) authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	if r.codes == nil {
		return nil, errs.Configurationf("authorize", "interactive OAuth consent is not available in this context")
	}

	redirectURL, err := r.codes.RedirectURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("error preparing OAuth redirect: %w", err)
	}
	conf.RedirectURL = redirectURL

	state, err := randomState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	r.logger.Debug("Starting OAuth consent flow", "redirect_url", redirectURL)

	code, err := r.codes.AuthorizationCode(ctx, authURL, state)
	if err != nil {
		if errs.Classified(err) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.Authentication("obtain authorization code", err)
	}

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, errs.Authentication("exchange authorization code", err)
	}
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("error generating OAuth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
