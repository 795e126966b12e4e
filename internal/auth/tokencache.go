// File: internal/auth/tokencache.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"

	"voltct/internal/errs"
)

var ErrNoCachedToken = errors.New("no cached OAuth token")

// TokenCache stores the OAuth token as JSON, readable only by the current user
type TokenCache struct {
	path string
}

func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

func (c *TokenCache) Path() string {
	return c.path
}

func (c *TokenCache) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCachedToken
	}
	if err != nil {
		return nil, fmt.Errorf("error reading token cache: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("error parsing token cache %s: %w", c.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoCachedToken
	}
	return &tok, nil
}

// Writes the token atomically so an interrupted write never leaves a truncated cache
func (c *TokenCache) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("error creating token cache directory: %w", err)
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("error encoding token: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".token-*")
	if err != nil {
		return fmt.Errorf("error writing token cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing token cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing token cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing token cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("error writing token cache: %w", err)
	}
	return nil
}

func (c *TokenCache) Remove() (bool, error) {
	err := os.Remove(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error removing token cache: %w", err)
	}
	return true, nil
}

// cachingTokenSource writes every newly minted token back to the cache
type cachingTokenSource struct {
	base   oauth2.TokenSource
	cache  *TokenCache
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func newCachingTokenSource(base oauth2.TokenSource, cache *TokenCache, current *oauth2.Token, logger *slog.Logger) *cachingTokenSource {
	s := &cachingTokenSource{
		base:   base,
		cache:  cache,
		logger: logger,
	}
	if current != nil {
		s.last = current.AccessToken
	}
	return s
}

func (s *cachingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, errs.Authentication("refresh OAuth token", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken != s.last {
		if err := s.cache.Save(tok); err != nil {
			// The token is still usable for this invocation
			s.logger.Warn("Failed to persist refreshed OAuth token", "path", s.cache.Path(), "error", err)
		} else {
			s.logger.Debug("Persisted refreshed OAuth token", "path", s.cache.Path())
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
