package auth

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltct/internal/errs"
)

func runLoopback(t *testing.T, state, query string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out strings.Builder
	src := NewLoopbackCodeSource(&out)
	redirect, err := src.RedirectURL(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(redirect, "http://127.0.0.1:"))

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := src.AuthorizationCode(ctx, "https://accounts.example/consent", state)
		done <- result{code, err}
	}()

	resp, err := http.Get(redirect + "?" + query)
	require.NoError(t, err)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	res := <-done
	assert.Contains(t, out.String(), "https://accounts.example/consent")
	return res.code, res.err
}

func TestLoopbackCodeSource(t *testing.T) {
	code, err := runLoopback(t, "state-1", "code=abc&state=state-1")
	require.NoError(t, err)
	assert.Equal(t, "abc", code)
}

func TestLoopbackCodeSourceRejectsStateMismatch(t *testing.T) {
	_, err := runLoopback(t, "state-1", "code=abc&state=forged")

	var authErr *errs.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestLoopbackCodeSourceConsentDenied(t *testing.T) {
	_, err := runLoopback(t, "state-1", "error=access_denied&state=state-1")

	var authErr *errs.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestLoopbackCodeSourceHonoursContext(t *testing.T) {
	src := NewLoopbackCodeSource(io.Discard)
	_, err := src.RedirectURL(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.AuthorizationCode(ctx, "https://accounts.example/consent", "s")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParsePastedCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare code", "  4/0AbCdEf \n", "4/0AbCdEf", false},
		{"redirected url", "http://localhost/?state=s1&code=4/xyz&scope=a", "4/xyz", false},
		{"url with wrong state", "http://localhost/?state=other&code=4/xyz", "", true},
		{"url with error", "http://localhost/?state=s1&error=access_denied", "", true},
		{"empty", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePastedCode(tt.input, "s1")
			if tt.wantErr {
				var authErr *errs.AuthenticationError
				require.ErrorAs(t, err, &authErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPasteCodeSource(t *testing.T) {
	var shown string
	src := NewPasteCodeSource(func(ctx context.Context, authURL string) (string, error) {
		shown = authURL
		return "http://localhost/?code=pasted&state=s1", nil
	})

	redirect, err := src.RedirectURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/", redirect)

	code, err := src.AuthorizationCode(context.Background(), "https://accounts.example/consent", "s1")
	require.NoError(t, err)
	assert.Equal(t, "pasted", code)
	assert.Equal(t, "https://accounts.example/consent", shown)
}
