// File: internal/auth/codesource.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"voltct/internal/errs"
)

// CodeSource obtains an OAuth authorization code from the user
type CodeSource interface {
	// Prepares to receive a code and returns the redirect URI to send with the consent request
	RedirectURL(ctx context.Context) (string, error)
	// Presents authURL to the user and blocks until a code for the given state is available
	AuthorizationCode(ctx context.Context, authURL, state string) (string, error)
}

// LoopbackCodeSource receives the redirect on a local HTTP listener
type LoopbackCodeSource struct {
	out io.Writer

	mu       sync.Mutex
	listener net.Listener
}

var _ CodeSource = (*LoopbackCodeSource)(nil)

func NewLoopbackCodeSource(out io.Writer) *LoopbackCodeSource {
	return &LoopbackCodeSource{out: out}
}

func (l *LoopbackCodeSource) RedirectURL(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.listener == nil {
		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
		if err != nil {
			return "", fmt.Errorf("error starting loopback listener: %w", err)
		}
		l.listener = ln
	}
	return fmt.Sprintf("http://%s/", l.listener.Addr().String()), nil
}

type callbackResult struct {
	code string
	err  error
}

func (l *LoopbackCodeSource) AuthorizationCode(ctx context.Context, authURL, state string) (string, error) {
	l.mu.Lock()
	ln := l.listener
	l.listener = nil
	l.mu.Unlock()

	if ln == nil {
		return "", errors.New("loopback listener not started")
	}

	fmt.Fprintf(l.out, "Open the following URL in your browser to authorize access:\n\n  %s\n\nWaiting for the authorization response...\n", authURL)

	results := make(chan callbackResult, 1)
	var once sync.Once
	deliver := func(r callbackResult) {
		once.Do(func() { results <- r })
	}

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			code, err := codeFromQuery(req.URL.Query(), state)
			if err != nil {
				http.Error(w, "Authorization failed: "+err.Error(), http.StatusBadRequest)
				deliver(callbackResult{err: err})
				return
			}
			fmt.Fprintln(w, "Authorization complete. You may close this window.")
			deliver(callbackResult{code: code})
		}),
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(callbackResult{err: fmt.Errorf("loopback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// PasteCodeSource asks the user to paste the code, or the whole redirected URL, after consenting in a browser.
// Used where no browser can reach a local listener (remote shells)
type PasteCodeSource struct {
	read func(ctx context.Context, authURL string) (string, error)
}

var _ CodeSource = (*PasteCodeSource)(nil)

// Creates a PasteCodeSource. read shows authURL to the user and returns what they typed
func NewPasteCodeSource(read func(ctx context.Context, authURL string) (string, error)) *PasteCodeSource {
	return &PasteCodeSource{read: read}
}

const pasteRedirectURL = "http://localhost/"

func (p *PasteCodeSource) RedirectURL(ctx context.Context) (string, error) {
	return pasteRedirectURL, nil
}

func (p *PasteCodeSource) AuthorizationCode(ctx context.Context, authURL, state string) (string, error) {
	input, err := p.read(ctx, authURL)
	if err != nil {
		return "", err
	}
	return parsePastedCode(input, state)
}

func parsePastedCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errs.Authentication("obtain authorization code", errors.New("no authorization code entered"))
	}

	if strings.Contains(input, "://") || strings.HasPrefix(input, "?") {
		u, err := url.Parse(input)
		if err != nil {
			return "", errs.Authentication("obtain authorization code", fmt.Errorf("cannot parse pasted URL: %w", err))
		}
		return codeFromQuery(u.Query(), state)
	}
	return input, nil
}

func codeFromQuery(q url.Values, state string) (string, error) {
	if e := q.Get("error"); e != "" {
		return "", errs.Authentication("obtain authorization code", fmt.Errorf("consent rejected: %s", e))
	}
	if got := q.Get("state"); got != state {
		return "", errs.Authentication("obtain authorization code", errors.New("state mismatch in authorization response"))
	}
	code := q.Get("code")
	if code == "" {
		return "", errs.Authentication("obtain authorization code", errors.New("authorization response has no code"))
	}
	return code, nil
}
