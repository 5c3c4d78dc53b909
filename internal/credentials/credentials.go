// Package credentials supplies Jira credentials to the request layer. The
// provider is injected at client construction, so there is no package-level
// credential state.
package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Credentials is a username/password pair for basic auth.
type Credentials struct {
	Username string
	Password string
}

// Provider yields credentials on demand. Implementations may block (for
// example to prompt the user), so they take a context.
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Static returns a provider that always yields the given pair.
func Static(username, password string) Provider {
	return staticProvider{Credentials{Username: username, Password: password}}
}

type staticProvider struct {
	creds Credentials
}

func (p staticProvider) Credentials(context.Context) (Credentials, error) {
	return p.creds, nil
}

// Prompt returns a provider that asks for a username and password on the
// terminal. The password is read without echo.
func Prompt() Provider {
	return &promptProvider{}
}

type promptProvider struct{}

func (p *promptProvider) Credentials(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	fmt.Fprint(os.Stderr, "username: ")
	var username string
	if _, err := fmt.Fscanln(os.Stdin, &username); err != nil {
		return Credentials{}, fmt.Errorf("failed to read username: %w", err)
	}

	fmt.Fprint(os.Stderr, "password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}

	return Credentials{
		Username: strings.TrimSpace(username),
		Password: string(password),
	}, nil
}

// Cached wraps a provider so the inner provider is consulted at most once.
// The caller owns the lifecycle: a new Cached value means a fresh prompt.
func Cached(inner Provider) Provider {
	return &cachedProvider{inner: inner}
}

type cachedProvider struct {
	inner Provider

	mu    sync.Mutex
	creds Credentials
	ok    bool
}

func (p *cachedProvider) Credentials(ctx context.Context) (Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ok {
		return p.creds, nil
	}
	creds, err := p.inner.Credentials(ctx)
	if err != nil {
		return Credentials{}, err
	}
	p.creds = creds
	p.ok = true
	return creds, nil
}
