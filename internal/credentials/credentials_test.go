package credentials

import (
	"context"
	"errors"
	"testing"
)

type countingProvider struct {
	calls int
	creds Credentials
	err   error
}

func (p *countingProvider) Credentials(context.Context) (Credentials, error) {
	p.calls++
	return p.creds, p.err
}

func TestStatic(t *testing.T) {
	provider := Static("alice", "s3cret")

	creds, err := provider.Credentials(context.Background())
	if err != nil {
		t.Fatalf("Credentials returned error: %v", err)
	}
	if creds.Username != "alice" || creds.Password != "s3cret" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestCached_ConsultsInnerOnce(t *testing.T) {
	inner := &countingProvider{creds: Credentials{Username: "alice", Password: "s3cret"}}
	provider := Cached(inner)

	for i := 0; i < 3; i++ {
		creds, err := provider.Credentials(context.Background())
		if err != nil {
			t.Fatalf("Credentials returned error: %v", err)
		}
		if creds.Username != "alice" {
			t.Errorf("unexpected credentials: %+v", creds)
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner provider consulted %d times, want 1", inner.calls)
	}
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	inner := &countingProvider{err: errors.New("prompt aborted")}
	provider := Cached(inner)

	if _, err := provider.Credentials(context.Background()); err == nil {
		t.Fatal("expected the inner error to propagate")
	}

	inner.err = nil
	inner.creds = Credentials{Username: "alice"}
	creds, err := provider.Credentials(context.Background())
	if err != nil {
		t.Fatalf("retry after failure must reach the inner provider: %v", err)
	}
	if creds.Username != "alice" || inner.calls != 2 {
		t.Errorf("unexpected retry behavior: creds=%+v calls=%d", creds, inner.calls)
	}
}
