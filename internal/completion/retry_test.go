package completion

import (
	"context"
	"errors"
	"net"
	"testing"
)

type fakeNetErr struct{}

func (fakeNetErr) Error() string   { return "dial tcp: connection refused" }
func (fakeNetErr) Timeout() bool   { return false }
func (fakeNetErr) Temporary() bool { return true }

var _ net.Error = fakeNetErr{}

func TestWithRetryRetriesNetworkErrorsWhenIdempotent(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), true, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", fakeNetErr{}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls (2 retries), got %d", calls)
	}
}

func TestWithRetryDoesNotRetryWhenNotIdempotent(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), false, func(ctx context.Context) (string, error) {
		calls++
		return "", fakeNetErr{}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 call without idempotency, got %d", calls)
	}
}

func TestWithRetryDoesNotRetryProtocolErrors(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), true, func(ctx context.Context) (string, error) {
		calls++
		return "", errProtocol("bad json")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected no retries on protocol error, got %d calls", calls)
	}
}

func TestClassifyErrProtocol(t *testing.T) {
	if got := classifyErr(errProtocol("x")); got.String() != "Protocol" {
		t.Fatalf("expected Protocol, got %v", got)
	}
}

func TestClassifyErrNetwork(t *testing.T) {
	if got := classifyErr(fakeNetErr{}); got.String() != "Network" {
		t.Fatalf("expected Network, got %v", got)
	}
}

func TestClassifyErrNone(t *testing.T) {
	if got := classifyErr(nil); got.String() != "None" {
		t.Fatalf("expected None, got %v", got)
	}
}

func TestClassifyErrGeneric(t *testing.T) {
	if got := classifyErr(errors.New("boom")); got.String() != "Network" {
		t.Fatalf("expected generic errors to default to Network, got %v", got)
	}
}
