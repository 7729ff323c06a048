package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/inkforge/quillcore/internal/document"
)

func TestResultFromOutcomeOk(t *testing.T) {
	res := resultFromOutcome(document.RequestID(1), "hello", nil)
	if res.Status != document.StatusOk || res.Text != "hello" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResultFromOutcomeCancelled(t *testing.T) {
	res := resultFromOutcome(document.RequestID(2), "", context.Canceled)
	if res.Status != document.StatusCancelled || res.ErrKind != document.ErrCancelled {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResultFromOutcomeTimeout(t *testing.T) {
	res := resultFromOutcome(document.RequestID(3), "", context.DeadlineExceeded)
	if res.Status != document.StatusTimeout || res.ErrKind != document.ErrTimeout {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResultFromOutcomeGenericError(t *testing.T) {
	res := resultFromOutcome(document.RequestID(4), "", errors.New("boom"))
	if res.Status != document.StatusError {
		t.Fatalf("unexpected result: %+v", res)
	}
}
