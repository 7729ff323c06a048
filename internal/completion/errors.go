package completion

import (
	"errors"
	"net"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/openai/openai-go/v3"
)

// protocolError marks a response that parsed but was structurally
// unusable (spec §4.6 "deserialization failures map to Error(Protocol)").
type protocolError struct{ msg string }

func (e *protocolError) Error() string { return "completion: protocol: " + e.msg }

func errProtocol(msg string) error { return &protocolError{msg: msg} }

// classifyErr maps a call error onto the spec §7 taxonomy.
func classifyErr(err error) document.ErrKind {
	if err == nil {
		return document.ErrNone
	}

	var protoErr *protocolError
	if errors.As(err, &protoErr) {
		return document.ErrProtocol
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return document.ErrProvider
		}
		return document.ErrNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return document.ErrNetwork
	}

	return document.ErrNetwork
}

// isRetriable reports whether err is a Network-kind failure eligible for
// retry under spec §4.6's idempotency policy.
func isRetriable(err error) bool {
	return classifyErr(err) == document.ErrNetwork
}
