// Package safe launches goroutines that recover from panics instead of
// crashing the process, and records enough context to diagnose them.
package safe

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// PanicError describes a recovered panic: when it happened, what was
// passed to panic(), and the stack at the time.
type PanicError struct {
	at    time.Time
	info  any
	stack []byte
	cache atomic.Pointer[string]
}

func (e *PanicError) Error() string {
	if e.cache.Load() == nil {
		msg := fmt.Sprintf("panic: timestamp=%s info=%+v stack=%s",
			e.at.Format(time.RFC3339Nano), e.info, e.stack)
		e.cache.Store(&msg)
	}
	return *e.cache.Load()
}

func newPanicError(info any, stack []byte) error {
	return &PanicError{at: time.Now(), info: info, stack: stack}
}

// Go runs fn in a new goroutine, recovering any panic. Recovered panics are
// passed to each handler in panicFns; with none given, a panic is logged at
// Error level via slog and otherwise swallowed.
func Go(fn func(), panicFns ...func(error)) {
	wrapped := WithRecover(fn, panicFns...)
	if wrapped == nil {
		return
	}
	go wrapped()
}

// WithRecover wraps fn so a panic inside it is recovered and turned into a
// PanicError delivered to panicFns (or logged, if none are given) instead of
// propagating. Returns nil if fn is nil.
func WithRecover(fn func(), panicFns ...func(error)) func() {
	if fn == nil {
		return nil
	}
	return func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err := newPanicError(r, debug.Stack())
			if len(panicFns) == 0 {
				slog.Error("recovered panic", slog.String("error", err.Error()))
				return
			}
			for _, h := range panicFns {
				h(err)
			}
		}()
		fn()
	}
}
