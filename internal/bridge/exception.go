package bridge

import (
	"github.com/scriptable/jsbridge/internal/core"
	"go.uber.org/zap"
)

// fail records exc as the runtime's last exception and returns the error
// reported to the caller.
func (r *Runtime) fail(exc core.Exception) error {
	rec := exc.Record()
	r.mu.Lock()
	r.lastExc = rec
	r.mu.Unlock()
	r.log.Debug("script exception", zap.String("message", exc.Message))
	return &core.ScriptError{Exception: exc}
}

// LastException returns the message and, when present, the stack of the
// exception raised by the most recent call. It is empty after a call that
// succeeded.
func (r *Runtime) LastException() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lastExc) == 0 {
		return []any{}
	}
	out := make([]any, len(r.lastExc))
	copy(out, r.lastExc)
	return out
}
