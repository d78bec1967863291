package bridge

import (
	"fmt"

	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/jsapi"
	"go.uber.org/zap"
)

// callContext is the state of one Go-to-script call.
type callContext struct {
	host core.Host
}

// ResolveHost returns the callback target for host. It accepts a
// core.Host, a core.HostFunc or a plain func([]any) []any.
func ResolveHost(host any) (core.Host, error) {
	switch h := host.(type) {
	case core.Host:
		return h, nil
	case func([]any) []any:
		if h == nil {
			break
		}
		return core.HostFunc(h), nil
	}
	return nil, fmt.Errorf("%w: %T has no CallJava method", core.ErrCallbackUnresolved, host)
}

func (r *Runtime) activeCall() *callContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.call
}

// handleHostCall serves the script's callback global. Errors returned
// here surface in the script as a TypeError; the ["__error__", msg]
// marker produces an Error carrying msg instead.
func (r *Runtime) handleHostCall(payload string) (string, error) {
	call := r.activeCall()
	if call == nil {
		r.log.Error("callback outside of an invocation")
		return "", core.ErrCallbackUnresolved
	}
	vs, err := core.DecodeList(payload)
	if err != nil {
		return "", fmt.Errorf("decoding arguments: %w", err)
	}

	out, err := call.dispatch(r.codec.ToHostList(vs))
	if err != nil {
		r.log.Error("host callback", zap.Error(err))
		return "", err
	}
	if msg, ok := errorMarker(out); ok {
		return jsapi.HostErrorReply(msg)
	}
	return jsapi.HostReply(r.codec.ToScriptList(out))
}

func (c *callContext) dispatch(args []any) (out []any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: host callback panicked: %v", core.ErrCallbackUnresolved, p)
		}
	}()
	return c.host.CallJava(args), nil
}

func errorMarker(out []any) (string, bool) {
	if len(out) != 2 {
		return "", false
	}
	if s, ok := out[0].(string); !ok || s != core.ErrorMarker {
		return "", false
	}
	if out[1] == nil {
		return "", true
	}
	return fmt.Sprint(out[1]), true
}
