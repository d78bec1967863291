package bridge

import (
	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/jsapi"
	"go.uber.org/zap"
)

// Invoke calls the entry function with args, using host to serve the
// script's callback calls for the duration of the call. Status is -1 on
// failure; a script exception is returned as *core.ScriptError and stays
// available through LastException.
func (r *Runtime) Invoke(host any, args []any) (core.Result, error) {
	failed := core.Result{Status: -1}

	h, err := ResolveHost(host)
	if err != nil {
		r.log.Error("invoke", zap.Error(err))
		return failed, err
	}

	r.mu.Lock()
	switch {
	case r.closed || r.closeAfter:
		r.mu.Unlock()
		return failed, core.ErrClosed
	case r.call != nil:
		r.mu.Unlock()
		return failed, core.ErrBusy
	}
	r.call = &callContext{host: h}
	r.lastExc = nil
	r.mu.Unlock()
	defer r.endCall()

	payload, err := core.EncodeList(r.codec.ToScriptList(args))
	if err != nil {
		return failed, err
	}
	if err := r.js.SetGlobal(jsapi.InputGlobal, payload); err != nil {
		return failed, err
	}

	reply, err := r.eval(jsapi.BridgeGlobal + ".invoke()")
	if err == nil && reply.Pending {
		r.js.RunMicrotasks()
		reply, err = r.eval(jsapi.BridgeGlobal + ".settle()")
	}
	if err != nil {
		// The engine itself failed (interrupted, out of memory) before the
		// glue could capture anything.
		return failed, r.fail(core.Exception{Message: err.Error()})
	}
	if !reply.OK {
		return failed, r.fail(core.ExceptionFromRecord(stringsToAny(reply.Exception)))
	}

	return core.Result{Status: reply.Status, Values: r.codec.ToHostList(reply.Values)}, nil
}

func (r *Runtime) eval(js string) (jsapi.Reply, error) {
	out, err := r.js.EvalString(js)
	if err != nil {
		return jsapi.Reply{}, err
	}
	return jsapi.ParseReply(out)
}

func (r *Runtime) endCall() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.call = nil
	if r.closeAfter && !r.closed {
		if err := r.release(); err != nil {
			r.log.Warn("deferred release", zap.Error(err))
		}
	}
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
