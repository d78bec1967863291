// Package bridge owns one engine instance per Runtime and implements the
// call protocol between Go and script code.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/scriptable/jsbridge/internal/codec"
	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/jsapi"
	"github.com/scriptable/jsbridge/internal/loader"
	"go.uber.org/zap"
)

// Runtime is a live engine with a resolved entry function.
type Runtime struct {
	js    core.JSRuntime
	path  string
	entry string
	codec *codec.Codec
	log   *zap.Logger

	mu         sync.Mutex
	call       *callContext
	closed     bool
	closeAfter bool
	lastExc    []any
}

// New creates a runtime for the module at path and binds the function
// globalThis[entry]. On failure every engine resource allocated so far is
// released and a nil Runtime is returned.
func New(opts core.Options, path, entry string) (*Runtime, error) {
	opts = opts.WithDefaults()
	log := opts.Logger.With(zap.String("module", path), zap.String("entry", entry))

	factory, err := core.LookupEngine(opts.Engine)
	if err != nil {
		log.Error("creating runtime", zap.Error(err))
		return nil, err
	}
	js, err := factory(opts.MemoryLimitMB)
	if err != nil {
		if !errors.Is(err, core.ErrRuntimeAlloc) {
			err = fmt.Errorf("%w: %v", core.ErrRuntimeAlloc, err)
		}
		log.Error("allocating engine", zap.Error(err))
		return nil, err
	}

	r := &Runtime{
		js:    js,
		path:  path,
		entry: entry,
		codec: codec.New(log),
		log:   log,
	}
	if err := r.boot(opts); err != nil {
		if cerr := js.Close(); cerr != nil {
			log.Warn("releasing engine", zap.Error(cerr))
		}
		return nil, err
	}
	log.Debug("runtime created", zap.String("engine", opts.Engine))
	return r, nil
}

// boot runs the creation protocol after the engine exists.
func (r *Runtime) boot(opts core.Options) error {
	ld := loader.New(opts.Loader, opts.StdModules)

	if err := jsapi.SetupConsole(r.js, opts.Console); err != nil {
		return fmt.Errorf("installing console: %w", err)
	}
	if err := jsapi.SetupBridge(r.js, opts.CallbackName, r.handleHostCall, r.diag); err != nil {
		return fmt.Errorf("installing bridge: %w", err)
	}
	if opts.StdModules {
		if err := jsapi.SetupStd(r.js, r.log); err != nil {
			return fmt.Errorf("installing std modules: %w", err)
		}
	}

	compiled, err := ld.Compile(r.path)
	if err != nil {
		r.log.Warn("loading module", zap.Error(err))
		return err
	}
	if err := loader.Evaluate(r.js, r.path, compiled); err != nil {
		r.log.Warn("evaluating module", zap.Error(err))
		return err
	}

	name, _ := json.Marshal(r.entry)
	ok, err := r.js.EvalBool(fmt.Sprintf("%s.bind(%s)", jsapi.BridgeGlobal, name))
	if err != nil {
		return fmt.Errorf("resolving entry %q: %w", r.entry, err)
	}
	if !ok {
		err := fmt.Errorf("%w: %q", core.ErrEntryNotCallable, r.entry)
		r.log.Error("resolving entry", zap.Error(err))
		return err
	}
	return nil
}

func (r *Runtime) diag(msg string) {
	r.log.Warn(msg, zap.String("direction", "script-to-host"))
}

// Close releases the entry binding and the engine. If a call is in flight
// the release happens when that call returns. Close is idempotent.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if r.call != nil {
		r.closeAfter = true
		return nil
	}
	return r.release()
}

// release must be called with mu held.
func (r *Runtime) release() error {
	r.closed = true
	if err := r.js.Eval(jsapi.BridgeGlobal + ".release()"); err != nil {
		r.log.Debug("releasing entry", zap.Error(err))
	}
	err := r.js.Close()
	r.log.Debug("runtime released")
	return err
}

// Closed reports whether the runtime has been released.
func (r *Runtime) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
