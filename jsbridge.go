// Package jsbridge embeds a JavaScript engine and bridges it with Go.
//
// A Bridge creates runtimes from modules, hands out opaque capabilities
// for them and invokes their entry functions. Scripts call back into Go
// through a global function (callJava by default) served by the Host
// passed to each invocation.
package jsbridge

import (
	"github.com/scriptable/jsbridge/internal/bridge"
	"github.com/scriptable/jsbridge/internal/handle"
	"github.com/scriptable/jsbridge/internal/procexec"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Bridge owns a set of runtimes addressed by capability.
type Bridge struct {
	opts     Options
	log      *zap.Logger
	runtimes *handle.Table[*bridge.Runtime]
}

// New returns a Bridge creating runtimes with opts.
func New(opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = Logger()
	}
	opts = opts.WithDefaults()
	return &Bridge{
		opts:     opts,
		log:      opts.Logger,
		runtimes: handle.NewTable[*bridge.Runtime](opts.Observer),
	}
}

// CreateRuntime boots a runtime for modulePath and binds the global
// function named entry. On failure it returns an empty capability and the
// reason; no engine resources are kept.
func (b *Bridge) CreateRuntime(modulePath, entry string) (Capability, error) {
	rt, err := bridge.New(b.opts, modulePath, entry)
	if err != nil {
		return Capability{}, err
	}
	c := b.runtimes.Put(rt)
	b.log.Debug("runtime registered", zap.Stringer("capability", c), zap.Int64("live", LiveInstances()))
	return c, nil
}

// DestroyRuntime releases the runtime behind c. Empty, unknown and already
// destroyed capabilities are ignored. A runtime with a call in flight is
// released when that call returns.
func (b *Bridge) DestroyRuntime(c Capability) {
	if err := b.destroy(c); err != nil {
		b.log.Warn("releasing runtime", zap.Stringer("capability", c), zap.Error(err))
	}
}

func (b *Bridge) destroy(c Capability) error {
	rt, ok := b.runtimes.Remove(c)
	if !ok {
		return nil
	}
	return rt.Close()
}

// Invoke calls the entry function of the runtime behind c with args.
// host serves the script's callback calls; it must be a Host, a HostFunc
// or a func([]any) []any. The status is -1 on failure.
func (b *Bridge) Invoke(c Capability, host any, args ...any) (Result, error) {
	rt, ok := b.runtimes.Get(c)
	if !ok {
		return Result{Status: -1}, ErrInvalidCapability
	}
	return rt.Invoke(host, args)
}

// LastException returns the exception record of the most recent failed
// call on c: the message, then the stack when one exists. It is empty for
// unknown capabilities and after successful calls.
func (b *Bridge) LastException(c Capability) []any {
	rt, ok := b.runtimes.Get(c)
	if !ok {
		return []any{}
	}
	return rt.LastException()
}

// Len returns the number of runtimes owned by b.
func (b *Bridge) Len() int {
	return b.runtimes.Len()
}

// Close destroys every runtime owned by b.
func (b *Bridge) Close() error {
	var err error
	for _, rt := range b.runtimes.Drain() {
		err = multierr.Append(err, rt.Close())
	}
	return err
}

// LiveInstances returns the number of runtimes alive in the process.
func LiveInstances() int64 {
	return handle.Live()
}

// ExecCommand runs cmd[0] without arguments and returns its exit status,
// or -1 when it cannot be started.
func ExecCommand(cmd []string) int {
	return procexec.Exec(cmd)
}
