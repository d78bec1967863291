package core

// JSRuntime abstracts the JavaScript engine (QuickJS, goja or V8) behind a
// common interface used by the script glue in internal/jsapi and by the
// bridge runtime in internal/bridge.
type JSRuntime interface {
	// Eval evaluates JavaScript source and discards the result.
	Eval(js string) error

	// EvalString evaluates JavaScript and returns the result as a Go string.
	// null and undefined yield the empty string.
	EvalString(js string) (string, error)

	// EvalBool evaluates JavaScript and returns the result as a Go bool.
	EvalBool(js string) (bool, error)

	// EvalInt evaluates JavaScript and returns the result as a Go int.
	EvalInt(js string) (int, error)

	// RegisterFunc registers a Go function as a global JavaScript function.
	// Arguments and results may be string, int, float64 or bool. A func
	// returning (T, error) makes the JS function throw a TypeError
	// "calling NAME: ..." when the error is non-nil.
	RegisterFunc(name string, fn any) error

	// SetGlobal sets a global variable on the JS context. Basic Go types
	// (string, int, float64, bool) are auto-converted to JS types.
	SetGlobal(name string, value any) error

	// RunMicrotasks pumps the microtask queue (Promise callbacks, etc.).
	RunMicrotasks()

	// Close releases the context and the runtime that owns it.
	Close() error
}
