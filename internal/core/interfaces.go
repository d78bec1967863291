package core

// SourceLoader retrieves module source code by path.
type SourceLoader interface {
	LoadModule(path string) (string, error)
}

// SourceLoaderFunc adapts a function to SourceLoader.
type SourceLoaderFunc func(path string) (string, error)

func (f SourceLoaderFunc) LoadModule(path string) (string, error) { return f(path) }

// Host is the callback target supplied with each invocation. Scripts reach
// it through the callback global; a result of the form
// ["__error__", message] is rethrown in the script as an Error.
type Host interface {
	CallJava(args []any) []any
}

// HostFunc adapts a function to Host.
type HostFunc func(args []any) []any

func (f HostFunc) CallJava(args []any) []any { return f(args) }

// ErrorMarker is the first element of a host result signalling an error.
const ErrorMarker = "__error__"

// HostError builds the two-element error result a Host returns to make
// the calling script throw.
func HostError(message string) []any {
	return []any{ErrorMarker, message}
}

// Observer receives runtime lifecycle notifications.
type Observer interface {
	RuntimeCreated(live int64)
	RuntimeDestroyed(live int64)
}

// Result is the outcome of one invocation.
type Result struct {
	Status int
	Values []any
}
