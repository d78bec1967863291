package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRuntimeAlloc is returned when an engine instance cannot be created.
	ErrRuntimeAlloc = errors.New("jsbridge: engine allocation failed")
	// ErrModuleNotFound is returned when the root module cannot be read.
	ErrModuleNotFound = errors.New("jsbridge: module not found")
	// ErrEntryNotCallable is returned when the entry name does not resolve
	// to a function on the global object.
	ErrEntryNotCallable = errors.New("jsbridge: entry is not a function")
	// ErrCallbackUnresolved is returned when the host value passed to an
	// invocation does not provide a callJava method.
	ErrCallbackUnresolved = errors.New("jsbridge: host callback unresolved")
	// ErrScriptException is wrapped by every ScriptError.
	ErrScriptException = errors.New("jsbridge: script exception")
	// ErrInvalidCapability is returned for empty, stale or unknown capabilities.
	ErrInvalidCapability = errors.New("jsbridge: invalid capability")
	// ErrBusy is returned when a runtime already has a call in flight.
	ErrBusy = errors.New("jsbridge: runtime busy")
	// ErrClosed is returned when a released runtime or bridge is used.
	ErrClosed = errors.New("jsbridge: closed")
	// ErrUnknownEngine is returned when no engine is registered under a name.
	ErrUnknownEngine = errors.New("jsbridge: unknown engine")
)

// Exception is the host-visible record of a script exception.
type Exception struct {
	Message string
	Stack   string
}

// Record returns the exception as the sequence handed to the host:
// the message, followed by the stack when one was captured.
func (e Exception) Record() []any {
	if e.Stack == "" {
		return []any{e.Message}
	}
	return []any{e.Message, e.Stack}
}

// ExceptionFromRecord is the inverse of Record.
func ExceptionFromRecord(rec []any) Exception {
	var e Exception
	if len(rec) > 0 {
		e.Message = fmt.Sprint(rec[0])
	}
	if len(rec) > 1 && rec[1] != nil {
		e.Stack = fmt.Sprint(rec[1])
	}
	return e
}

// ScriptError reports an exception thrown by script code.
type ScriptError struct {
	Exception Exception
}

func (e *ScriptError) Error() string {
	return "script exception: " + e.Exception.Message
}

func (e *ScriptError) Unwrap() error { return ErrScriptException }

// LoadError reports a failure to read, compile or evaluate a module.
type LoadError struct {
	Path      string
	Exception *Exception
	Err       error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("loading module ")
	b.WriteString(e.Path)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Exception != nil {
		b.WriteString(": ")
		b.WriteString(e.Exception.Message)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// FormatException renders an exception record one element per line,
// writing NULL for missing elements.
func FormatException(rec []any) string {
	lines := make([]string, len(rec))
	for i, r := range rec {
		if r == nil {
			lines[i] = "NULL"
			continue
		}
		lines[i] = fmt.Sprint(r)
	}
	return strings.Join(lines, "\n")
}
