package jsbridge

import (
	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/handle"
)

// Type aliases re-exporting internal types so callers can use
// jsbridge.Options, jsbridge.Host, etc. without importing internal packages.

type Options = core.Options
type Host = core.Host
type HostFunc = core.HostFunc
type Observer = core.Observer
type SourceLoader = core.SourceLoader
type SourceLoaderFunc = core.SourceLoaderFunc
type Result = core.Result
type Exception = core.Exception
type ScriptError = core.ScriptError
type LoadError = core.LoadError
type Capability = handle.Capability

// Engine names.
const (
	EngineQuickJS = "quickjs"
	EngineGoja    = "goja"
	EngineV8      = "v8"
)

// ErrorMarker is the first element of a host result that makes the
// calling script throw.
const ErrorMarker = core.ErrorMarker

// Errors re-exported from core.
var (
	ErrRuntimeAlloc       = core.ErrRuntimeAlloc
	ErrModuleNotFound     = core.ErrModuleNotFound
	ErrEntryNotCallable   = core.ErrEntryNotCallable
	ErrCallbackUnresolved = core.ErrCallbackUnresolved
	ErrScriptException    = core.ErrScriptException
	ErrInvalidCapability  = core.ErrInvalidCapability
	ErrBusy               = core.ErrBusy
	ErrClosed             = core.ErrClosed
	ErrUnknownEngine      = core.ErrUnknownEngine
)

// Functions re-exported from core.
var (
	DefaultOptions  = core.DefaultOptions
	HostError       = core.HostError
	FormatException = core.FormatException
	Engines         = core.Engines
)
