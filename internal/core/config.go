package core

import (
	"io"

	"go.uber.org/zap"
)

const (
	// DefaultEngine is the engine used when Options.Engine is empty.
	DefaultEngine = "quickjs"
	// DefaultCallbackName is the global through which scripts reach the host.
	DefaultCallbackName = "callJava"
)

// Options holds runtime configuration for the bridge.
type Options struct {
	Engine        string `yaml:"engine"`        // registered engine name
	MemoryLimitMB int    `yaml:"memory-limit"`  // per-runtime memory limit, 0 for none
	CallbackName  string `yaml:"callback-name"` // script-visible host callback global
	StdModules    bool   `yaml:"std-modules"`   // expose the std and os modules

	Console  io.Writer    `yaml:"-"` // console.log output, stderr when nil
	Logger   *zap.Logger  `yaml:"-"` // diagnostics, no-op when nil
	Observer Observer     `yaml:"-"` // lifecycle hook, may be nil
	Loader   SourceLoader `yaml:"-"` // module storage
}

// DefaultOptions returns the options used by the CLI when no config file
// is present.
func DefaultOptions() Options {
	return Options{
		Engine:       DefaultEngine,
		CallbackName: DefaultCallbackName,
		StdModules:   true,
	}
}

// WithDefaults fills zero fields with their defaults.
func (o Options) WithDefaults() Options {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.CallbackName == "" {
		o.CallbackName = DefaultCallbackName
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
