package core

import (
	"fmt"
	"sort"
	"sync"
)

// EngineFactory allocates a fresh engine instance with an optional heap
// limit in megabytes (0 for none). The returned runtime owns its context;
// closing it releases both.
type EngineFactory func(memoryLimitMB int) (JSRuntime, error)

var (
	enginesMu sync.RWMutex
	engines   = map[string]EngineFactory{}
)

// RegisterEngine makes an engine available under name. Engine packages are
// registered from the root package's backend files.
func RegisterEngine(name string, f EngineFactory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[name] = f
}

// LookupEngine returns the factory registered under name.
func LookupEngine(name string) (EngineFactory, error) {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	f, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	return f, nil
}

// Engines lists registered engine names in sorted order.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
