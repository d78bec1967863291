//go:build v8

package jsbridge

import (
	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/v8engine"
)

func init() {
	core.RegisterEngine(EngineV8, v8engine.New)
}
