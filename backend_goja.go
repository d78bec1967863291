package jsbridge

import (
	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/gojaengine"
)

func init() {
	core.RegisterEngine(EngineGoja, gojaengine.New)
}
