package jsbridge

import (
	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/quickjs"
)

func init() {
	core.RegisterEngine(EngineQuickJS, quickjs.New)
}
