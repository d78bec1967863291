// Package jsapi installs the script-side globals every runtime carries:
// console, the host callback, the bridge object and the std/os modules.
package jsapi

import (
	"io"
	"os"
	"sync"

	"github.com/scriptable/jsbridge/internal/core"
)

// SetupConsole replaces globalThis.console with a Go-backed version that
// writes each call as one line to w (stderr when w is nil). Arguments are
// converted with String() and joined by a single space.
func SetupConsole(rt core.JSRuntime, w io.Writer) error {
	if w == nil {
		w = os.Stderr
	}
	var mu sync.Mutex
	if err := rt.RegisterFunc("__bridge_print", func(line string) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = io.WriteString(w, line+"\n")
	}); err != nil {
		return err
	}

	return rt.Eval(`
(function() {
	var print = globalThis.__bridge_print;
	delete globalThis.__bridge_print;
	function log() {
		var parts = [];
		for (var i = 0; i < arguments.length; i++) {
			try {
				parts.push(String(arguments[i]));
			} catch (e) {
				parts.push('');
			}
		}
		print(parts.join(' '));
	}
	globalThis.console = {
		log: log, info: log, warn: log, error: log, debug: log
	};
})();
`)
}
