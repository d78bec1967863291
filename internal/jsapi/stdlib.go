package jsapi

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/procexec"
	"go.uber.org/zap"
)

// ModulesGlobal holds the std and os module objects that the loader
// re-exports as importable modules.
const ModulesGlobal = "__bridge_modules"

// Modules lists the exported names of each standard module.
var Modules = map[string][]string{
	"std": {"getenv", "setenv", "unsetenv", "loadFile", "writeFile"},
	"os":  {"getcwd", "platform", "now", "sleep", "exec"},
}

// SetupStd installs the Go-backed std and os modules.
func SetupStd(rt core.JSRuntime, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	funcs := map[string]any{
		"__std_getenv": func(name string) string {
			v, ok := os.LookupEnv(name)
			if !ok {
				return "null"
			}
			b, _ := json.Marshal(v)
			return string(b)
		},
		"__std_setenv": func(name, value string) (string, error) {
			return "", os.Setenv(name, value)
		},
		"__std_unsetenv": func(name string) (string, error) {
			return "", os.Unsetenv(name)
		},
		"__std_loadFile": func(path string) (string, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
		"__std_writeFile": func(path, data string) (string, error) {
			return "", os.WriteFile(path, []byte(data), 0o644)
		},
		"__os_getcwd": func() (string, error) {
			return os.Getwd()
		},
		"__os_platform": func() string {
			return runtime.GOOS
		},
		"__os_now": func() float64 {
			return float64(time.Now().UnixNano()) / float64(time.Millisecond)
		},
		"__os_sleep": func(ms int) {
			if ms > 0 {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		},
		"__os_exec": func(argv string) (int, error) {
			var cmd []string
			if err := json.Unmarshal([]byte(argv), &cmd); err != nil {
				return -1, fmt.Errorf("decoding command: %w", err)
			}
			status := procexec.Exec(cmd)
			log.Debug("os.exec", zap.Strings("cmd", cmd), zap.Int("status", status))
			return status, nil
		},
	}
	for name, fn := range funcs {
		if err := rt.RegisterFunc(name, fn); err != nil {
			return fmt.Errorf("registering %s: %w", name, err)
		}
	}
	return rt.Eval(stdJS)
}

const stdJS = `
(function() {
	function take(name) {
		var f = globalThis[name];
		delete globalThis[name];
		return f;
	}
	var getenv = take('__std_getenv'), setenv = take('__std_setenv'), unsetenv = take('__std_unsetenv');
	var loadFile = take('__std_loadFile'), writeFile = take('__std_writeFile');
	var getcwd = take('__os_getcwd'), platform = take('__os_platform'), now = take('__os_now');
	var sleep = take('__os_sleep'), exec = take('__os_exec');

	var std = {
		getenv: function(name) { return JSON.parse(getenv(String(name))); },
		setenv: function(name, value) { setenv(String(name), String(value)); },
		unsetenv: function(name) { unsetenv(String(name)); },
		loadFile: function(path) {
			try {
				return loadFile(String(path));
			} catch (e) {
				return null;
			}
		},
		writeFile: function(path, data) { writeFile(String(path), String(data)); }
	};
	var os = {
		getcwd: function() { return getcwd(); },
		platform: platform(),
		now: function() { return now(); },
		sleep: function(ms) { sleep(ms | 0); },
		exec: function(args) {
			var argv = Array.isArray(args) ? args : [args];
			var strs = [];
			for (var i = 0; i < argv.length; i++) strs.push(String(argv[i]));
			return exec(JSON.stringify(strs));
		}
	};
	Object.defineProperty(globalThis, '__bridge_modules', {
		value: Object.freeze({ std: Object.freeze(std), os: Object.freeze(os) })
	});
})();
`
