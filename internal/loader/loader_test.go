package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/jsapi"
	"github.com/scriptable/jsbridge/internal/quickjs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFS map[string]string

func (m memFS) LoadModule(p string) (string, error) {
	s, ok := m[p]
	if !ok {
		return "", os.ErrNotExist
	}
	return s, nil
}

func newRuntime(t *testing.T) core.JSRuntime {
	t.Helper()
	rt, err := quickjs.New(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	require.NoError(t, jsapi.SetupBridge(rt, "callJava", func(string) (string, error) { return `{"values":[]}`, nil }, nil))
	require.NoError(t, jsapi.SetupStd(rt, nil))
	return rt
}

func TestCompileMissingModule(t *testing.T) {
	_, err := New(memFS{}, true).Compile("app/main.js")
	var le *core.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "app/main.js", le.Path)
	assert.True(t, errors.Is(err, core.ErrModuleNotFound))
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := New(memFS{"main.js": "function ( {"}, true).Compile("main.js")
	var le *core.LoadError
	require.ErrorAs(t, err, &le)
	assert.False(t, errors.Is(err, core.ErrModuleNotFound))
}

func TestCompileMissingImport(t *testing.T) {
	fs := memFS{"app/main.js": `import { x } from './missing.js'; globalThis.x = x;`}
	_, err := New(fs, true).Compile("app/main.js")
	assert.Error(t, err)
}

func TestEvaluateRelativeImportsAndMeta(t *testing.T) {
	fs := memFS{
		"app/main.js": `
import { add } from './lib/math.js';
import * as std from 'std';
globalThis.sum = add(2, 3);
globalThis.url = import.meta.url;
globalThis.isMain = import.meta.main;
globalThis.hasGetenv = typeof std.getenv === 'function';
`,
		"app/lib/math.js": `export function add(a, b) { return a + b; }`,
	}
	compiled, err := New(fs, true).Compile("app/main.js")
	require.NoError(t, err)

	rt := newRuntime(t)
	require.NoError(t, Evaluate(rt, "app/main.js", compiled))

	n, err := rt.EvalInt("sum")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	s, err := rt.EvalString("url")
	require.NoError(t, err)
	assert.Equal(t, "file:///app/main.js", s)

	b, err := rt.EvalBool("isMain && hasGetenv")
	require.NoError(t, err)
	assert.True(t, b)
}

func TestEvaluateCapturesException(t *testing.T) {
	fs := memFS{"main.js": `throw new Error('load failed');`}
	compiled, err := New(fs, true).Compile("main.js")
	require.NoError(t, err)

	err = Evaluate(newRuntime(t), "main.js", compiled)
	var le *core.LoadError
	require.ErrorAs(t, err, &le)
	require.NotNil(t, le.Exception)
	assert.Contains(t, le.Exception.Message, "load failed")
	assert.ErrorIs(t, err, core.ErrScriptException)
}

func TestStdImportDisabled(t *testing.T) {
	fs := memFS{"main.js": `import * as std from 'std'; globalThis.s = std;`}
	_, err := New(fs, false).Compile("main.js")
	assert.Error(t, err)
}

func TestFilesLoader(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "main.js")
	require.NoError(t, os.WriteFile(p, []byte(`globalThis.ok = true;`), 0o600))

	compiled, err := New(nil, false).Compile(p)
	require.NoError(t, err)
	assert.Contains(t, compiled, "globalThis.ok = true")
}
