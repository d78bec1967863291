package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scriptable/jsbridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfigDefaults(t *testing.T) {
	c, err := readConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	c, err = readConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, jsbridge.EngineQuickJS, c.Engine)
}

func TestReadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(file, []byte(`engine: goja
memory-limit: 64
store:
  kind: sqlite
  path: /tmp/modules.sqlite3
`), 0o600))

	c, err := readConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "goja", c.Engine)
	assert.Equal(t, 64, c.MemoryLimitMB)
	assert.Equal(t, "callJava", c.CallbackName)
	assert.Equal(t, StoreConfig{Kind: "sqlite", Path: "/tmp/modules.sqlite3"}, c.Store)
}

func TestWriteDiskConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "config.yml")
	require.NoError(t, writeDiskConfig(file))

	c, err := readConfig(file)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	assert.Error(t, writeDiskConfig(file))
}

func TestParseArgs(t *testing.T) {
	got := parseArgs([]string{"42", "1.5", "true", "null", "hello", "-7"})
	assert.Equal(t, []any{int64(42), 1.5, true, nil, "hello", int64(-7)}, got)
}

func TestRunModule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "add.js"), []byte(
		`globalThis.add = function(a, b) { return a + b; };
globalThis.echo = function(x) { return callJava('echo', x); };
globalThis.broken = function() { throw new Error('nope'); };`), 0o644))

	c := DefaultConfig()
	c.Store = StoreConfig{Kind: "dir", Path: dir}

	res, err := runModule(c, "add.js", "add", parseArgs([]string{"40", "2"}))
	require.NoError(t, err)
	assert.Equal(t, 42, res.Status)

	res, err = runModule(c, "add.js", "echo", []any{"hi"})
	require.NoError(t, err)
	assert.Equal(t, []any{"echo", "hi"}, res.Values)

	_, err = runModule(c, "add.js", "broken", nil)
	assert.ErrorIs(t, err, jsbridge.ErrScriptException)
	assert.Contains(t, err.Error(), "Error: nope")
}

func TestPutModule(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "src.js")
	require.NoError(t, os.WriteFile(file, []byte("globalThis.one = function() { return 1; };"), 0o644))

	sc := StoreConfig{Kind: "bolt", Path: filepath.Join(dir, "modules.db")}
	require.NoError(t, putModule(sc, "lib/one.js", file))

	c := DefaultConfig()
	c.Store = sc
	res, err := runModule(c, "lib/one.js", "one", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Status)
}
