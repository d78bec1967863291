package bridge

import (
	"bytes"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/scriptable/jsbridge/internal/core"
	"github.com/scriptable/jsbridge/internal/gojaengine"
	"github.com/scriptable/jsbridge/internal/quickjs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	core.RegisterEngine("quickjs", quickjs.New)
	core.RegisterEngine("goja", gojaengine.New)
}

var engines = []string{"quickjs", "goja"}

const testModule = `
globalThis.echo = function() { return Array.prototype.slice.call(arguments); };
globalThis.code = function() { return 7; };
globalThis.coerced = function() {
	return [{}, {toString: function() { throw 1; }}, NaN, -0, 1/0, true, 2147483648];
};
globalThis.nothing = function() {};
globalThis.bad = function() { throw new Error('boom'); };
globalThis.viaHost = function(x) { return callJava('double', x); };
globalThis.catchHost = function() {
	try {
		callJava('fail');
		return 'no exception';
	} catch (e) {
		return (e instanceof TypeError ? 'type:' : 'error:') + e.message;
	}
};
globalThis.throughHost = function() { callJava('fail'); };
globalThis.deep = function(n) {
	var v = 'leaf';
	for (var i = 0; i < n; i++) v = [v];
	return [v, 'sibling'];
};
globalThis.later = function(x) { return Promise.resolve(x + 1); };
globalThis.rejected = function() { return Promise.reject(new Error('async boom')); };
globalThis.say = function() { console.log('a', 1, [1, 2], null); };
globalThis.notfn = 5;
`

type memFS map[string]string

func (m memFS) LoadModule(p string) (string, error) {
	s, ok := m[p]
	if !ok {
		return "", os.ErrNotExist
	}
	return s, nil
}

func options(engine string, fs memFS) core.Options {
	o := core.DefaultOptions()
	o.Engine = engine
	o.Loader = fs
	return o
}

func newRuntime(t *testing.T, engine, entry string) *Runtime {
	t.Helper()
	r, err := New(options(engine, memFS{"main.js": testModule}), "main.js", entry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func nothingHost(args []any) []any { return nil }

func forEachEngine(t *testing.T, fn func(t *testing.T, engine string)) {
	for _, e := range engines {
		e := e
		t.Run(e, func(t *testing.T) { fn(t, e) })
	}
}

func listDepth(v any) int {
	d := 0
	for {
		l, ok := v.([]any)
		if !ok || len(l) == 0 {
			return d
		}
		d++
		v = l[0]
	}
}

func nest(levels int) any {
	var v any = "leaf"
	for i := 0; i < levels; i++ {
		v = []any{v}
	}
	return v
}

func TestInvokeRoundTrip(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "echo")
		res, err := r.Invoke(nothingHost, []any{1, 2.5, "s", nil, []any{3, []any{"x"}}, true})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Status)
		assert.Equal(t, []any{1, 2.5, "s", nil, []any{3, []any{"x"}}, "true"}, res.Values)
	})
}

func TestInvokeDeepArgumentsWithinBound(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "echo")
		res, err := r.Invoke(nothingHost, []any{nest(100)})
		require.NoError(t, err)
		require.Len(t, res.Values, 1)
		assert.Equal(t, 100, listDepth(res.Values[0]))
	})
}

func TestIntegerResultIsStatus(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "code")
		res, err := r.Invoke(nothingHost, nil)
		require.NoError(t, err)
		assert.Equal(t, 7, res.Status)
		assert.Equal(t, []any{7}, res.Values)
	})
}

func TestUndefinedResult(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "nothing")
		res, err := r.Invoke(nothingHost, nil)
		require.NoError(t, err)
		assert.Equal(t, core.Result{Status: 0, Values: []any{}}, res)
	})
}

func TestScriptResultCoercion(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "coerced")
		res, err := r.Invoke(nothingHost, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Status)
		require.Len(t, res.Values, 7)

		assert.Equal(t, "[object Object]", res.Values[0])
		// String() threw, so the value degrades to an empty string.
		assert.Equal(t, "", res.Values[1])

		nan, ok := res.Values[2].(float64)
		require.True(t, ok, "NaN: %#v", res.Values[2])
		assert.True(t, math.IsNaN(nan))

		negZero, ok := res.Values[3].(float64)
		require.True(t, ok, "-0: %#v", res.Values[3])
		assert.Zero(t, negZero)
		assert.True(t, math.Signbit(negZero))

		inf, ok := res.Values[4].(float64)
		require.True(t, ok, "Infinity: %#v", res.Values[4])
		assert.True(t, math.IsInf(inf, 1))

		assert.Equal(t, 1, res.Values[5])
		assert.Equal(t, float64(2147483648), res.Values[6])
	})
}

func TestScriptExceptionKeepsRuntimeUsable(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "bad")
		res, err := r.Invoke(nothingHost, nil)
		assert.Equal(t, -1, res.Status)

		var se *core.ScriptError
		require.ErrorAs(t, err, &se)
		assert.Contains(t, se.Exception.Message, "boom")

		rec := r.LastException()
		require.NotEmpty(t, rec)
		assert.Contains(t, rec[0], "boom")

		_, err = r.Invoke(nothingHost, nil)
		assert.ErrorIs(t, err, core.ErrScriptException)
		assert.False(t, r.Closed())
	})
}

func TestLastExceptionClearedBySuccess(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "throughHost")
		fail := true
		host := func(args []any) []any {
			if fail {
				return core.HostError("boom")
			}
			return nil
		}
		_, err := r.Invoke(host, nil)
		require.Error(t, err)
		require.NotEmpty(t, r.LastException())
		assert.Contains(t, r.LastException()[0], "boom")

		fail = false
		_, err = r.Invoke(host, nil)
		require.NoError(t, err)
		assert.Empty(t, r.LastException())
	})
}

func TestHostCallback(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "viaHost")
		var seen []any
		res, err := r.Invoke(core.HostFunc(func(args []any) []any {
			seen = args
			return []any{args[1].(int) * 2}
		}), []any{21})
		require.NoError(t, err)
		assert.Equal(t, []any{"double", 21}, seen)
		assert.Equal(t, []any{42}, res.Values)
	})
}

func TestHostErrorMarkerBecomesScriptError(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "catchHost")
		res, err := r.Invoke(func(args []any) []any { return []any{"__error__", "boom"} }, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{"error:boom"}, res.Values)
	})
}

func TestPanickingHostRaisesTypeError(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "catchHost")
		res, err := r.Invoke(func(args []any) []any { panic("host exploded") }, nil)
		require.NoError(t, err)
		require.Len(t, res.Values, 1)
		assert.Contains(t, res.Values[0], "type:")
		assert.Contains(t, res.Values[0], "host exploded")
	})
}

func TestUnresolvedHost(t *testing.T) {
	r := newRuntime(t, "quickjs", "echo")
	for _, host := range []any{nil, 42, "callJava", (func([]any) []any)(nil)} {
		res, err := r.Invoke(host, []any{1})
		assert.ErrorIs(t, err, core.ErrCallbackUnresolved)
		assert.Equal(t, -1, res.Status)
	}
	_, err := r.Invoke(nothingHost, []any{1})
	assert.NoError(t, err)
}

func TestDeepResultTruncated(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		obs, logs := observer.New(zap.WarnLevel)
		o := options(engine, memFS{"main.js": testModule})
		o.Logger = zap.New(obs)
		r, err := New(o, "main.js", "deep")
		require.NoError(t, err)
		defer r.Close()

		res, err := r.Invoke(nothingHost, []any{150})
		require.NoError(t, err)
		require.Len(t, res.Values, 2)
		assert.Equal(t, "sibling", res.Values[1])
		assert.LessOrEqual(t, listDepth(res.Values[0]), 101)
		assert.NotZero(t, logs.FilterMessage("too many nested arrays, circular ref?").Len())

		res, err = r.Invoke(nothingHost, []any{100})
		require.NoError(t, err)
		assert.Equal(t, 100, listDepth(res.Values[0]))
	})
}

func TestAsyncEntry(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "later")
		res, err := r.Invoke(nothingHost, []any{1})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Status)
		assert.Equal(t, []any{2}, res.Values)

		r2 := newRuntime(t, engine, "rejected")
		_, err = r2.Invoke(nothingHost, nil)
		var se *core.ScriptError
		require.ErrorAs(t, err, &se)
		assert.Contains(t, se.Exception.Message, "async boom")
	})
}

func TestConsoleOutput(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		var buf bytes.Buffer
		o := options(engine, memFS{"main.js": testModule})
		o.Console = &buf
		r, err := New(o, "main.js", "say")
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Invoke(nothingHost, nil)
		require.NoError(t, err)
		assert.Equal(t, "a 1 1,2 null\n", buf.String())
	})
}

func TestStdModule(t *testing.T) {
	t.Setenv("JSBRIDGE_TEST_VALUE", "present")
	fs := memFS{"main.js": `
import * as std from 'std';
import { platform } from 'os';
globalThis.env = function(name) { return [std.getenv(name), typeof platform]; };
`}
	forEachEngine(t, func(t *testing.T, engine string) {
		r, err := New(options(engine, fs), "main.js", "env")
		require.NoError(t, err)
		defer r.Close()

		res, err := r.Invoke(nothingHost, []any{"JSBRIDGE_TEST_VALUE"})
		require.NoError(t, err)
		assert.Equal(t, []any{"present", "string"}, res.Values)

		res, err = r.Invoke(nothingHost, []any{"JSBRIDGE_TEST_UNSET"})
		require.NoError(t, err)
		assert.Equal(t, []any{nil, "string"}, res.Values)
	})
}

func TestCreateFailures(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		fs := memFS{"main.js": testModule, "throws.js": `throw new Error('init failed');`}

		_, err := New(options(engine, fs), "missing.js", "echo")
		assert.ErrorIs(t, err, core.ErrModuleNotFound)

		_, err = New(options(engine, fs), "main.js", "notfn")
		assert.ErrorIs(t, err, core.ErrEntryNotCallable)

		_, err = New(options(engine, fs), "main.js", "absent")
		assert.ErrorIs(t, err, core.ErrEntryNotCallable)

		_, err = New(options(engine, fs), "throws.js", "echo")
		var le *core.LoadError
		require.ErrorAs(t, err, &le)
		require.NotNil(t, le.Exception)
		assert.Contains(t, le.Exception.Message, "init failed")
	})

	_, err := New(options("no-such-engine", memFS{}), "main.js", "echo")
	assert.ErrorIs(t, err, core.ErrUnknownEngine)
}

func TestCloseSemantics(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "echo")
		require.NoError(t, r.Close())
		require.NoError(t, r.Close())

		res, err := r.Invoke(nothingHost, nil)
		assert.ErrorIs(t, err, core.ErrClosed)
		assert.Equal(t, -1, res.Status)
	})
}

func TestReentrantInvokeIsBusy(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "viaHost")
		var inner error
		_, err := r.Invoke(func(args []any) []any {
			_, inner = r.Invoke(nothingHost, nil)
			return []any{1}
		}, []any{1})
		require.NoError(t, err)
		assert.True(t, errors.Is(inner, core.ErrBusy))
	})
}

func TestCloseDuringCallIsDeferred(t *testing.T) {
	forEachEngine(t, func(t *testing.T, engine string) {
		r := newRuntime(t, engine, "viaHost")
		res, err := r.Invoke(func(args []any) []any {
			require.NoError(t, r.Close())
			assert.False(t, r.Closed())
			return []any{5}
		}, []any{1})
		require.NoError(t, err)
		assert.Equal(t, []any{5}, res.Values)
		assert.True(t, r.Closed())
	})
}
