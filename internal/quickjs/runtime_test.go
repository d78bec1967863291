package quickjs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) *qjsRuntime {
	t.Helper()
	rt, err := New(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt.(*qjsRuntime)
}

func TestEvalHelpers(t *testing.T) {
	rt := newTestRuntime(t)

	s, err := rt.EvalString("'a' + 'b'")
	require.NoError(t, err)
	assert.Equal(t, "ab", s)

	b, err := rt.EvalBool("1 < 2")
	require.NoError(t, err)
	assert.True(t, b)

	n, err := rt.EvalInt("6 * 7")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = rt.EvalString("throw new Error('nope')")
	assert.Error(t, err)
}

func TestRegisterFuncUnwrapsErrors(t *testing.T) {
	rt := newTestRuntime(t)

	require.NoError(t, rt.RegisterFunc("upper", func(s string) (string, error) {
		if s == "" {
			return "", errors.New("empty input")
		}
		return s + "!", nil
	}))

	s, err := rt.EvalString("upper('hi')")
	require.NoError(t, err)
	assert.Equal(t, "hi!", s)

	s, err = rt.EvalString("try { upper('') } catch (e) { (e instanceof TypeError) + ':' + e.message }")
	require.NoError(t, err)
	assert.Equal(t, "true:calling upper: empty input", s)
}

func TestSetGlobal(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.SetGlobal("payload", "[1,2]"))
	n, err := rt.EvalInt("JSON.parse(payload).length")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunMicrotasksSettlesPromises(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Eval("globalThis.done = false; Promise.resolve(1).then(function() { globalThis.done = true; })"))
	rt.RunMicrotasks()
	b, err := rt.EvalBool("globalThis.done")
	require.NoError(t, err)
	assert.True(t, b)
}

func TestMemoryLimit(t *testing.T) {
	rt, err := New(1)
	require.NoError(t, err)
	defer rt.Close()
	err = rt.Eval("var a = []; for (var i = 0; i < 1e7; i++) a.push('x' + i);")
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	rt, err := New(0)
	require.NoError(t, err)
	assert.NoError(t, rt.Close())
	assert.NoError(t, rt.Close())
}
