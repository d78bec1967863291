package jsbridge

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

const counterModule = `
var calls = 0;
globalThis.count = function() { calls++; return calls; };
globalThis.boom = function() { throw new Error('pool boom'); };
`

func newTestConnector(t *testing.T, size int) (*Connector, *Bridge) {
	t.Helper()
	opts := DefaultOptions()
	opts.Loader = memLoader{"counter.js": counterModule}
	b := New(opts)
	c := NewConnector(b, size)
	t.Cleanup(func() {
		if err := c.ReleaseAll(); err != nil {
			t.Errorf("ReleaseAll: %v", err)
		}
		_ = b.Close()
	})
	return c, b
}

func TestConnector_ReusesIdleRuntime(t *testing.T) {
	c, b := newTestConnector(t, 2)

	for want := 1; want <= 3; want++ {
		res, err := c.Call("counter.js", "count", noHost)
		if err != nil {
			t.Fatalf("Call: %v", err)
		}
		if res.Status != want {
			t.Errorf("call %d: status = %d", want, res.Status)
		}
	}
	if got := c.Idle("counter.js", "count"); got != 1 {
		t.Errorf("Idle = %d, want 1", got)
	}
	if b.Len() != 1 {
		t.Errorf("bridge holds %d runtimes, want 1", b.Len())
	}
}

func TestConnector_ReloadDiscardsStaleRuntimes(t *testing.T) {
	c, b := newTestConnector(t, 2)

	if _, err := c.Call("counter.js", "count", noHost); err != nil {
		t.Fatalf("Call: %v", err)
	}
	c.Reload("counter.js", "count", 100)
	if b.Len() != 0 {
		t.Fatalf("bridge holds %d runtimes after reload", b.Len())
	}

	res, err := c.Call("counter.js", "count", noHost)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Status != 1 {
		t.Errorf("status after reload = %d, want 1", res.Status)
	}

	// Older versions are ignored.
	c.Reload("counter.js", "count", 50)
	if got := c.Idle("counter.js", "count"); got != 1 {
		t.Errorf("Idle = %d, want 1", got)
	}
}

func TestConnector_ScriptErrorIncludesTrace(t *testing.T) {
	c, b := newTestConnector(t, 2)

	res, err := c.Call("counter.js", "boom", noHost)
	if !errors.Is(err, ErrScriptException) {
		t.Fatalf("err = %v, want ErrScriptException", err)
	}
	if res.Status != -1 {
		t.Errorf("status = %d", res.Status)
	}
	if !strings.Contains(err.Error(), "Error: pool boom\n") {
		t.Errorf("error lacks trace: %q", err.Error())
	}
	if b.Len() != 0 {
		t.Errorf("failed runtime kept, bridge holds %d", b.Len())
	}
}

func TestConnector_LoadError(t *testing.T) {
	c, _ := newTestConnector(t, 1)

	_, err := c.Call("absent.js", "count", noHost)
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("err = %v, want ErrModuleNotFound", err)
	}
	if !strings.HasPrefix(err.Error(), "error while loading absent.js") {
		t.Errorf("err = %q", err.Error())
	}
}

func TestConnector_ConcurrentCallers(t *testing.T) {
	c, b := newTestConnector(t, 3)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Call("counter.js", "count", noHost); err != nil {
				t.Errorf("Call: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := c.Idle("counter.js", "count"); got < 1 || got > 3 {
		t.Errorf("Idle = %d, want 1..3", got)
	}
	if b.Len() != c.Idle("counter.js", "count") {
		t.Errorf("bridge holds %d runtimes, pool %d", b.Len(), c.Idle("counter.js", "count"))
	}

	if err := c.ReleaseAll(); err != nil {
		t.Fatalf("ReleaseAll: %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("bridge holds %d runtimes after ReleaseAll", b.Len())
	}
}

func TestConnector_UnresolvedHostKeepsRuntime(t *testing.T) {
	c, b := newTestConnector(t, 2)

	if _, err := c.Call("counter.js", "count", noHost); err != nil {
		t.Fatalf("Call: %v", err)
	}
	res, err := c.Call("counter.js", "count", "not a host")
	if !errors.Is(err, ErrCallbackUnresolved) {
		t.Fatalf("err = %v, want ErrCallbackUnresolved", err)
	}
	if res.Status != -1 {
		t.Errorf("status = %d, want -1", res.Status)
	}
	if got := c.Idle("counter.js", "count"); got != 1 {
		t.Errorf("Idle = %d, want 1", got)
	}
	if b.Len() != 1 {
		t.Errorf("bridge holds %d runtimes, want 1", b.Len())
	}

	// Same runtime, so the counter carries on.
	res, err = c.Call("counter.js", "count", noHost)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res.Status != 2 {
		t.Errorf("status = %d, want 2", res.Status)
	}
}
