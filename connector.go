package jsbridge

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultPoolSize is the number of idle runtimes a Connector keeps per
// module and entry when no size is given.
const DefaultPoolSize = 4

// poolKey identifies the runtimes built for one module entry point.
type poolKey struct {
	Path  string
	Entry string
}

// pooledRuntime is an idle runtime tagged with the version it was loaded at.
type pooledRuntime struct {
	cap     Capability
	version int64
}

// runtimePool keeps up to size idle runtimes for one key. Runtimes older
// than version are destroyed instead of being reused.
type runtimePool struct {
	idle    chan pooledRuntime
	version int64
	mu      sync.RWMutex
}

func newRuntimePool(size int) *runtimePool {
	return &runtimePool{idle: make(chan pooledRuntime, size)}
}

func (p *runtimePool) currentVersion() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.version
}

// bump raises the pool version and reports whether it changed.
func (p *runtimePool) bump(version int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if version <= p.version {
		return false
	}
	p.version = version
	return true
}

// Connector hands callers exclusive runtimes for a module entry point,
// creating them on demand and keeping a few idle ones for reuse. It is
// safe for concurrent use; each runtime still runs one call at a time.
type Connector struct {
	bridge *Bridge
	size   int
	log    *zap.Logger

	mu    sync.Mutex
	pools map[poolKey]*runtimePool
}

// NewConnector returns a Connector creating runtimes through b and keeping
// at most size idle runtimes per entry point.
func NewConnector(b *Bridge, size int) *Connector {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Connector{
		bridge: b,
		size:   size,
		log:    b.log,
		pools:  make(map[poolKey]*runtimePool),
	}
}

func (c *Connector) pool(path, entry string) *runtimePool {
	key := poolKey{Path: path, Entry: entry}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pools[key]
	if !ok {
		p = newRuntimePool(c.size)
		c.pools[key] = p
	}
	return p
}

// get returns an idle runtime of the current version or creates one.
func (c *Connector) get(p *runtimePool, path, entry string) (pooledRuntime, error) {
	version := p.currentVersion()
	for {
		select {
		case w := <-p.idle:
			if w.version >= version {
				return w, nil
			}
			c.bridge.DestroyRuntime(w.cap)
		default:
			rc, err := c.bridge.CreateRuntime(path, entry)
			if err != nil {
				return pooledRuntime{}, fmt.Errorf("error while loading %s: %w", path, err)
			}
			return pooledRuntime{cap: rc, version: version}, nil
		}
	}
}

// put returns w to its pool, destroying it when it is stale or the pool
// is full.
func (c *Connector) put(p *runtimePool, w pooledRuntime) {
	if w.version < p.currentVersion() {
		c.bridge.DestroyRuntime(w.cap)
		return
	}
	select {
	case p.idle <- w:
	default:
		c.bridge.DestroyRuntime(w.cap)
	}
}

// Call runs entry from the module at path with args. A runtime whose
// script or engine failed is destroyed; script exceptions are reported with
// their message and stack, one per line. An unresolvable host never
// reaches the script, so the runtime goes back to the pool.
func (c *Connector) Call(path, entry string, host any, args ...any) (Result, error) {
	p := c.pool(path, entry)
	w, err := c.get(p, path, entry)
	if err != nil {
		c.log.Warn("acquiring runtime", zap.String("module", path), zap.String("entry", entry), zap.Error(err))
		return Result{Status: -1}, err
	}

	res, err := c.bridge.Invoke(w.cap, host, args...)
	if errors.Is(err, ErrCallbackUnresolved) {
		c.put(p, w)
		return res, err
	}
	if err != nil {
		var se *ScriptError
		if errors.As(err, &se) {
			err = fmt.Errorf("%w\n%s", err, FormatException(c.bridge.LastException(w.cap)))
		}
		c.bridge.DestroyRuntime(w.cap)
		return res, err
	}
	c.put(p, w)
	return res, nil
}

// Reload marks runtimes for path and entry loaded before version as stale.
// Idle stale runtimes are destroyed now, busy ones when they are returned.
// Versions are typically modification timestamps; older or equal versions
// are ignored.
func (c *Connector) Reload(path, entry string, version int64) {
	p := c.pool(path, entry)
	if !p.bump(version) {
		return
	}
	if _, err := c.drain(p); err != nil {
		c.log.Warn("releasing stale runtimes", zap.String("module", path), zap.Error(err))
	}
	c.log.Debug("runtimes reloaded", zap.String("module", path), zap.String("entry", entry), zap.Int64("version", version))
}

// drain destroys every idle runtime in p and returns how many it released
// along with the close errors.
func (c *Connector) drain(p *runtimePool) (int, error) {
	var (
		n   int
		err error
	)
	for {
		select {
		case w := <-p.idle:
			err = multierr.Append(err, c.bridge.destroy(w.cap))
			n++
		default:
			return n, err
		}
	}
}

// Idle returns the number of idle runtimes kept for path and entry.
func (c *Connector) Idle(path, entry string) int {
	c.mu.Lock()
	p, ok := c.pools[poolKey{Path: path, Entry: entry}]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return len(p.idle)
}

// ReleaseAll destroys every idle runtime of every entry point and forgets
// the pools. Runtimes in use are destroyed when their call returns.
func (c *Connector) ReleaseAll() error {
	c.mu.Lock()
	pools := c.pools
	c.pools = make(map[poolKey]*runtimePool)
	c.mu.Unlock()

	var err error
	for key, p := range pools {
		// Anything still checked out sees a newer version on put.
		p.bump(p.currentVersion() + 1)
		n, derr := c.drain(p)
		if n > 0 {
			c.log.Debug("released runtimes", zap.String("module", key.Path), zap.String("entry", key.Entry), zap.Int("count", n))
		}
		err = multierr.Append(err, derr)
	}
	return err
}
