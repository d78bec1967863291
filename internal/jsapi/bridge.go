package jsapi

import (
	"encoding/json"
	"fmt"

	"github.com/scriptable/jsbridge/internal/core"
)

// BridgeGlobal is the global holding the bridge object used by Go to
// drive calls into the runtime.
const BridgeGlobal = "__bridge"

// InputGlobal receives the encoded argument list before each invocation.
const InputGlobal = "__bridge_in"

// HostHandler receives the encoded arguments of a script-to-host call and
// returns an encoded reply: {"values":[...]} or {"error":"message"}.
type HostHandler func(payload string) (string, error)

// DiagHandler receives diagnostics raised by the script-side codec.
type DiagHandler func(msg string)

// SetupBridge installs the value codec, the bridge object and the host
// callback global named callbackName.
func SetupBridge(rt core.JSRuntime, callbackName string, host HostHandler, diag DiagHandler) error {
	if err := rt.RegisterFunc("__bridge_host", func(payload string) (string, error) {
		return host(payload)
	}); err != nil {
		return fmt.Errorf("registering host callback: %w", err)
	}
	if err := rt.RegisterFunc("__bridge_diag", func(msg string) {
		if diag != nil {
			diag(msg)
		}
	}); err != nil {
		return fmt.Errorf("registering diagnostics: %w", err)
	}
	name, err := json.Marshal(callbackName)
	if err != nil {
		return err
	}
	return rt.Eval(fmt.Sprintf(bridgeJS, name))
}

// bridgeJS is the script half of the value codec plus the call protocol.
// Values travel as null or [tag, payload] with tags i, f, b, s and a.
const bridgeJS = `
(function(callbackName) {
	var MAX_DEPTH = 100;
	var host = globalThis.__bridge_host;
	var diag = globalThis.__bridge_diag;
	delete globalThis.__bridge_host;
	delete globalThis.__bridge_diag;

	function isNegZero(v) { return v === 0 && 1 / v < 0; }

	function encodeFloat(v) {
		if (v !== v) return 'NaN';
		if (v === Infinity) return 'Infinity';
		if (v === -Infinity) return '-Infinity';
		if (isNegZero(v)) return '-0';
		return v;
	}

	function encode(v, depth) {
		if (v === null || v === undefined) return null;
		switch (typeof v) {
		case 'number':
			return ((v | 0) === v && !isNegZero(v)) ? ['i', v] : ['f', encodeFloat(v)];
		case 'boolean':
			return ['b', v];
		case 'string':
			return ['s', v];
		}
		if (Array.isArray(v)) {
			var out = new Array(v.length);
			for (var i = 0; i < v.length; i++) {
				var e = v[i];
				if (Array.isArray(e) && depth >= MAX_DEPTH) {
					diag('too many nested arrays, circular ref?');
					out[i] = null;
					continue;
				}
				out[i] = encode(e, depth + 1);
			}
			return ['a', out];
		}
		var s;
		try {
			s = String(v);
		} catch (err) {
			s = '';
		}
		return ['s', s];
	}

	function encodeArgs(list) {
		var out = new Array(list.length);
		for (var i = 0; i < list.length; i++) out[i] = encode(list[i], 0);
		return out;
	}

	function decode(w) {
		if (w === null || w === undefined) return null;
		switch (w[0]) {
		case 'i':
		case 'b':
		case 's':
			return w[1];
		case 'f':
			return typeof w[1] === 'string' ? (w[1] === '-0' ? -0 : Number(w[1])) : w[1];
		case 'a':
			return decodeArgs(w[1]);
		}
		return null;
	}

	function decodeArgs(list) {
		var out = new Array(list.length);
		for (var i = 0; i < list.length; i++) out[i] = decode(list[i]);
		return out;
	}

	var entry = null;
	var pending = null;
	var lastException = [];

	function capture(e) {
		var rec = [];
		try {
			rec.push(String(e));
		} catch (err) {
			rec.push('');
		}
		try {
			if (e !== null && (typeof e === 'object' || typeof e === 'function') &&
					e.stack !== undefined && e.stack !== null) {
				rec.push(String(e.stack));
			}
		} catch (err) {}
		lastException = rec;
		return rec;
	}

	function failure(e) {
		return JSON.stringify({ ok: false, exception: capture(e) });
	}

	function success(v) {
		if (v === undefined || v === null) return JSON.stringify({ ok: true, status: 0, values: [] });
		if (Array.isArray(v)) return JSON.stringify({ ok: true, status: 0, values: encodeArgs(v) });
		var w = encode(v, 0);
		return JSON.stringify({ ok: true, status: w[0] === 'i' ? v : 0, values: [w] });
	}

	globalThis[callbackName] = function() {
		var reply = JSON.parse(host(JSON.stringify(encodeArgs(arguments))));
		if (reply.error !== undefined) throw new Error(reply.error);
		return decodeArgs(reply.values || []);
	};

	globalThis.__bridge = {
		bind: function(name) {
			var f = globalThis[name];
			if (typeof f !== 'function') return false;
			entry = f;
			return true;
		},
		release: function() {
			entry = null;
			pending = null;
		},
		invoke: function() {
			var args = decodeArgs(JSON.parse(globalThis.__bridge_in));
			delete globalThis.__bridge_in;
			lastException = [];
			pending = null;
			var v;
			try {
				v = entry.apply(globalThis, args);
			} catch (e) {
				return failure(e);
			}
			if (v !== null && typeof v === 'object' && typeof v.then === 'function') {
				var p = pending = { done: false };
				v.then(function(x) {
					p.done = true;
					p.value = x;
				}, function(e) {
					p.done = true;
					p.failed = true;
					p.error = e;
				});
				return JSON.stringify({ pending: true });
			}
			try {
				return success(v);
			} catch (e) {
				return failure(e);
			}
		},
		settle: function() {
			var p = pending;
			pending = null;
			if (p === null || !p.done) return failure(new Error('promise returned by entry function did not settle'));
			if (p.failed) return failure(p.error);
			try {
				return success(p.value);
			} catch (e) {
				return failure(e);
			}
		},
		evaluate: function(fn) {
			try {
				fn();
				return '';
			} catch (e) {
				return JSON.stringify(capture(e));
			}
		},
		lastException: function() {
			return JSON.stringify(lastException);
		}
	};
})(%s);
`

// Reply is the decoded outcome of __bridge.invoke or __bridge.settle.
type Reply struct {
	OK        bool         `json:"ok"`
	Pending   bool         `json:"pending"`
	Status    int          `json:"status"`
	Values    []core.Value `json:"values"`
	Exception []string     `json:"exception"`
}

// ParseReply decodes a reply produced by the bridge object.
func ParseReply(s string) (Reply, error) {
	var r Reply
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Reply{}, fmt.Errorf("decoding bridge reply: %w", err)
	}
	return r, nil
}

// ParseException decodes an exception record returned by evaluate or
// lastException. An empty string means no exception.
func ParseException(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var rec []string
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return nil, fmt.Errorf("decoding exception record: %w", err)
	}
	return rec, nil
}

// HostReply encodes the values returned by a host callback.
func HostReply(values []core.Value) (string, error) {
	if values == nil {
		values = []core.Value{}
	}
	b, err := json.Marshal(struct {
		Values []core.Value `json:"values"`
	}{values})
	return string(b), err
}

// HostErrorReply encodes a host error that the callback rethrows as an
// Error with the given message.
func HostErrorReply(msg string) (string, error) {
	b, err := json.Marshal(struct {
		Error string `json:"error"`
	}{msg})
	return string(b), err
}
