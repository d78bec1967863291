// Package codec converts between Go host values and the tagged values
// exchanged with script code.
package codec

import (
	"fmt"
	"reflect"

	"github.com/scriptable/jsbridge/internal/core"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// MaxDepth bounds list nesting in both directions.
const MaxDepth = 100

const depthMessage = "too many nested arrays, circular ref?"

// Codec converts values in both directions. The zero value is usable and
// discards diagnostics.
type Codec struct {
	log *zap.Logger
}

// New returns a Codec logging depth violations to log.
func New(log *zap.Logger) *Codec {
	if log == nil {
		log = zap.NewNop()
	}
	return &Codec{log: log}
}

func (c *Codec) logger() *zap.Logger {
	if c == nil || c.log == nil {
		return zap.NewNop()
	}
	return c.log
}

// ToScriptList converts host arguments into script values.
func (c *Codec) ToScriptList(args []any) []core.Value {
	out := make([]core.Value, len(args))
	for i, a := range args {
		out[i] = c.ToScript(a, 0)
	}
	return out
}

// ToScript converts a single host value found at the given nesting depth.
// Numbers become floats, strings stay strings, slices and arrays recurse
// and anything else is converted to its string form.
func (c *Codec) ToScript(v any, depth int) core.Value {
	switch x := v.(type) {
	case nil:
		return core.Null()
	case string:
		return core.String(x)
	case float64:
		return core.Float(x)
	case int:
		return core.Float(float64(x))
	case []byte:
		return core.String(stringify(x))
	case []any:
		if x == nil {
			return core.Null()
		}
		return c.listToScript(reflect.ValueOf(x), depth)
	case core.Value:
		return c.valueToScript(x, depth)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return core.Float(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return core.Float(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return core.Float(rv.Float())
	case reflect.String:
		return core.String(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return core.Null()
		}
		return c.listToScript(rv, depth)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return core.Null()
		}
	}
	return core.String(stringify(v))
}

func (c *Codec) listToScript(rv reflect.Value, depth int) core.Value {
	n := rv.Len()
	elems := make([]core.Value, n)
	for i := 0; i < n; i++ {
		ev := rv.Index(i).Interface()
		if isList(ev) && depth >= MaxDepth {
			c.logger().Warn(depthMessage, zap.String("direction", "host-to-script"), zap.Int("depth", depth))
			continue
		}
		elems[i] = c.ToScript(ev, depth+1)
	}
	return core.List(elems...)
}

// valueToScript rebuilds an already tagged list under the same depth bound
// as host slices.
func (c *Codec) valueToScript(v core.Value, depth int) core.Value {
	if v.Kind != core.KindList {
		return v
	}
	elems := make([]core.Value, len(v.List))
	for i, e := range v.List {
		if e.Kind == core.KindList && depth >= MaxDepth {
			c.logger().Warn(depthMessage, zap.String("direction", "host-to-script"), zap.Int("depth", depth))
			continue
		}
		elems[i] = c.valueToScript(e, depth+1)
	}
	return core.List(elems...)
}

func isList(v any) bool {
	switch x := v.(type) {
	case nil, []byte, string:
		return false
	case []any:
		return true
	case core.Value:
		return x.Kind == core.KindList
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// stringify is the catch-all conversion used for values without a
// script-side counterpart.
func stringify(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

// ToHostList converts script values into host values.
func (c *Codec) ToHostList(vs []core.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = c.ToHost(v, 0)
	}
	return out
}

// ToHost converts a script value found at the given nesting depth.
// Integers and booleans become int, floats float64, null nil and lists
// []any.
func (c *Codec) ToHost(v core.Value, depth int) any {
	switch v.Kind {
	case core.KindNull:
		return nil
	case core.KindInt:
		return int(v.Int)
	case core.KindBool:
		if v.Bool {
			return 1
		}
		return 0
	case core.KindFloat:
		return v.Float
	case core.KindString:
		return v.Str
	case core.KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			if e.Kind == core.KindList && depth >= MaxDepth {
				c.logger().Warn(depthMessage, zap.String("direction", "script-to-host"), zap.Int("depth", depth))
				continue
			}
			out[i] = c.ToHost(e, depth+1)
		}
		return out
	}
	return v.String()
}
