//go:build v8

// Package v8engine runs scripts on V8 through v8go. It is only built with
// the v8 tag because it links the prebuilt V8 static libraries.
package v8engine

import (
	"fmt"
	"reflect"

	"github.com/scriptable/jsbridge/internal/core"
	v8 "github.com/tommie/v8go"
)

// v8Runtime implements core.JSRuntime with one isolate and one context.
type v8Runtime struct {
	iso    *v8.Isolate
	ctx    *v8.Context
	closed bool
}

var _ core.JSRuntime = (*v8Runtime)(nil)

// New allocates an isolate and a context bound to it. A positive
// memoryLimitMB sets the isolate's heap constraints.
func New(memoryLimitMB int) (core.JSRuntime, error) {
	var iso *v8.Isolate
	if memoryLimitMB > 0 {
		heapSize := uint64(memoryLimitMB) * 1024 * 1024
		iso = v8.NewIsolate(v8.WithResourceConstraints(heapSize/2, heapSize))
	} else {
		iso = v8.NewIsolate()
	}
	if iso == nil {
		return nil, fmt.Errorf("%w: creating V8 isolate", core.ErrRuntimeAlloc)
	}
	ctx := v8.NewContext(iso)
	if ctx == nil {
		iso.Dispose()
		return nil, fmt.Errorf("%w: creating V8 context", core.ErrRuntimeAlloc)
	}
	return &v8Runtime{iso: iso, ctx: ctx}, nil
}

func (r *v8Runtime) Eval(js string) error {
	_, err := r.ctx.RunScript(js, "eval.js")
	return err
}

func (r *v8Runtime) EvalString(js string) (string, error) {
	val, err := r.ctx.RunScript(js, "eval_string.js")
	if err != nil {
		return "", err
	}
	if val == nil || val.IsNullOrUndefined() {
		return "", nil
	}
	return val.String(), nil
}

func (r *v8Runtime) EvalBool(js string) (bool, error) {
	val, err := r.ctx.RunScript(js, "eval_bool.js")
	if err != nil {
		return false, err
	}
	if val == nil || !val.IsBoolean() {
		return false, fmt.Errorf("expected bool")
	}
	return val.Boolean(), nil
}

func (r *v8Runtime) EvalInt(js string) (int, error) {
	val, err := r.ctx.RunScript(js, "eval_int.js")
	if err != nil {
		return 0, err
	}
	if val == nil || !val.IsNumber() {
		return 0, fmt.Errorf("expected int")
	}
	return int(val.Integer()), nil
}

// RegisterFunc builds a FunctionTemplate that coerces JS arguments to the
// Go parameter types. A (T, error) function throws a TypeError on error.
func (r *v8Runtime) RegisterFunc(name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("RegisterFunc: expected function, got %T", fn)
	}

	tmpl := v8.NewFunctionTemplate(r.iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()
		if len(args) < fnType.NumIn() {
			return r.throwTypeError(fmt.Sprintf("%s requires at least %d argument(s), got %d", name, fnType.NumIn(), len(args)))
		}
		in := make([]reflect.Value, fnType.NumIn())
		for i := range in {
			in[i] = argument(args[i], fnType.In(i))
		}
		out := fnVal.Call(in)

		switch len(out) {
		case 0:
			return nil
		case 1:
			return r.value(out[0].Interface())
		default:
			if errV := out[len(out)-1]; !errV.IsNil() {
				return r.throwTypeError(fmt.Sprintf("calling %s: %s", name, errV.Interface().(error).Error()))
			}
			return r.value(out[0].Interface())
		}
	})
	return r.ctx.Global().Set(name, tmpl.GetFunction(r.ctx))
}

func (r *v8Runtime) throwTypeError(msg string) *v8.Value {
	errCtor, err := r.ctx.Global().Get("TypeError")
	if err == nil {
		if ctor, err := errCtor.AsFunction(); err == nil {
			m, _ := v8.NewValue(r.iso, msg)
			if obj, err := ctor.NewInstance(m); err == nil {
				return r.iso.ThrowException(obj.Value)
			}
		}
	}
	m, _ := v8.NewValue(r.iso, msg)
	return r.iso.ThrowException(m)
}

func argument(val *v8.Value, t reflect.Type) reflect.Value {
	switch t.Kind() {
	case reflect.String:
		if val.IsNullOrUndefined() {
			return reflect.ValueOf("").Convert(t)
		}
		return reflect.ValueOf(val.String()).Convert(t)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(val.Integer()).Convert(t)
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(val.Number()).Convert(t)
	case reflect.Bool:
		return reflect.ValueOf(val.Boolean()).Convert(t)
	}
	return reflect.Zero(t)
}

// value converts basic Go values; anything else becomes undefined.
func (r *v8Runtime) value(v any) *v8.Value {
	var (
		out *v8.Value
		err error
	)
	switch x := v.(type) {
	case nil:
		return v8.Undefined(r.iso)
	case string:
		out, err = v8.NewValue(r.iso, x)
	case int:
		out, err = v8.NewValue(r.iso, float64(x))
	case int64:
		out, err = v8.NewValue(r.iso, float64(x))
	case float64:
		out, err = v8.NewValue(r.iso, x)
	case bool:
		out, err = v8.NewValue(r.iso, x)
	default:
		return v8.Undefined(r.iso)
	}
	if err != nil {
		return v8.Undefined(r.iso)
	}
	return out
}

func (r *v8Runtime) SetGlobal(name string, value any) error {
	return r.ctx.Global().Set(name, r.value(value))
}

// RunMicrotasks pumps the V8 microtask queue.
func (r *v8Runtime) RunMicrotasks() {
	r.ctx.PerformMicrotaskCheckpoint()
}

// Close releases the context and then the isolate that owns it.
func (r *v8Runtime) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.ctx.Close()
	r.iso.Dispose()
	return nil
}
