// Package gojaengine runs scripts on goja, a JavaScript interpreter
// written in Go.
package gojaengine

import (
	"fmt"
	"reflect"

	"github.com/dop251/goja"
	"github.com/scriptable/jsbridge/internal/core"
)

// gojaRuntime implements core.JSRuntime on a goja.Runtime. goja drains
// its job queue at the end of every top-level run, so RunMicrotasks has
// nothing left to do.
type gojaRuntime struct {
	vm *goja.Runtime
}

var _ core.JSRuntime = (*gojaRuntime)(nil)

// New allocates a goja runtime. goja has no heap accounting, so the
// memory limit is ignored.
func New(int) (core.JSRuntime, error) {
	return &gojaRuntime{vm: goja.New()}, nil
}

func (r *gojaRuntime) Eval(js string) error {
	_, err := r.vm.RunString(js)
	return err
}

func (r *gojaRuntime) EvalString(js string) (string, error) {
	v, err := r.vm.RunString(js)
	if err != nil {
		return "", err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", nil
	}
	return v.String(), nil
}

func (r *gojaRuntime) EvalBool(js string) (bool, error) {
	v, err := r.vm.RunString(js)
	if err != nil {
		return false, err
	}
	b, ok := v.Export().(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v.Export())
	}
	return b, nil
}

func (r *gojaRuntime) EvalInt(js string) (int, error) {
	v, err := r.vm.RunString(js)
	if err != nil {
		return 0, err
	}
	switch n := v.Export().(type) {
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected int, got %T", v.Export())
	}
}

// RegisterFunc exposes fn under name. Arguments are coerced to the Go
// parameter types; a non-nil trailing error throws a TypeError.
func (r *gojaRuntime) RegisterFunc(name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("RegisterFunc: expected function, got %T", fn)
	}

	return r.vm.Set(name, func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < fnType.NumIn() {
			panic(r.vm.NewTypeError("%s requires at least %d argument(s), got %d", name, fnType.NumIn(), len(call.Arguments)))
		}
		in := make([]reflect.Value, fnType.NumIn())
		for i := range in {
			in[i] = argument(call.Argument(i), fnType.In(i))
		}
		out := fnVal.Call(in)

		switch len(out) {
		case 0:
			return goja.Undefined()
		case 1:
			return r.vm.ToValue(out[0].Interface())
		default:
			if errV := out[len(out)-1]; !errV.IsNil() {
				panic(r.vm.NewTypeError("calling %s: %s", name, errV.Interface().(error).Error()))
			}
			return r.vm.ToValue(out[0].Interface())
		}
	})
}

func argument(v goja.Value, t reflect.Type) reflect.Value {
	switch t.Kind() {
	case reflect.String:
		if goja.IsUndefined(v) || goja.IsNull(v) {
			return reflect.ValueOf("").Convert(t)
		}
		return reflect.ValueOf(v.String()).Convert(t)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(v.ToInteger()).Convert(t)
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(v.ToFloat()).Convert(t)
	case reflect.Bool:
		return reflect.ValueOf(v.ToBoolean()).Convert(t)
	}
	return reflect.Zero(t)
}

func (r *gojaRuntime) SetGlobal(name string, value any) error {
	return r.vm.Set(name, value)
}

func (r *gojaRuntime) RunMicrotasks() {}

// Close interrupts the runtime so later evaluations fail; goja memory is
// reclaimed by the Go collector.
func (r *gojaRuntime) Close() error {
	r.vm.Interrupt(core.ErrClosed)
	return nil
}
