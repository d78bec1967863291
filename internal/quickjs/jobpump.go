package quickjs

import (
	"reflect"
	"unsafe"

	"modernc.org/libc"
	lib "modernc.org/libquickjs"
	"modernc.org/quickjs"
)

// maxJobsPerPump bounds one drain of the job queue so a promise chain that
// keeps re-queueing itself cannot hang the caller.
const maxJobsPerPump = 1 << 20

// jobQueue drains the QuickJS pending-job queue. The Go wrapper never
// calls JS_ExecutePendingJob itself, so promise reactions only run when
// the queue is pumped through the C API.
type jobQueue struct {
	rt  uintptr
	tls *libc.TLS
}

// newJobQueue locates the C runtime behind vm. It returns nil when the
// wrapper layout is not the one expected, in which case promises never
// settle and async entries fail instead of hanging.
func newJobQueue(vm *quickjs.VM) *jobQueue {
	rt, tls, ok := runtimeInternals(vm)
	if !ok {
		return nil
	}
	return &jobQueue{rt: rt, tls: tls}
}

// drain runs pending jobs until the queue is empty or a job fails and
// returns how many ran.
func (q *jobQueue) drain() int {
	if q == nil {
		return 0
	}
	n := 0
	for n < maxJobsPerPump {
		if lib.XJS_ExecutePendingJob(q.tls, q.rt, 0) <= 0 {
			break
		}
		n++
	}
	return n
}

// runtimeInternals reads the unexported runtime pointer of a VM.
//
// modernc.org/quickjs@v0.17.1 layout:
//
//	type VM struct {
//	    cContext uintptr
//	    ...
//	    runtime  *runtime
//	}
//
//	type runtime struct {
//	    cRuntime uintptr
//	    tls      *libc.TLS
//	}
func runtimeInternals(vm *quickjs.VM) (cRuntime uintptr, tls *libc.TLS, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	field := reflect.ValueOf(vm).Elem().FieldByName("runtime")
	if !field.IsValid() || field.Kind() != reflect.Pointer || field.IsNil() {
		return 0, nil, false
	}
	inner := reflect.NewAt(field.Type().Elem(), unsafe.Pointer(field.Pointer())).Elem()

	crt := inner.FieldByName("cRuntime")
	t := inner.FieldByName("tls")
	if !crt.IsValid() || !t.IsValid() || t.IsNil() {
		return 0, nil, false
	}
	return uintptr(crt.Uint()), (*libc.TLS)(unsafe.Pointer(t.Pointer())), true
}
