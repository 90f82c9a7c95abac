//go:build darwin && cgo && (amd64 || arm64)

package dlnext

/*
#include <stdint.h>
#include <stdlib.h>
#include <dlfcn.h>

typedef uintptr_t (*interpose_fn6_t)(
	uintptr_t, uintptr_t, uintptr_t, uintptr_t, uintptr_t, uintptr_t
);

static uintptr_t interpose_call6(
	uintptr_t fn,
	uintptr_t a0, uintptr_t a1, uintptr_t a2, uintptr_t a3, uintptr_t a4, uintptr_t a5
) {
	return ((interpose_fn6_t)fn)(a0, a1, a2, a3, a4, a5);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

// Lookup returns the address of the next definition of symbol in load order.
// dyld underscore-prefixes C symbols internally; dlsym takes the plain name.
func Lookup(symbol string) (uintptr, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return 0, errors.New("symbol name cannot be empty")
	}

	cName := C.CString(symbol)
	defer C.free(unsafe.Pointer(cName))

	// clear stale dlerror
	_ = C.dlerror()
	addr := C.dlsym(C.RTLD_NEXT, cName)
	if msg := C.dlerror(); msg != nil {
		return 0, fmt.Errorf("dlsym(RTLD_NEXT, %s): %s", symbol, C.GoString(msg))
	}
	if addr == nil {
		return 0, fmt.Errorf("dlsym(RTLD_NEXT, %s): no next definition", symbol)
	}
	return uintptr(addr), nil
}

// Call invokes a native function pointer with up to MaxArgs word arguments.
// Unused registers are zeroed; the callee reads only its declared arguments.
func Call(fn uintptr, args ...uintptr) uintptr {
	if fn == 0 {
		panic("dlnext: call through nil function pointer")
	}
	if len(args) > MaxArgs {
		panic(fmt.Sprintf("dlnext: %d arguments exceeds MaxArgs=%d", len(args), MaxArgs))
	}
	var a [MaxArgs]uintptr
	copy(a[:], args)
	return uintptr(C.interpose_call6(
		C.uintptr_t(fn),
		C.uintptr_t(a[0]),
		C.uintptr_t(a[1]),
		C.uintptr_t(a[2]),
		C.uintptr_t(a[3]),
		C.uintptr_t(a[4]),
		C.uintptr_t(a[5]),
	))
}
