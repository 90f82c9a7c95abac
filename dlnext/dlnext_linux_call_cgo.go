//go:build linux && cgo && (386 || amd64 || arm64)

package dlnext

/*
#include <stdint.h>

typedef uintptr_t (*interpose_fn0)(void);
typedef uintptr_t (*interpose_fn1)(uintptr_t);
typedef uintptr_t (*interpose_fn2)(uintptr_t, uintptr_t);
typedef uintptr_t (*interpose_fn3)(uintptr_t, uintptr_t, uintptr_t);
typedef uintptr_t (*interpose_fn4)(uintptr_t, uintptr_t, uintptr_t, uintptr_t);
typedef uintptr_t (*interpose_fn5)(uintptr_t, uintptr_t, uintptr_t, uintptr_t, uintptr_t);
typedef uintptr_t (*interpose_fn6)(uintptr_t, uintptr_t, uintptr_t, uintptr_t, uintptr_t, uintptr_t);

static uintptr_t interpose_call0(uintptr_t fn) {
	return ((interpose_fn0)fn)();
}

static uintptr_t interpose_call1(uintptr_t fn, uintptr_t a0) {
	return ((interpose_fn1)fn)(a0);
}

static uintptr_t interpose_call2(uintptr_t fn, uintptr_t a0, uintptr_t a1) {
	return ((interpose_fn2)fn)(a0, a1);
}

static uintptr_t interpose_call3(uintptr_t fn, uintptr_t a0, uintptr_t a1, uintptr_t a2) {
	return ((interpose_fn3)fn)(a0, a1, a2);
}

static uintptr_t interpose_call4(uintptr_t fn, uintptr_t a0, uintptr_t a1, uintptr_t a2, uintptr_t a3) {
	return ((interpose_fn4)fn)(a0, a1, a2, a3);
}

static uintptr_t interpose_call5(uintptr_t fn, uintptr_t a0, uintptr_t a1, uintptr_t a2, uintptr_t a3, uintptr_t a4) {
	return ((interpose_fn5)fn)(a0, a1, a2, a3, a4);
}

static uintptr_t interpose_call6(uintptr_t fn, uintptr_t a0, uintptr_t a1, uintptr_t a2, uintptr_t a3, uintptr_t a4, uintptr_t a5) {
	return ((interpose_fn6)fn)(a0, a1, a2, a3, a4, a5);
}
*/
import "C"

func cCall0(fn uintptr) uintptr {
	return uintptr(C.interpose_call0(C.uintptr_t(fn)))
}

func cCall1(fn, a0 uintptr) uintptr {
	return uintptr(C.interpose_call1(C.uintptr_t(fn), C.uintptr_t(a0)))
}

func cCall2(fn, a0, a1 uintptr) uintptr {
	return uintptr(C.interpose_call2(C.uintptr_t(fn), C.uintptr_t(a0), C.uintptr_t(a1)))
}

func cCall3(fn, a0, a1, a2 uintptr) uintptr {
	return uintptr(C.interpose_call3(C.uintptr_t(fn), C.uintptr_t(a0), C.uintptr_t(a1), C.uintptr_t(a2)))
}

func cCall4(fn, a0, a1, a2, a3 uintptr) uintptr {
	return uintptr(C.interpose_call4(C.uintptr_t(fn), C.uintptr_t(a0), C.uintptr_t(a1), C.uintptr_t(a2), C.uintptr_t(a3)))
}

func cCall5(fn, a0, a1, a2, a3, a4 uintptr) uintptr {
	return uintptr(C.interpose_call5(C.uintptr_t(fn), C.uintptr_t(a0), C.uintptr_t(a1), C.uintptr_t(a2), C.uintptr_t(a3), C.uintptr_t(a4)))
}

func cCall6(fn, a0, a1, a2, a3, a4, a5 uintptr) uintptr {
	return uintptr(C.interpose_call6(C.uintptr_t(fn), C.uintptr_t(a0), C.uintptr_t(a1), C.uintptr_t(a2), C.uintptr_t(a3), C.uintptr_t(a4), C.uintptr_t(a5)))
}
