//go:build !(linux && cgo && (386 || amd64 || arm64)) && !(darwin && cgo && (amd64 || arm64))

package dlnext

import "errors"

var errUnsupported = errors.New(
	"dlnext requires cgo on linux (386/amd64/arm64) or darwin (amd64/arm64)")

func Lookup(symbol string) (uintptr, error) {
	_ = symbol
	return 0, errUnsupported
}

func Call(fn uintptr, args ...uintptr) uintptr {
	_ = fn
	_ = args
	panic(errUnsupported)
}
