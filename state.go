package interpose

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// hooksEnabled is the process-wide dispatch switch. Default on.
var hooksEnabled atomic.Bool

func init() {
	hooksEnabled.Store(true)
}

// EnableHooks turns chain dispatch on for every symbol and every goroutine.
// Idempotent; takes effect at the next dispatch check.
func EnableHooks() {
	hooksEnabled.Store(true)
}

// DisableHooks routes every intercepted call straight to its original.
// Idempotent; takes effect at the next dispatch check.
func DisableHooks() {
	hooksEnabled.Store(false)
}

// HooksEnabled reports the process-wide switch.
func HooksEnabled() bool {
	return hooksEnabled.Load()
}

// bypassDepths tracks per-goroutine bypass nesting. An entry exists only
// while its goroutine is inside at least one Bypass scope, so the map stays
// small and lookups on the dispatch path usually miss immediately.
var bypassDepths sync.Map // goroutine id -> int

// bypassScopes counts live Bypass scopes process-wide, so the dispatch path
// skips the goroutine-id lookup entirely while nothing is bypassing.
var bypassScopes atomic.Int64

// Bypass runs body with chain dispatch suppressed for the calling goroutine:
// every intercepted call it makes routes directly to the original. Other
// goroutines are unaffected. Scopes nest, and the depth is restored on every
// exit path, including a panic out of body.
func Bypass[T any](body func() T) T {
	id := goroutineID()
	depth := 0
	if v, ok := bypassDepths.Load(id); ok {
		depth = v.(int)
	}
	bypassDepths.Store(id, depth+1)
	bypassScopes.Add(1)
	defer func() {
		bypassScopes.Add(-1)
		if depth == 0 {
			bypassDepths.Delete(id)
		} else {
			bypassDepths.Store(id, depth)
		}
	}()
	return body()
}

// bypassed reports whether the calling goroutine is inside a Bypass scope.
func bypassed() bool {
	if bypassScopes.Load() == 0 {
		return false
	}
	v, ok := bypassDepths.Load(goroutineID())
	return ok && v.(int) > 0
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine's id from its stack header, the
// same trick net/http2 uses for its request tracking. The id is never
// reused within a process, so stale map entries cannot alias a live scope.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, goroutinePrefix)
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		end = len(buf)
	}
	id, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		panic("interpose: cannot parse goroutine id: " + err.Error())
	}
	return id
}
