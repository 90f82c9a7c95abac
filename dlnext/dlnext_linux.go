//go:build linux && cgo && (386 || amd64 || arm64)

package dlnext

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"unsafe"
)

// RTLD_NEXT per glibc and musl: ((void *) -1).
const rtldNext = ^uintptr(0)

type linuxDynAPI struct {
	dlsym   uintptr
	dlerror uintptr
}

var (
	linuxAPIOnce sync.Once
	linuxAPI     linuxDynAPI
	linuxAPIErr  error
)

// Lookup returns the address of the next definition of symbol in load order,
// the dlsym(RTLD_NEXT) view as seen from this library.
func Lookup(symbol string) (uintptr, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return 0, errors.New("symbol name cannot be empty")
	}

	api, err := getLinuxDynAPI()
	if err != nil {
		return 0, err
	}

	cName, err := cStringBytes(symbol)
	if err != nil {
		return 0, err
	}

	// clear stale dlerror
	_ = cCall0(api.dlerror)
	addr := cCall2(api.dlsym, rtldNext, cStringPtr(cName))
	runtime.KeepAlive(cName)
	if err := lastDLError(api); err != nil {
		return 0, fmt.Errorf("dlsym(RTLD_NEXT, %s): %w", symbol, err)
	}
	if addr == 0 {
		return 0, fmt.Errorf("dlsym(RTLD_NEXT, %s): no next definition", symbol)
	}
	return addr, nil
}

// Call invokes a native function pointer with up to MaxArgs word arguments.
func Call(fn uintptr, args ...uintptr) uintptr {
	if fn == 0 {
		panic("dlnext: call through nil function pointer")
	}
	switch len(args) {
	case 0:
		return cCall0(fn)
	case 1:
		return cCall1(fn, args[0])
	case 2:
		return cCall2(fn, args[0], args[1])
	case 3:
		return cCall3(fn, args[0], args[1], args[2])
	case 4:
		return cCall4(fn, args[0], args[1], args[2], args[3])
	case 5:
		return cCall5(fn, args[0], args[1], args[2], args[3], args[4])
	case 6:
		return cCall6(fn, args[0], args[1], args[2], args[3], args[4], args[5])
	default:
		panic(fmt.Sprintf("dlnext: %d arguments exceeds MaxArgs=%d", len(args), MaxArgs))
	}
}

func cStringBytes(s string) ([]byte, error) {
	if strings.ContainsRune(s, '\x00') {
		return nil, errors.New("string contains NUL")
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b, nil
}

func cStringPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func cStringFromPtr(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	const maxLen = 1 << 20
	buf := make([]byte, 0, 64)
	for i := 0; i < maxLen; i++ {
		ch := *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
		if ch == 0 {
			return string(buf)
		}
		buf = append(buf, ch)
	}
	return string(buf)
}

func lastDLError(api *linuxDynAPI) error {
	msg := cStringFromPtr(cCall0(api.dlerror))
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

// getLinuxDynAPI resolves dlsym and dlerror once per process. The addresses
// come from the libc mapping directly rather than from link-time references,
// so the lookup path keeps working even when the instrumented program
// interposes the dlfcn entry points themselves.
func getLinuxDynAPI() (*linuxDynAPI, error) {
	linuxAPIOnce.Do(func() {
		linuxAPIErr = initLinuxDynAPI()
	})
	if linuxAPIErr != nil {
		return nil, linuxAPIErr
	}
	return &linuxAPI, nil
}

func initLinuxDynAPI() error {
	libcPath, baseAddr, err := findRuntimeLibc()
	if err != nil {
		return err
	}

	dlsymOff, err := findELFSymbolOffset(libcPath, "dlsym")
	if err != nil {
		return fmt.Errorf("resolve libc symbol dlsym: %w", err)
	}
	dlerrorOff, err := findELFSymbolOffset(libcPath, "dlerror")
	if err != nil {
		return fmt.Errorf("resolve libc symbol dlerror: %w", err)
	}

	linuxAPI = linuxDynAPI{
		dlsym:   baseAddr + dlsymOff,
		dlerror: baseAddr + dlerrorOff,
	}
	return nil
}

type procMapEntry struct {
	start  uintptr
	offset uintptr
	perms  string
	path   string
}

func findRuntimeLibc() (string, uintptr, error) {
	entries, err := readProcMaps()
	if err != nil {
		return "", 0, err
	}

	bestScore := -1
	var best procMapEntry
	for _, entry := range entries {
		score := libcPathScore(entry.path)
		if score > bestScore {
			bestScore = score
			best = entry
		}
	}
	if bestScore < 0 || best.path == "" {
		return "", 0, errors.New("failed to locate runtime libc mapping")
	}
	if best.start < best.offset {
		return "", 0, fmt.Errorf("invalid libc mapping base for %s", best.path)
	}
	return best.path, best.start - best.offset, nil
}

func libcPathScore(path string) int {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "libc.so"):
		return 100
	case strings.Contains(p, "libc-"):
		return 95
	case strings.Contains(p, "ld-musl"):
		return 90
	case strings.Contains(p, "musl"):
		return 85
	case strings.Contains(p, "ld-linux"):
		return 80
	default:
		return -1
	}
}

func readProcMaps() ([]procMapEntry, error) {
	raw, err := os.ReadFile("/proc/self/maps")
	if err != nil {
		return nil, fmt.Errorf("read /proc/self/maps: %w", err)
	}

	lines := strings.Split(string(raw), "\n")
	entries := make([]procMapEntry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		if !strings.Contains(fields[1], "x") {
			continue
		}

		rangeParts := strings.SplitN(fields[0], "-", 2)
		if len(rangeParts) != 2 {
			continue
		}
		start, startErr := parseHexUintptr(rangeParts[0])
		offset, offsetErr := parseHexUintptr(fields[2])
		if startErr != nil || offsetErr != nil {
			continue
		}

		path := ""
		if len(fields) >= 6 {
			path = strings.Join(fields[5:], " ")
			path = strings.TrimSuffix(path, " (deleted)")
		}
		if path == "" || !strings.HasPrefix(path, "/") {
			continue
		}

		entries = append(entries, procMapEntry{
			start:  start,
			offset: offset,
			perms:  fields[1],
			path:   path,
		})
	}
	return entries, nil
}

func parseHexUintptr(s string) (uintptr, error) {
	var out uintptr
	for _, r := range s {
		out <<= 4
		switch {
		case r >= '0' && r <= '9':
			out += uintptr(r - '0')
		case r >= 'a' && r <= 'f':
			out += uintptr(r-'a') + 10
		case r >= 'A' && r <= 'F':
			out += uintptr(r-'A') + 10
		default:
			return 0, fmt.Errorf("invalid hex string %q", s)
		}
	}
	return out, nil
}

func findELFSymbolOffset(path string, symbol string) (uintptr, error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open elf %s: %w", path, err)
	}
	defer f.Close()

	if syms, err := f.DynamicSymbols(); err == nil {
		if off, ok := matchSymbolOffset(syms, symbol); ok {
			return off, nil
		}
	}
	if syms, err := f.Symbols(); err == nil {
		if off, ok := matchSymbolOffset(syms, symbol); ok {
			return off, nil
		}
	}
	return 0, fmt.Errorf("symbol %s not found in %s", symbol, path)
}

func matchSymbolOffset(symbols []elf.Symbol, want string) (uintptr, bool) {
	for _, s := range symbols {
		if s.Value == 0 {
			continue
		}
		if s.Name == want || strings.HasPrefix(s.Name, want+"@") {
			return uintptr(s.Value), true
		}
	}
	return 0, false
}
