package hookgen_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliverarmory/interpose/hookgen"
)

const readDescriptor = `
package: main
symbols:
  - name: read
    params:
      - {name: fd, type: int}
      - {name: buf, type: void*}
      - {name: count, type: size_t}
    return: ssize_t
`

func TestParseValidDescriptor(t *testing.T) {
	file, err := hookgen.Parse(strings.NewReader(readDescriptor))
	require.NoError(t, err)

	require.Len(t, file.Symbols, 1)
	assert.Equal(t, "main", file.Package)
	assert.Equal(t, "read", file.Symbols[0].Name)
	assert.Equal(t, "ssize_t", file.Symbols[0].Return)
	require.Len(t, file.Symbols[0].Params, 3)
	assert.Equal(t, "buf", file.Symbols[0].Params[1].Name)
}

func TestParseDefaultsMissingPieces(t *testing.T) {
	file, err := hookgen.Parse(strings.NewReader(`
package: hooks
symbols:
  - name: sync
  - name: close
    params:
      - {type: int}
`))
	require.NoError(t, err)

	assert.Equal(t, "void", file.Symbols[0].Return, "missing return defaults to void")
	assert.Equal(t, "a0", file.Symbols[1].Params[0].Name, "missing parameter names are synthesized")
}

func TestParseRejectsBadDescriptors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no symbols",
			yaml: "package: main\nsymbols: []\n",
			want: "no symbols",
		},
		{
			name: "bad package",
			yaml: "package: \"1bad\"\nsymbols: [{name: read}]\n",
			want: "invalid package name",
		},
		{
			name: "bad symbol name",
			yaml: "package: main\nsymbols: [{name: \"open(2)\"}]\n",
			want: "invalid symbol name",
		},
		{
			name: "duplicate symbol",
			yaml: "package: main\nsymbols: [{name: read}, {name: read}]\n",
			want: "duplicate symbol",
		},
		{
			name: "unknown type",
			yaml: "package: main\nsymbols: [{name: read, params: [{name: x, type: double}]}]\n",
			want: "unsupported type",
		},
		{
			name: "unknown return",
			yaml: "package: main\nsymbols: [{name: read, return: double}]\n",
			want: "unsupported return type",
		},
		{
			name: "too many params",
			yaml: `package: main
symbols:
  - name: wide
    params:
      - {name: a, type: int}
      - {name: b, type: int}
      - {name: c, type: int}
      - {name: d, type: int}
      - {name: e, type: int}
      - {name: f, type: int}
      - {name: g, type: int}
`,
			want: "exceeds",
		},
		{
			name: "unknown field",
			yaml: "package: main\nsymbols: [{name: read}]\nextra: true\n",
			want: "decode descriptor",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := hookgen.Parse(strings.NewReader(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestGenerateReadGlue(t *testing.T) {
	file, err := hookgen.Parse(strings.NewReader(readDescriptor))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, hookgen.Generate(&out, file))
	code := out.String()

	assert.Contains(t, code, "// Code generated by interpose gen; DO NOT EDIT.")
	assert.Contains(t, code, "package main")
	assert.Contains(t, code, `"unsafe"`)
	assert.Contains(t, code,
		`var readRegistry = interpose.Symbol("read", interpose.WithArity(3))`)
	assert.Contains(t, code, "//export read")
	assert.Contains(t, code,
		"func read(fd C.int, buf unsafe.Pointer, count C.size_t) C.ssize_t {")
	assert.Contains(t, code,
		"return C.ssize_t(readRegistry.Dispatch(uintptr(fd), uintptr(buf), uintptr(count)))")
	assert.Contains(t, code,
		"func AddReadHook(fn func(fd C.int, buf unsafe.Pointer, count C.size_t, chain *interpose.Chain) C.ssize_t) {")
	assert.Contains(t, code, "return uintptr(fn(C.int(args[0]), unsafe.Pointer(args[1]), C.size_t(args[2]), chain))")
}

func TestGenerateVoidAndPointerReturn(t *testing.T) {
	file, err := hookgen.Parse(strings.NewReader(`
package: hooks
symbols:
  - name: sync
  - name: getenv
    params:
      - {name: name, type: char*}
    return: char*
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, hookgen.Generate(&out, file))
	code := out.String()

	assert.Contains(t, code, "package hooks")

	// void: entry discards the dispatch word, adapter returns 0.
	assert.Contains(t, code, "func sync() {")
	assert.Contains(t, code, "_ = syncRegistry.Dispatch()")
	assert.Contains(t, code, "func AddSyncHook(fn func(chain *interpose.Chain)) {")

	// pointer return: converted through unsafe.Pointer both ways.
	assert.Contains(t, code, "func getenv(name *C.char) *C.char {")
	assert.Contains(t, code,
		"return (*C.char)(unsafe.Pointer(getenvRegistry.Dispatch(uintptr(unsafe.Pointer(name)))))")
	assert.Contains(t, code,
		"return uintptr(unsafe.Pointer(fn((*C.char)(unsafe.Pointer(args[0])), chain)))")
}

func TestGenerateSnakeCaseAdapterName(t *testing.T) {
	file, err := hookgen.Parse(strings.NewReader(`
package: main
symbols:
  - name: pthread_create
    params:
      - {name: thread, type: void*}
      - {name: attr, type: void*}
      - {name: start, type: void*}
      - {name: arg, type: void*}
    return: int
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, hookgen.Generate(&out, file))
	assert.Contains(t, out.String(), "func AddPthreadCreateHook(")
}
