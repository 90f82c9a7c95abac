package hookgen

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
	"unicode"
)

// typeInfo maps one C type spelling to its cgo representation and the word
// conversions used on the dispatch boundary.
type typeInfo struct {
	// goType is the type in the generated Go signatures.
	goType string
	// pointer types go through unsafe.Pointer on both conversions.
	pointer bool
}

var typeTable = map[string]typeInfo{
	"int":     {goType: "C.int"},
	"uint":    {goType: "C.uint"},
	"long":    {goType: "C.long"},
	"ulong":   {goType: "C.ulong"},
	"size_t":  {goType: "C.size_t"},
	"ssize_t": {goType: "C.ssize_t"},
	"char*":   {goType: "*C.char", pointer: true},
	"void*":   {goType: "unsafe.Pointer", pointer: true},
}

func supportedTypes() string {
	names := make([]string, 0, len(typeTable))
	for name := range typeTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// toWord converts a typed value expression to a dispatch word.
func (info typeInfo) toWord(expr string) string {
	if info.goType == "unsafe.Pointer" || !info.pointer {
		return fmt.Sprintf("uintptr(%s)", expr)
	}
	return fmt.Sprintf("uintptr(unsafe.Pointer(%s))", expr)
}

// fromWord converts a dispatch word expression back to the typed value.
func (info typeInfo) fromWord(expr string) string {
	if info.goType == "unsafe.Pointer" {
		return fmt.Sprintf("unsafe.Pointer(%s)", expr)
	}
	if info.pointer {
		return fmt.Sprintf("(%s)(unsafe.Pointer(%s))", info.goType, expr)
	}
	return fmt.Sprintf("%s(%s)", info.goType, expr)
}

type symbolModel struct {
	Name        string
	RegistryVar string
	AdapterName string
	Arity       int
	Void        bool

	// Prebuilt signature fragments and expressions so the template stays
	// declarative.
	EntryParams     string // "fd C.int, buf unsafe.Pointer"
	ReturnType      string // " C.ssize_t" (leading space) or ""
	HookParams      string // typed hook params including the chain
	HookResultExpr  string // adapter body: hook result as a dispatch word
	EntryResultExpr string // entry body: dispatch word as the return type
	DispatchExpr    string // raw dispatch call, used by void entries
	HookCallExpr    string // raw typed hook call, used by void adapters
}

type fileModel struct {
	Package     string
	NeedsUnsafe bool
	Symbols     []*symbolModel
}

// Generate renders the entry-point glue for a validated descriptor.
func Generate(w io.Writer, file *File) error {
	if err := file.Validate(); err != nil {
		return err
	}

	model := &fileModel{Package: file.Package}
	for i := range file.Symbols {
		symbol := &file.Symbols[i]
		sm := &symbolModel{
			Name:        symbol.Name,
			RegistryVar: symbol.Name + "Registry",
			AdapterName: "Add" + exportName(symbol.Name) + "Hook",
			Arity:       len(symbol.Params),
			Void:        symbol.Return == "void",
		}

		var entryParams, dispatchArgs, hookParams, hookArgs []string
		for j, param := range symbol.Params {
			info := typeTable[param.Type]
			if info.pointer {
				model.NeedsUnsafe = true
			}
			entryParams = append(entryParams, param.Name+" "+info.goType)
			dispatchArgs = append(dispatchArgs, info.toWord(param.Name))
			hookParams = append(hookParams, param.Name+" "+info.goType)
			hookArgs = append(hookArgs, info.fromWord(fmt.Sprintf("args[%d]", j)))
		}
		hookParams = append(hookParams, "chain *interpose.Chain")
		hookArgs = append(hookArgs, "chain")

		sm.EntryParams = strings.Join(entryParams, ", ")
		sm.HookParams = strings.Join(hookParams, ", ")
		sm.DispatchExpr = fmt.Sprintf("%s.Dispatch(%s)", sm.RegistryVar, strings.Join(dispatchArgs, ", "))
		sm.HookCallExpr = fmt.Sprintf("fn(%s)", strings.Join(hookArgs, ", "))

		if !sm.Void {
			info := typeTable[symbol.Return]
			if info.pointer {
				model.NeedsUnsafe = true
			}
			sm.ReturnType = " " + info.goType
			sm.EntryResultExpr = info.fromWord(sm.DispatchExpr)
			sm.HookResultExpr = info.toWord(sm.HookCallExpr)
		}
		model.Symbols = append(model.Symbols, sm)
	}

	return glueTemplate.Execute(w, model)
}

// exportName turns a C symbol into an exported Go identifier fragment:
// "open64" -> "Open64", "pthread_create" -> "PthreadCreate".
func exportName(symbol string) string {
	out := make([]rune, 0, len(symbol))
	upperNext := true
	for _, r := range symbol {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext {
			out = append(out, unicode.ToUpper(r))
			upperNext = false
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

var glueTemplate = template.Must(template.New("glue").Parse(
	`// Code generated by interpose gen; DO NOT EDIT.

package {{.Package}}

/*
#include <stddef.h>
#include <stdint.h>
#include <sys/types.h>
*/
import "C"

import (
{{- if .NeedsUnsafe}}
	"unsafe"

{{- end}}
	"github.com/sliverarmory/interpose"
)
{{range .Symbols}}
var {{.RegistryVar}} = interpose.Symbol({{printf "%q" .Name}}, interpose.WithArity({{.Arity}}))

// {{.AdapterName}} registers a typed hook on the {{.Name}} chain.
func {{.AdapterName}}(fn func({{.HookParams}}){{.ReturnType}}) {
	{{.RegistryVar}}.AddHook(func(args []uintptr, chain *interpose.Chain) uintptr {
{{- if .Void}}
		{{.HookCallExpr}}
		return 0
{{- else}}
		return {{.HookResultExpr}}
{{- end}}
	})
}

//export {{.Name}}
func {{.Name}}({{.EntryParams}}){{.ReturnType}} {
{{- if .Void}}
	_ = {{.DispatchExpr}}
{{- else}}
	return {{.EntryResultExpr}}
{{- end}}
}
{{end}}`))
