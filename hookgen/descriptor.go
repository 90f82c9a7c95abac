// Package hookgen generates the per-symbol interception glue: for each
// described symbol, an ABI-exact cgo entry point that forwards into the
// engine's dispatch, a registry variable created before the entry point is
// reachable, and a typed hook adapter. Signatures come from a YAML
// descriptor file, replacing hand-written per-symbol boilerplate.
package hookgen

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"
)

// File describes one generated output file.
type File struct {
	// Package is the Go package name of the generated file.
	Package string `yaml:"package"`
	// Symbols lists the intercepted functions.
	Symbols []Symbol `yaml:"symbols"`
}

// Symbol describes one intercepted function signature. The name must match
// the exported dynamic symbol exactly; parameter and return types use the C
// spellings from typeTable.
type Symbol struct {
	Name   string  `yaml:"name"`
	Params []Param `yaml:"params"`
	Return string  `yaml:"return"`
}

// Param is one named parameter of an intercepted function.
type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// MaxParams matches the widest raw-call trampoline the engine carries.
const MaxParams = 6

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Parse reads a YAML descriptor and validates it.
func Parse(r io.Reader) (*File, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file File
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks the descriptor against the supported type set and the
// engine's argument limit.
func (file *File) Validate() error {
	if !identifierPattern.MatchString(file.Package) {
		return fmt.Errorf("invalid package name %q", file.Package)
	}
	if len(file.Symbols) == 0 {
		return errors.New("descriptor lists no symbols")
	}

	seen := map[string]bool{}
	for i := range file.Symbols {
		symbol := &file.Symbols[i]
		if !identifierPattern.MatchString(symbol.Name) {
			return fmt.Errorf("invalid symbol name %q", symbol.Name)
		}
		if seen[symbol.Name] {
			return fmt.Errorf("duplicate symbol %q", symbol.Name)
		}
		seen[symbol.Name] = true

		if len(symbol.Params) > MaxParams {
			return fmt.Errorf("symbol %q: %d parameters exceeds the %d-argument limit",
				symbol.Name, len(symbol.Params), MaxParams)
		}

		names := map[string]bool{}
		for j := range symbol.Params {
			param := &symbol.Params[j]
			if param.Name == "" {
				param.Name = fmt.Sprintf("a%d", j)
			}
			if !identifierPattern.MatchString(param.Name) {
				return fmt.Errorf("symbol %q: invalid parameter name %q", symbol.Name, param.Name)
			}
			if names[param.Name] {
				return fmt.Errorf("symbol %q: duplicate parameter name %q", symbol.Name, param.Name)
			}
			names[param.Name] = true

			if _, ok := typeTable[param.Type]; !ok {
				return fmt.Errorf("symbol %q parameter %q: unsupported type %q (supported: %s)",
					symbol.Name, param.Name, param.Type, supportedTypes())
			}
		}

		if symbol.Return == "" {
			symbol.Return = "void"
		}
		if symbol.Return != "void" {
			if _, ok := typeTable[symbol.Return]; !ok {
				return fmt.Errorf("symbol %q: unsupported return type %q (supported: %s, void)",
					symbol.Name, symbol.Return, supportedTypes())
			}
		}
	}
	return nil
}
