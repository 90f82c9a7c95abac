// Package dlnext resolves the next definition of a dynamic symbol in the
// process's load order, skipping the calling library's own definition, and
// invokes resolved function pointers with word-sized arguments. It is the
// lookup substrate behind interpose's original-symbol resolution.
//
// Lookup requires a C runtime in the process, which every practical
// interposition target has: the engine ships inside a c-shared library, so
// builds are cgo builds. Platforms without support report errors instead of
// resolving.
package dlnext

// MaxArgs is the largest number of word arguments Call accepts.
const MaxArgs = 6
