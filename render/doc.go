// Package render turns a finished pyobj object graph into text: either
// Python-like pseudocode (Pseudo) or a JSON description of the same graph
// (JSON, built on github.com/hokaccha/go-prettyjson for final formatting).
//
// Both backends walk the graph with the same discipline the interpreter
// itself used to build it: single-threaded, cycle-aware via an explicit
// visited set, and driven entirely from the frozen post-run state - no
// payload is mutated once the VM has finished (see pvm's concurrency
// notes).
package render
