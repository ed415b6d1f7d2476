package pipeline

import "github.com/modgraph/modgraph/internal/scan"

// SymbolTable maps each function name to exactly one chosen definition.
// Resolution is name-only: a later insertion silently replaces an earlier one
// for the same name, so which definition wins depends on file processing
// order. The table is rebuilt from scratch on every run.
//
// No lock: all inserts happen in the single-threaded merge step at the end of
// phase 1, and all reads happen after that phase barrier.
type SymbolTable struct {
	defs map[string]scan.Definition
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{defs: make(map[string]scan.Definition)}
}

// Insert adds a definition, overwriting any existing entry with the same name.
func (t *SymbolTable) Insert(d scan.Definition) {
	t.defs[d.Name] = d
}

// Resolve looks up the chosen definition for a function name.
func (t *SymbolTable) Resolve(name string) (scan.Definition, bool) {
	d, ok := t.defs[name]
	return d, ok
}

// Size returns the number of distinct function names in the table.
func (t *SymbolTable) Size() int {
	return len(t.defs)
}
