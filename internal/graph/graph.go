// Package graph holds the module call-graph model produced by the pipeline
// and its textual serializations for external renderers.
package graph

import (
	"encoding/json"
	"sort"
)

// EdgeKey uniquely identifies a directed module pair.
type EdgeKey struct {
	From string
	To   string
}

// Edge is a directed cross-module call relationship. Functions accumulates
// the distinct callee names observed for the pair, in insertion order.
type Edge struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Functions []string `json:"functions"`
}

// Graph is the terminal artifact of a scan run: the set of modules and the
// deduplicated cross-module edges between them. It is handed off as an
// immutable snapshot once the pipeline completes.
type Graph struct {
	modules map[string]bool
	edges   map[EdgeKey]*Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		modules: make(map[string]bool),
		edges:   make(map[EdgeKey]*Edge),
	}
}

// AddModule records a module as a graph node.
func (g *Graph) AddModule(name string) {
	g.modules[name] = true
}

// AddCall records one observed cross-module call. Same-module pairs are
// rejected here so the from != to invariant holds everywhere. Both endpoints
// are added as modules.
func (g *Graph) AddCall(from, to, function string) {
	if from == to {
		return
	}
	g.modules[from] = true
	g.modules[to] = true

	key := EdgeKey{From: from, To: to}
	e, ok := g.edges[key]
	if !ok {
		e = &Edge{From: from, To: to}
		g.edges[key] = e
	}
	for _, fn := range e.Functions {
		if fn == function {
			return
		}
	}
	e.Functions = append(e.Functions, function)
}

// HasModule reports whether a module is a node of the graph.
func (g *Graph) HasModule(name string) bool {
	return g.modules[name]
}

// Modules returns the module names in lexicographic order.
func (g *Graph) Modules() []string {
	names := make([]string, 0, len(g.modules))
	for m := range g.modules {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

// Edge returns the edge for a module pair, or nil.
func (g *Graph) Edge(from, to string) *Edge {
	return g.edges[EdgeKey{From: from, To: to}]
}

// Edges returns all edges sorted by (from, to) for stable output.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// EdgeCount returns the number of distinct module pairs.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// jsonGraph is the serialized shape of a Graph.
type jsonGraph struct {
	Modules []string `json:"modules"`
	Edges   []*Edge  `json:"edges"`
}

// MarshalJSON serializes the graph with deterministic ordering.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonGraph{Modules: g.Modules(), Edges: g.Edges()})
}

// UnmarshalJSON restores a graph serialized by MarshalJSON.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var jg jsonGraph
	if err := json.Unmarshal(data, &jg); err != nil {
		return err
	}
	g.modules = make(map[string]bool, len(jg.Modules))
	g.edges = make(map[EdgeKey]*Edge, len(jg.Edges))
	for _, m := range jg.Modules {
		g.modules[m] = true
	}
	for _, e := range jg.Edges {
		g.edges[EdgeKey{From: e.From, To: e.To}] = e
	}
	return nil
}
