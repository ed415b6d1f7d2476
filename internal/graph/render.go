package graph

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Render formats recognized by Render.
const (
	FormatMermaid = "mermaid"
	FormatDOT     = "dot"
	FormatJSON    = "json"
)

// Render writes the graph to w in the given format.
func Render(g *Graph, format string, w io.Writer) error {
	switch format {
	case FormatMermaid:
		return WriteMermaid(g, w)
	case FormatDOT:
		return WriteDOT(g, w)
	case FormatJSON:
		b, err := g.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

var unsafeIDRe = regexp.MustCompile(`\W`)

// nodeID turns a module name into an identifier safe for diagram syntaxes.
func nodeID(module string) string {
	id := unsafeIDRe.ReplaceAllString(module, "_")
	if id == "" {
		id = "_"
	}
	return id
}

// WriteMermaid emits the graph as a Mermaid flowchart: one node per module,
// one labeled directed edge per module pair, label = the callee functions
// joined line by line.
func WriteMermaid(g *Graph, w io.Writer) error {
	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, m := range g.Modules() {
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", nodeID(m), m)
	}
	for _, e := range g.Edges() {
		label := strings.Join(e.Functions, "<br/>")
		fmt.Fprintf(&b, "    %s -->|\"%s\"| %s\n", nodeID(e.From), label, nodeID(e.To))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteDOT emits the graph in Graphviz DOT syntax with newline-joined edge
// labels.
func WriteDOT(g *Graph, w io.Writer) error {
	var b strings.Builder
	b.WriteString("digraph modules {\n")
	b.WriteString("    rankdir=LR;\n")
	for _, m := range g.Modules() {
		fmt.Fprintf(&b, "    %q;\n", m)
	}
	for _, e := range g.Edges() {
		label := strings.Join(e.Functions, `\n`)
		fmt.Fprintf(&b, "    %q -> %q [label=\"%s\"];\n", e.From, e.To, label)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
