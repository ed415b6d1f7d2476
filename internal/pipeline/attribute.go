package pipeline

import (
	"sort"

	"github.com/modgraph/modgraph/internal/scan"
)

// ModuleLevelFunc is the synthetic pseudo-function owning calls that appear
// before any definition in a file.
const ModuleLevelFunc = "<module-level>"

// AttributedCall pairs a call site with the definition believed to textually
// enclose it.
type AttributedCall struct {
	Caller scan.Definition
	Callee string
	Offset int
}

// attributeCalls maps each call site to the definition with the greatest
// StartOffset <= the call's offset, or to the module-level pseudo-function
// when no definition precedes it. defs must be ordered by StartOffset
// ascending.
//
// This is a purely textual heuristic: no brace tracking is done, so a call
// after a function's closing brace but before the next signature is still
// attributed to the preceding function. Call offsets are measured in
// comment-stripped text while definition offsets are raw-text offsets; the
// small drift this introduces is part of the documented behavior.
func attributeCalls(module string, defs []scan.Definition, calls []scan.CallSite) []AttributedCall {
	out := make([]AttributedCall, 0, len(calls))
	for _, c := range calls {
		// First definition with StartOffset > c.Offset; the one before it
		// encloses the call.
		idx := sort.Search(len(defs), func(i int) bool {
			return defs[i].StartOffset > c.Offset
		})
		caller := scan.Definition{Name: ModuleLevelFunc, Module: module, StartOffset: 0}
		if idx > 0 {
			caller = defs[idx-1]
		}
		out = append(out, AttributedCall{Caller: caller, Callee: c.Callee, Offset: c.Offset})
	}
	return out
}
