package pipeline

import (
	"reflect"
	"testing"

	"github.com/modgraph/modgraph/internal/scan"
)

func callerNames(attrs []AttributedCall) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Caller.Name
	}
	return out
}

func TestAttributeNearestPrecedingDefinition(t *testing.T) {
	defs := []scan.Definition{
		{Name: "first", Module: "m", StartOffset: 0},
		{Name: "second", Module: "m", StartOffset: 100},
	}
	calls := []scan.CallSite{
		{Callee: "a", Offset: 50},
		{Callee: "b", Offset: 100}, // exactly at second's start
		{Callee: "c", Offset: 150},
	}

	got := callerNames(attributeCalls("m", defs, calls))
	want := []string{"first", "second", "second"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("callers = %v, want %v", got, want)
	}
}

func TestAttributeBeforeFirstDefinition(t *testing.T) {
	defs := []scan.Definition{
		{Name: "fn", Module: "m", StartOffset: 40},
	}
	got := attributeCalls("m", defs, []scan.CallSite{{Callee: "x", Offset: 10}})
	if len(got) != 1 {
		t.Fatalf("got %d attributed calls, want 1", len(got))
	}
	want := scan.Definition{Name: ModuleLevelFunc, Module: "m", StartOffset: 0}
	if got[0].Caller != want {
		t.Errorf("caller = %+v, want %+v", got[0].Caller, want)
	}
}

func TestAttributeNoDefinitions(t *testing.T) {
	got := attributeCalls("m", nil, []scan.CallSite{{Callee: "x", Offset: 7}})
	if len(got) != 1 {
		t.Fatalf("got %d attributed calls, want 1", len(got))
	}
	want := scan.Definition{Name: ModuleLevelFunc, Module: "m", StartOffset: 0}
	if got[0].Caller != want {
		t.Errorf("caller = %+v, want %+v", got[0].Caller, want)
	}
	if got[0].Callee != "x" || got[0].Offset != 7 {
		t.Errorf("call = %+v, want callee x at offset 7", got[0])
	}
}

func TestAttributeAfterClosingBrace(t *testing.T) {
	// No brace tracking: a call between one function's closing brace and
	// the next signature still belongs to the earlier function.
	defs := []scan.Definition{
		{Name: "early", Module: "m", StartOffset: 0},
		{Name: "late", Module: "m", StartOffset: 200},
	}
	// early's body ends well before offset 120.
	got := attributeCalls("m", defs, []scan.CallSite{{Callee: "x", Offset: 120}})
	if got[0].Caller.Name != "early" {
		t.Errorf("caller = %q, want %q", got[0].Caller.Name, "early")
	}
}

func TestAttributePreservesCallOrder(t *testing.T) {
	defs := []scan.Definition{{Name: "fn", Module: "m", StartOffset: 0}}
	calls := []scan.CallSite{
		{Callee: "b", Offset: 30},
		{Callee: "a", Offset: 10},
	}
	got := attributeCalls("m", defs, calls)
	if got[0].Callee != "b" || got[1].Callee != "a" {
		t.Errorf("callees = [%s %s], want input order [b a]", got[0].Callee, got[1].Callee)
	}
}
