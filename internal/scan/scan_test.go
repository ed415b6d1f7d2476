package scan

import (
	"strings"
	"testing"
)

func TestScanDefinitions(t *testing.T) {
	src := []byte(`int main(int argc, char **argv) {
	return 0;
}

static void helper() {
}

void prototype(int x);
`)
	defs := ScanDefinitions(src, "main")
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d: %+v", len(defs), defs)
	}

	names := []string{defs[0].Name, defs[1].Name, defs[2].Name}
	want := []string{"main", "helper", "prototype"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("def %d: got %q, want %q", i, names[i], want[i])
		}
	}

	for _, d := range defs {
		if d.Module != "main" {
			t.Errorf("def %s: module=%q, want main", d.Name, d.Module)
		}
	}

	// Offsets are match starts in raw text, ascending.
	for i := 1; i < len(defs); i++ {
		if defs[i].StartOffset <= defs[i-1].StartOffset {
			t.Errorf("offsets not ascending: %+v", defs)
		}
	}
	if defs[0].StartOffset != 0 {
		t.Errorf("main offset=%d, want 0", defs[0].StartOffset)
	}
}

func TestScanDefinitionsKeepsDuplicates(t *testing.T) {
	src := []byte("void init() {}\nvoid init() {}\n")
	defs := ScanDefinitions(src, "a")
	if len(defs) != 2 {
		t.Fatalf("expected both same-name definitions retained, got %d", len(defs))
	}
}

func TestScanDefinitionsStorageAndType(t *testing.T) {
	src := []byte("static unsigned long compute_hash(const char *s) {\n}\n")
	defs := ScanDefinitions(src, "hash")
	if len(defs) != 1 || defs[0].Name != "compute_hash" {
		t.Fatalf("got %+v", defs)
	}
}

func TestScanCalls(t *testing.T) {
	src := []byte("int main() { bar(); baz(1, 2); }\n")
	calls := ScanCalls(src)

	// main( matches too: the scanner does not filter signature-shaped text.
	var names []string
	for _, c := range calls {
		names = append(names, c.Callee)
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "bar") || !strings.Contains(joined, "baz") {
		t.Fatalf("missing calls in %v", names)
	}

	for i := 1; i < len(calls); i++ {
		if calls[i].Offset <= calls[i-1].Offset {
			t.Errorf("offsets not ascending: %+v", calls)
		}
	}
}

func TestScanCallsNoSpaceBeforeParen(t *testing.T) {
	// "foo (" is not a call site: the paren must immediately follow.
	calls := ScanCalls([]byte("foo (x); bar(y);"))
	if len(calls) != 1 || calls[0].Callee != "bar" {
		t.Fatalf("got %+v", calls)
	}
}

func TestScanCallsKeywordsNotFiltered(t *testing.T) {
	// Known false positives, preserved: keywords and casts look like calls.
	calls := ScanCalls([]byte("if(x) { while(y) {} }"))
	if len(calls) != 2 {
		t.Fatalf("expected if/while recorded as calls, got %+v", calls)
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"line", "a(); // b()\nc();", "a(); \nc();"},
		{"block", "a(); /* b(); */ c();", "a();  c();"},
		{"block multiline", "a();\n/* b();\nc(); */\nd();", "a();\n\nd();"},
		{"non greedy", "/* x */ a(); /* y */ b();", " a();  b();"},
		{"none", "a();", "a();"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(StripComments([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("StripComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripCommentsUnterminatedBlock(t *testing.T) {
	// Best effort: an unterminated block comment is left in place, so its
	// contents may surface as extra call sites. That is tolerated.
	in := []byte("a(); /* b();")
	out := StripComments(in)
	if !strings.Contains(string(out), "a();") {
		t.Fatalf("live code lost: %q", out)
	}
	calls := ScanCalls(out)
	if len(calls) == 0 {
		t.Fatal("expected at least the live call site")
	}
}

func TestCommentedOutCallsNotScanned(t *testing.T) {
	src := []byte("int main() {\n// dead();\n/* gone(); */\nlive();\n}\n")
	calls := ScanCalls(StripComments(src))
	for _, c := range calls {
		if c.Callee == "dead" || c.Callee == "gone" {
			t.Errorf("commented-out call %q captured", c.Callee)
		}
	}
}
