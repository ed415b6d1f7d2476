// Package scan implements the textual definition and call scanners.
//
// Scanning is deliberately regex-shaped rather than a real lexer: the goal is
// fast, approximate extraction. Known false positives (keywords followed by
// parens, casts, macro invocations) are accepted and filtered downstream by
// symbol resolution, never here.
package scan

import "regexp"

// Definition is a candidate function-definition site.
type Definition struct {
	Name        string `json:"name"`
	Module      string `json:"module"`
	StartOffset int    `json:"start_offset"`
}

// CallSite is a candidate call-expression site. Offset is measured in the
// comment-stripped text, not the raw file text.
type CallSite struct {
	Callee string `json:"callee"`
	Offset int    `json:"offset"`
}

var (
	// signatureRe matches a function signature: one or more leading
	// type/storage tokens, the function name, a parameter list, and an
	// optional opening brace. Prototypes match too; the scanner does not
	// distinguish declarations from definitions.
	signatureRe = regexp.MustCompile(`(?:[A-Za-z_]\w*[ \t]+)+([A-Za-z_]\w*)[ \t]*\([^()]*\)[ \t\r\n]*\{?`)

	// callRe matches an identifier immediately followed by an opening paren.
	callRe = regexp.MustCompile(`([A-Za-z_]\w*)\(`)

	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`//[^\n]*`)
)

// ScanDefinitions extracts candidate function definitions from raw source
// text. Offsets are byte offsets of each match start within src. Multiple
// definitions with the same name are all retained; dedup by name happens in
// the symbol table.
func ScanDefinitions(src []byte, module string) []Definition {
	matches := signatureRe.FindAllSubmatchIndex(src, -1)
	defs := make([]Definition, 0, len(matches))
	for _, m := range matches {
		defs = append(defs, Definition{
			Name:        string(src[m[2]:m[3]]),
			Module:      module,
			StartOffset: m[0],
		})
	}
	return defs
}

// StripComments removes block comments (non-greedy, spanning lines) and then
// line comments. Best-effort: an unterminated block comment is left in place
// rather than erroring, so some commented-out text may survive as false
// positives downstream.
func StripComments(src []byte) []byte {
	out := blockCommentRe.ReplaceAll(src, nil)
	return lineCommentRe.ReplaceAll(out, nil)
}

// ScanCalls extracts call sites from comment-stripped source text. Any
// identifier immediately followed by '(' counts; language keywords are not
// filtered.
func ScanCalls(stripped []byte) []CallSite {
	matches := callRe.FindAllSubmatchIndex(stripped, -1)
	calls := make([]CallSite, 0, len(matches))
	for _, m := range matches {
		calls = append(calls, CallSite{
			Callee: string(stripped[m[2]:m[3]]),
			Offset: m[0],
		})
	}
	return calls
}
