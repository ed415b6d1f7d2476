package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modgraph/modgraph/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return NewServer(s)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func callReq(args string) *mcp.CallToolRequest {
	return &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(args)},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

func scanFixture(t *testing.T, srv *Server) (dir, project string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, filepath.Join(dir, "a.c"), "int main(){ bar(); }\n")
	writeFile(t, filepath.Join(dir, "b.c"), "void bar(){}\n")

	res, err := srv.handleScanModules(context.Background(),
		callReq(fmt.Sprintf(`{"root_path": %q}`, dir)))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("scan_modules error: %s", resultText(t, res))
	}

	var summary struct {
		ScanID  int64    `json:"scan_id"`
		Project string   `json:"project"`
		Modules []string `json:"modules"`
		Edges   int      `json:"edges"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Edges != 1 || len(summary.Modules) != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	return dir, summary.Project
}

func TestScanModulesTool(t *testing.T) {
	srv := newTestServer(t)
	scanFixture(t, srv)
}

func TestScanModulesMissingPath(t *testing.T) {
	srv := newTestServer(t)
	res, err := srv.handleScanModules(context.Background(), callReq(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected error result for missing root_path")
	}
}

func TestGetModuleGraphTool(t *testing.T) {
	srv := newTestServer(t)
	_, project := scanFixture(t, srv)

	res, err := srv.handleGetModuleGraph(context.Background(),
		callReq(fmt.Sprintf(`{"project": %q}`, project)))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("get_module_graph error: %s", resultText(t, res))
	}

	text := resultText(t, res)
	if !strings.Contains(text, `"bar"`) {
		t.Errorf("graph missing edge function: %s", text)
	}
}

func TestExportGraphTool(t *testing.T) {
	srv := newTestServer(t)
	_, project := scanFixture(t, srv)

	res, err := srv.handleExportGraph(context.Background(),
		callReq(fmt.Sprintf(`{"project": %q, "format": "dot"}`, project)))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("export_graph error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "digraph modules") || !strings.Contains(text, `"a" -> "b"`) {
		t.Errorf("unexpected dot output:\n%s", text)
	}

	// Default format is mermaid.
	res, err = srv.handleExportGraph(context.Background(),
		callReq(fmt.Sprintf(`{"project": %q}`, project)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resultText(t, res), "graph LR") {
		t.Errorf("expected mermaid output, got:\n%s", resultText(t, res))
	}
}

func TestListAndDeleteScanTools(t *testing.T) {
	srv := newTestServer(t)
	scanFixture(t, srv)

	res, err := srv.handleListScans(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var listed struct {
		Scans []struct {
			ID int64 `json:"id"`
		} `json:"scans"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Scans) != 1 {
		t.Fatalf("scans = %d, want 1", len(listed.Scans))
	}

	res, err = srv.handleDeleteScan(context.Background(),
		callReq(fmt.Sprintf(`{"scan_id": %d}`, listed.Scans[0].ID)))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("delete_scan error: %s", resultText(t, res))
	}

	res, err = srv.handleListScans(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Scans) != 0 {
		t.Fatalf("scans = %d after delete, want 0", len(listed.Scans))
	}
}

func TestDeleteScanRejectsFractionalID(t *testing.T) {
	srv := newTestServer(t)
	scanFixture(t, srv)

	res, err := srv.handleDeleteScan(context.Background(), callReq(`{"scan_id": 1.7}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected error for fractional scan_id")
	}
	if !strings.Contains(resultText(t, res), "integer") {
		t.Errorf("unexpected error text: %s", resultText(t, res))
	}

	// The scan the fractional id nearly named must still exist.
	res, err = srv.handleListScans(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var listed struct {
		Scans []struct {
			ID int64 `json:"id"`
		} `json:"scans"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed.Scans) != 1 {
		t.Fatalf("scans = %d, want 1 untouched", len(listed.Scans))
	}
}
