// Package tools exposes the scan pipeline and its persisted graphs over MCP.
// Rendering the graph into a visual artifact stays with external
// collaborators; these tools hand off the graph model and its textual
// serializations.
package tools

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modgraph/modgraph/internal/store"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	store *store.Store
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store) *Server {
	srv := &Server{
		store: s,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "modgraph",
				Version: "0.1.0",
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. scan_modules
	s.mcp.AddTool(&mcp.Tool{
		Name:        "scan_modules",
		Description: "Scan a source tree and build its cross-module call graph. Locates function definitions, attributes call sites to their enclosing functions, and records which module-to-module call relationships exist. The finished graph is persisted and a summary returned.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"root_path": {
					"type": "string",
					"description": "Absolute path to the source tree to scan."
				},
				"extensions": {
					"type": "array",
					"items": {"type": "string"},
					"description": "Accepted source-file extensions (default: .c .cc .cpp .cxx .h .hh .hpp)"
				}
			},
			"required": ["root_path"]
		}`),
	}, s.handleScanModules)

	// 2. get_module_graph
	s.mcp.AddTool(&mcp.Tool{
		Name:        "get_module_graph",
		Description: "Return the latest persisted module graph for a project as JSON: the module set plus directed edges annotated with the callee function names observed for each module pair.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name (as returned by scan_modules)"
				}
			},
			"required": ["project"]
		}`),
	}, s.handleGetModuleGraph)

	// 3. export_graph
	s.mcp.AddTool(&mcp.Tool{
		Name:        "export_graph",
		Description: "Serialize the latest module graph for a project as a textual diagram description consumable by an external renderer: one node per module, one labeled directed edge per module pair, edge label = the callee function list.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"project": {
					"type": "string",
					"description": "Project name (as returned by scan_modules)"
				},
				"format": {
					"type": "string",
					"description": "Diagram syntax: 'mermaid' (default) or 'dot'",
					"enum": ["mermaid", "dot"]
				}
			},
			"required": ["project"]
		}`),
	}, s.handleExportGraph)

	// 4. list_scans
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_scans",
		Description: "List all persisted scans with project, root path, content digest, and module/edge counts, newest first.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListScans)

	// 5. delete_scan
	s.mcp.AddTool(&mcp.Tool{
		Name:        "delete_scan",
		Description: "Delete a persisted scan and its graph data. This action is irreversible.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"scan_id": {
					"type": "integer",
					"description": "ID of the scan to delete (see list_scans)"
				}
			},
			"required": ["scan_id"]
		}`),
	}, s.handleDeleteScan)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// textResult returns a plain-text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// getIntArg extracts an integer argument with a default value. Fractional
// values are rejected, never truncated.
func getIntArg(args map[string]any, key string, defaultVal int) (int, error) {
	v, ok := args[key]
	if !ok {
		return defaultVal, nil
	}
	f, ok := v.(float64) // JSON numbers decode as float64
	if !ok {
		return defaultVal, nil
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be an integer, got %v", key, f)
	}
	return int(f), nil
}

// getStringSliceArg extracts a string-array argument from parsed args.
func getStringSliceArg(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
