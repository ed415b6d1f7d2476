package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/modgraph/modgraph/internal/discover"
	"github.com/modgraph/modgraph/internal/graph"
	"github.com/modgraph/modgraph/internal/pipeline"
)

func (s *Server) handleScanModules(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}

	rootPath := getStringArg(args, "root_path")
	if rootPath == "" {
		return errResult("root_path is required"), nil
	}
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return errResult(fmt.Sprintf("invalid path: %v", err)), nil
	}
	if fi, err := os.Stat(absPath); err != nil || !fi.IsDir() {
		return errResult(fmt.Sprintf("not a directory: %s", absPath)), nil
	}

	opts := &discover.Options{Extensions: getStringSliceArg(args, "extensions")}

	p := pipeline.New(ctx, absPath, opts)
	res, err := p.Run()
	if err != nil {
		return errResult(fmt.Sprintf("scan failed: %v", err)), nil
	}

	scanID, err := s.store.SaveScan(p.ProjectName, absPath, res.Digest, res.FileCount, res.Graph)
	if err != nil {
		return errResult(fmt.Sprintf("save scan: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"scan_id": scanID,
		"project": p.ProjectName,
		"files":   res.FileCount,
		"modules": res.Graph.Modules(),
		"edges":   res.Graph.EdgeCount(),
		"digest":  res.Digest,
	}), nil
}

func (s *Server) handleGetModuleGraph(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	project := getStringArg(args, "project")
	if project == "" {
		return errResult("project is required"), nil
	}

	info, g, err := s.store.LatestScan(project)
	if err != nil {
		return errResult(fmt.Sprintf("load graph: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"scan":  info,
		"graph": g,
	}), nil
}

func (s *Server) handleExportGraph(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	project := getStringArg(args, "project")
	if project == "" {
		return errResult("project is required"), nil
	}
	format := getStringArg(args, "format")
	if format == "" {
		format = graph.FormatMermaid
	}

	_, g, err := s.store.LatestScan(project)
	if err != nil {
		return errResult(fmt.Sprintf("load graph: %v", err)), nil
	}

	var b strings.Builder
	if err := graph.Render(g, format, &b); err != nil {
		return errResult(err.Error()), nil
	}
	return textResult(b.String()), nil
}

func (s *Server) handleListScans(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scans, err := s.store.ListScans()
	if err != nil {
		return errResult(fmt.Sprintf("list scans: %v", err)), nil
	}
	return jsonResult(map[string]any{"scans": scans}), nil
}

func (s *Server) handleDeleteScan(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	scanID, err := getIntArg(args, "scan_id", 0)
	if err != nil {
		return errResult(err.Error()), nil
	}
	if scanID == 0 {
		return errResult("scan_id is required"), nil
	}
	if err := s.store.DeleteScan(int64(scanID)); err != nil {
		return errResult(err.Error()), nil
	}
	return jsonResult(map[string]any{"deleted": scanID}), nil
}
