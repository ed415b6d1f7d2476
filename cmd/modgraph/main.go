package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/modgraph/modgraph/internal/discover"
	"github.com/modgraph/modgraph/internal/graph"
	"github.com/modgraph/modgraph/internal/pipeline"
	"github.com/modgraph/modgraph/internal/store"
	"github.com/modgraph/modgraph/internal/tools"
)

var version = "dev"

var (
	scanExtensions []string
	scanFormat     string
	scanOut        string
	scanDB         string
	serveDB        string
)

func main() {
	root := &cobra.Command{
		Use:           "modgraph",
		Short:         "Cross-module static call-graph extractor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	scanCmd := &cobra.Command{
		Use:   "scan <path>",
		Short: "Scan a source tree and emit its module call graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
	scanCmd.Flags().StringSliceVar(&scanExtensions, "ext", nil, "accepted source extensions (default .c,.cc,.cpp,.cxx,.h,.hh,.hpp)")
	scanCmd.Flags().StringVar(&scanFormat, "format", graph.FormatMermaid, "output format: mermaid, dot, or json")
	scanCmd.Flags().StringVar(&scanOut, "out", "", "write output to a file instead of stdout")
	scanCmd.Flags().StringVar(&scanDB, "db", "", "also persist the scan to this SQLite database")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scan tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path (default ~/.cache/modgraph/scans.db)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the modgraph version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("modgraph", version)
		},
	}

	root.AddCommand(scanCmd, serveCmd, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	rootPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	cfg, err := loadConfig(rootPath)
	if err != nil {
		return err
	}
	opts := &discover.Options{
		Extensions: cfg.Extensions,
		Ignore:     cfg.Ignore,
	}
	if len(scanExtensions) > 0 {
		opts.Extensions = scanExtensions
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(ctx, rootPath, opts)
	res, err := p.Run()
	if err != nil {
		return err
	}

	if scanDB != "" {
		s, err := store.OpenPath(scanDB)
		if err != nil {
			return err
		}
		defer s.Close()
		scanID, err := s.SaveScan(p.ProjectName, rootPath, res.Digest, res.FileCount, res.Graph)
		if err != nil {
			return fmt.Errorf("persist scan: %w", err)
		}
		slog.Info("scan.saved", "scan_id", scanID, "db", scanDB)
	}

	out := os.Stdout
	if scanOut != "" {
		f, err := os.Create(scanOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return graph.Render(res.Graph, scanFormat, out)
}

func runServe(cmd *cobra.Command, _ []string) error {
	var (
		s   *store.Store
		err error
	)
	if serveDB != "" {
		s, err = store.OpenPath(serveDB)
	} else {
		s, err = store.Open()
	}
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := tools.NewServer(s)
	if err := srv.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
