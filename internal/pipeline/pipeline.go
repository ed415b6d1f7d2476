// Package pipeline orchestrates the two-phase cross-module call-graph scan:
// phase 1 collects function definitions from every file and merges them into
// a global symbol table; phase 2 scans call sites, attributes each to its
// enclosing definition, and aggregates cross-module edges. Phase 2 never
// starts before phase 1 has fully completed — call resolution depends on a
// globally complete symbol table.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/modgraph/modgraph/internal/discover"
	"github.com/modgraph/modgraph/internal/graph"
	"github.com/modgraph/modgraph/internal/scan"
)

// Pipeline runs one full scan of a source tree. Each run recomputes from
// scratch; there is no incremental mode.
type Pipeline struct {
	ctx         context.Context
	RootPath    string
	ProjectName string
	Opts        *discover.Options

	symbols *SymbolTable
	// perFile holds each file's definitions ordered by StartOffset ascending.
	perFile map[string][]scan.Definition
}

// Result is the outcome of a completed run.
type Result struct {
	Graph       *graph.Graph
	Digest      string // xxh3 fingerprint over all scanned file contents
	FileCount   int
	SymbolCount int
}

// New creates a Pipeline for a source tree root.
func New(ctx context.Context, rootPath string, opts *discover.Options) *Pipeline {
	return &Pipeline{
		ctx:         ctx,
		RootPath:    rootPath,
		ProjectName: ProjectNameFromPath(rootPath),
		Opts:        opts,
		symbols:     NewSymbolTable(),
		perFile:     make(map[string][]scan.Definition),
	}
}

// ProjectNameFromPath derives a project name from a path by replacing path
// separators with dashes and trimming the leading dash.
func ProjectNameFromPath(path string) string {
	cleaned := filepath.ToSlash(filepath.Clean(path))
	name := strings.TrimLeft(strings.ReplaceAll(cleaned, "/", "-"), "-")
	if name == "" {
		return "root"
	}
	return name
}

// Symbols returns the symbol table built in phase 1. Valid after Run.
func (p *Pipeline) Symbols() *SymbolTable {
	return p.symbols
}

// fileScan is one file's phase-1 output.
type fileScan struct {
	defs []scan.Definition
	src  []byte
	hash uint64
	ok   bool
}

// Run executes both phases and returns the finished graph. Per-file read
// failures are warned and skipped; partial results are never returned — the
// run either completes both phases or errors out whole.
func (p *Pipeline) Run() (*Result, error) {
	slog.Info("pipeline.start", "project", p.ProjectName, "path", p.RootPath)

	files, err := discover.Discover(p.ctx, p.RootPath, p.Opts)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if len(files) == 0 {
		slog.Info("pipeline.empty", "reason", "no_source_files")
	}

	t := time.Now()
	scans, err := p.phaseDefinitions(files)
	if err != nil {
		return nil, err
	}
	slog.Info("phase.timing", "phase", "definitions", "files", len(files), "elapsed", time.Since(t))

	g := graph.New()
	for _, f := range files {
		if len(p.perFile[f.RelPath]) > 0 {
			g.AddModule(f.Module)
		}
	}
	if p.symbols.Size() == 0 {
		slog.Info("pipeline.empty", "reason", "no_functions")
	}

	t = time.Now()
	if err := p.phaseCalls(files, scans, g); err != nil {
		return nil, err
	}
	slog.Info("phase.timing", "phase", "calls", "elapsed", time.Since(t))

	res := &Result{
		Graph:       g,
		Digest:      runDigest(files, scans),
		FileCount:   len(files),
		SymbolCount: p.symbols.Size(),
	}
	slog.Info("pipeline.done", "modules", len(g.Modules()), "edges", g.EdgeCount(), "symbols", p.symbols.Size())
	return res, nil
}

// phaseDefinitions scans every file for definitions in parallel, then merges
// the per-file results into the symbol table in sorted file order. The
// single-threaded merge makes "later-processed wins" deterministic: the
// lexicographically later file overwrites.
func (p *Pipeline) phaseDefinitions(files []discover.FileInfo) ([]fileScan, error) {
	scans := make([]fileScan, len(files))

	eg, ctx := errgroup.WithContext(p.ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(f.Path)
			if err != nil {
				slog.Warn("pipeline.read.err", "path", f.RelPath, "err", err)
				return nil
			}
			scans[i] = fileScan{
				defs: scan.ScanDefinitions(src, f.Module),
				src:  src,
				hash: xxh3.Hash(src),
				ok:   true,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("phase definitions: %w", err)
	}

	for i, f := range files {
		if !scans[i].ok {
			continue
		}
		p.perFile[f.RelPath] = scans[i].defs
		for _, d := range scans[i].defs {
			p.symbols.Insert(d)
		}
	}
	return scans, nil
}

// phaseCalls scans and attributes call sites in parallel, then resolves them
// through the symbol table and aggregates cross-module edges in a
// single-threaded reduction over sorted file order. Unresolved callees are
// discarded (library calls or scanner false positives); same-module calls
// are discarded (no self-edges).
func (p *Pipeline) phaseCalls(files []discover.FileInfo, scans []fileScan, g *graph.Graph) error {
	attributed := make([][]AttributedCall, len(files))

	eg, ctx := errgroup.WithContext(p.ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !scans[i].ok {
				return nil
			}
			stripped := scan.StripComments(scans[i].src)
			calls := scan.ScanCalls(stripped)
			attributed[i] = attributeCalls(f.Module, scans[i].defs, calls)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("phase calls: %w", err)
	}

	for i, f := range files {
		for _, c := range attributed[i] {
			def, ok := p.symbols.Resolve(c.Callee)
			if !ok {
				continue
			}
			if def.Module == f.Module {
				continue
			}
			g.AddCall(f.Module, def.Module, c.Callee)
		}
	}
	return nil
}

// runDigest fingerprints a run from every scanned file's path and content
// hash. Identical inputs yield identical digests.
func runDigest(files []discover.FileInfo, scans []fileScan) string {
	var b strings.Builder
	for i, f := range files {
		if !scans[i].ok {
			continue
		}
		fmt.Fprintf(&b, "%s\x00%016x\n", f.RelPath, scans[i].hash)
	}
	return fmt.Sprintf("%016x", xxh3.HashString(b.String()))
}
