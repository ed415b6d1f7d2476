package discover

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".git": true, ".hg": true, ".idea": true,
	".svn": true, ".tmp": true, ".vs": true, ".vscode": true,
	"bin": true, "build": true, "cmake-build-debug": true,
	"cmake-build-release": true, "dist": true, "node_modules": true,
	"obj": true, "out": true, "target": true, "tmp": true, "vendor": true,
}

// DefaultExtensions is the accepted source-file extension set when the
// caller does not supply one.
var DefaultExtensions = []string{".c", ".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp"}

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path    string // absolute path
	RelPath string // relative to scan root
	Module  string // base name without extension
}

// Options configures file discovery.
type Options struct {
	Extensions []string // accepted extensions; DefaultExtensions if empty
	IgnoreFile string   // path to a .modgraphignore file (optional)
	Ignore     []string // extra glob patterns to skip
}

// ModuleName derives the module name for a file path: the base name without
// its extension.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	for _, pattern := range extraIgnore {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// Discover walks a source tree and returns every regular file whose extension
// is in the accepted set, sorted by relative path for reproducible runs.
// filepath.Walk does not follow symlinks, so link cycles cannot loop the
// walk. Unreadable entries are skipped with a warning, never fatal.
func Discover(ctx context.Context, rootPath string, opts *Options) ([]FileInfo, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exts := DefaultExtensions
	var extraIgnore []string
	if opts != nil {
		if len(opts.Extensions) > 0 {
			exts = opts.Extensions
		}
		extraIgnore = append(extraIgnore, opts.Ignore...)
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		extSet[strings.ToLower(e)] = true
	}

	ignorePath := filepath.Join(rootPath, ".modgraphignore")
	if opts != nil && opts.IgnoreFile != "" {
		ignorePath = opts.IgnoreFile
	}
	if patterns, err := loadIgnoreFile(ignorePath); err == nil {
		extraIgnore = append(extraIgnore, patterns...)
	}

	// .gitignore rules apply as-is when the scan root is a repo root.
	var gitIgnore *ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(rootPath, ".gitignore")); err == nil {
		gitIgnore = gi
	}

	var files []FileInfo

	err = filepath.Walk(rootPath, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			slog.Warn("discover.skip", "path", path, "err", walkErr)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, _ := filepath.Rel(rootPath, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if path == rootPath {
				return nil
			}
			if shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			if gitIgnore != nil && gitIgnore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}
		if gitIgnore != nil && gitIgnore.MatchesPath(rel) {
			return nil
		}
		if !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: rel,
			Module:  ModuleName(path),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
