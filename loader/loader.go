// Package loader reads ledger files from disk and parses them, optionally
// following include directives so that a ledger split across several files is
// returned as one AST.
//
// Relative include paths resolve against the directory of the including file.
// A file reached twice, including through a cycle, is loaded once.
//
//	ldr := loader.New(loader.WithFollowIncludes())
//	result, err := ldr.Load(ctx, "main.beancount")
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robinvdvleuten/beancount-forecast/ast"
	"github.com/robinvdvleuten/beancount-forecast/parser"
	"github.com/robinvdvleuten/beancount-forecast/telemetry"
)

// Loader loads and parses ledger files.
type Loader struct {
	// FollowIncludes recursively loads included files and merges them.
	// When false the include directives are left in the AST untouched.
	FollowIncludes bool
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithFollowIncludes makes the loader resolve every include directive.
// The returned AST has Includes set to nil.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Result is a loaded ledger.
type Result struct {
	AST *ast.AST

	// Root is the absolute path of the file that was loaded, or "" when the
	// ledger came from memory.
	Root string

	// Includes lists the absolute paths of every included file that was
	// loaded, in load order. Empty unless includes are followed.
	Includes []string
}

// Files returns Root followed by Includes.
func (r *Result) Files() []string {
	if r.Root == "" {
		return r.Includes
	}
	return append([]string{r.Root}, r.Includes...)
}

// Load reads and parses filename.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	timer := telemetry.FromContext(ctx).Start("loader.load")
	defer timer.End()

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	if !l.FollowIncludes {
		tree, err := parseFile(ctx, filename)
		if err != nil {
			return nil, err
		}
		return &Result{AST: tree, Root: absPath}, nil
	}

	state := &loaderState{
		visited: make(map[string]bool),
		root:    absPath,
	}

	tree, err := state.loadRecursive(ctx, filename)
	if err != nil {
		return nil, err
	}

	return &Result{AST: tree, Root: absPath, Includes: state.includes}, nil
}

// LoadBytes parses a ledger held in memory. When includes are followed they
// resolve relative to the directory of filename, which therefore must name a
// real file.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*Result, error) {
	timer := telemetry.FromContext(ctx).Start("loader.load")
	defer timer.End()

	tree, err := parser.ParseBytesWithFilename(ctx, filename, data)
	if err != nil {
		return nil, parser.NewParseError(filename, err)
	}

	if !l.FollowIncludes || len(tree.Includes) == 0 {
		if l.FollowIncludes {
			tree.Includes = nil
		}
		return &Result{AST: tree}, nil
	}

	if filename == "" || filename == StdinFilename {
		return nil, fmt.Errorf("include directives are not supported when reading from stdin")
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	state := &loaderState{
		visited: map[string]bool{absPath: true},
		root:    absPath,
	}

	merged, err := state.resolveIncludes(ctx, filename, filepath.Dir(absPath), tree)
	if err != nil {
		return nil, err
	}

	return &Result{AST: merged, Root: absPath, Includes: state.includes}, nil
}

// StdinFilename is the name used for ledgers read from standard input.
const StdinFilename = "<stdin>"

func parseFile(ctx context.Context, filename string) (*ast.AST, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	tree, err := parser.ParseBytesWithFilename(ctx, filename, data)
	if err != nil {
		return nil, parser.NewParseError(filename, err)
	}
	return tree, nil
}

type loaderState struct {
	visited  map[string]bool // Absolute paths of files already loaded
	root     string
	includes []string
}

func (l *loaderState) loadRecursive(ctx context.Context, filename string) (*ast.AST, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	if l.visited[absPath] {
		return &ast.AST{}, nil
	}
	l.visited[absPath] = true
	if absPath != l.root {
		l.includes = append(l.includes, absPath)
	}

	tree, err := parseFile(ctx, filename)
	if err != nil {
		return nil, err
	}

	return l.resolveIncludes(ctx, filename, filepath.Dir(absPath), tree)
}

func (l *loaderState) resolveIncludes(ctx context.Context, filename, baseDir string, tree *ast.AST) (*ast.AST, error) {
	if len(tree.Includes) == 0 {
		tree.Includes = nil
		return tree, nil
	}

	var included []*ast.AST

	for _, inc := range tree.Includes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		includePath := inc.Filename
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, includePath)
		}

		includedAST, err := l.loadRecursive(ctx, includePath)
		if err != nil {
			return nil, fmt.Errorf("in file %s: %w", filename, err)
		}

		included = append(included, includedAST)
	}

	return mergeASTs(tree, included...), nil
}

// mergeASTs combines a main AST with included ones. Only the main file's
// options apply; plugins are merged. Push/pop blocks were already applied per
// file by the parser.
func mergeASTs(main *ast.AST, included ...*ast.AST) *ast.AST {
	result := &ast.AST{
		Directives: make(ast.Directives, 0, len(main.Directives)),
		Options:    main.Options,
		Plugins:    main.Plugins,
	}

	result.Directives = append(result.Directives, main.Directives...)

	for _, inc := range included {
		result.Directives = append(result.Directives, inc.Directives...)
		result.Plugins = append(result.Plugins, inc.Plugins...)
	}

	_ = ast.SortDirectives(result)

	return result
}
