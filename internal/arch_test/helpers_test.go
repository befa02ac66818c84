package arch_test

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
)

const internalImportPrefix = "github.com/papapumpkin/acreage/internal/"

// sourcePkg is one package under internal/, parsed without its tests.
type sourcePkg struct {
	name  string
	fset  *token.FileSet
	files map[string]*ast.File // keyed by internal/<pkg>/<file>.go
}

// loadInternal parses every non-test file under internal/ once per test binary.
var loadInternal = sync.OnceValues(func() ([]sourcePkg, error) {
	entries, err := os.ReadDir("..")
	if err != nil {
		return nil, err
	}
	var pkgs []sourcePkg
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "arch_test" {
			continue
		}
		pkg := sourcePkg{name: e.Name(), fset: token.NewFileSet(), files: map[string]*ast.File{}}
		paths, err := filepath.Glob(filepath.Join("..", e.Name(), "*.go"))
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			if strings.HasSuffix(path, "_test.go") {
				continue
			}
			f, err := parser.ParseFile(pkg.fset, path, nil, parser.ParseComments)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			pkg.files[filepath.ToSlash(filepath.Join("internal", e.Name(), filepath.Base(path)))] = f
		}
		if len(pkg.files) > 0 {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, nil
})

func internalPackages(t *testing.T) []sourcePkg {
	t.Helper()
	pkgs, err := loadInternal()
	if err != nil {
		t.Fatalf("loading internal packages: %v", err)
	}
	if len(pkgs) == 0 {
		t.Fatal("no packages found under internal/")
	}
	return pkgs
}

// internalImports returns the sorted internal packages p imports.
func (p sourcePkg) internalImports() []string {
	var out []string
	for _, f := range p.files {
		for _, imp := range f.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			rest, ok := strings.CutPrefix(path, internalImportPrefix)
			if !ok {
				continue
			}
			name, _, _ := strings.Cut(rest, "/")
			if !slices.Contains(out, name) {
				out = append(out, name)
			}
		}
	}
	slices.Sort(out)
	return out
}

// position formats pos as file:line relative to the repository root.
func (p sourcePkg) position(file string, pos token.Pos) string {
	return fmt.Sprintf("%s:%d", file, p.fset.Position(pos).Line)
}
