package arch_test

import (
	"go/ast"
	"go/token"
	"slices"
	"strings"
	"testing"
)

// allowedGlobals names package-level vars that are read-only after init.
var allowedGlobals = map[string][]string{
	"crop": {"presetFS"}, // embedded preset catalogs
}

// allowedGlobalPrefixes covers lipgloss colors and styles in ui.
var allowedGlobalPrefixes = map[string][]string{
	"ui": {"style", "color"},
}

// packageVar is one name declared by a package-level var spec.
type packageVar struct {
	file  string
	name  *ast.Ident
	spec  *ast.ValueSpec
	index int
}

func packageVars(pkg sourcePkg) []packageVar {
	var vars []packageVar
	for file, f := range pkg.files {
		for _, decl := range f.Decls {
			d, ok := decl.(*ast.GenDecl)
			if !ok || d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				s := spec.(*ast.ValueSpec)
				for i, name := range s.Names {
					vars = append(vars, packageVar{file: file, name: name, spec: s, index: i})
				}
			}
		}
	}
	return vars
}

// TestNoMutableGlobalState rejects package-level vars other than error
// sentinels and the allowlisted names.
func TestNoMutableGlobalState(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		for _, v := range packageVars(pkg) {
			if !globalAllowed(pkg.name, v) {
				t.Errorf("%s: package-level var %s is mutable global state", pkg.position(v.file, v.name.Pos()), v.name.Name)
			}
		}
	}
}

func TestAllowedGlobalsExist(t *testing.T) {
	t.Parallel()

	declared := make(map[string][]string)
	for _, pkg := range internalPackages(t) {
		for _, v := range packageVars(pkg) {
			declared[pkg.name] = append(declared[pkg.name], v.name.Name)
		}
	}
	for pkg, names := range allowedGlobals {
		for _, name := range names {
			if !slices.Contains(declared[pkg], name) {
				t.Errorf("allowedGlobals[%q] lists %q, which is not declared", pkg, name)
			}
		}
	}
}

func globalAllowed(pkg string, v packageVar) bool {
	name := v.name.Name
	if name == "_" || slices.Contains(allowedGlobals[pkg], name) {
		return true
	}
	for _, prefix := range allowedGlobalPrefixes[pkg] {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return strings.HasPrefix(name, "Err") && v.index < len(v.spec.Values) && isErrorsNew(v.spec.Values[v.index])
}

func isErrorsNew(expr ast.Expr) bool {
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "errors" && sel.Sel.Name == "New"
}
