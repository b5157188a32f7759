package goast

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"

	"rulecheck/internal/syntax"
)

// Unit is one parsed and type-checked package, ready for analysis.
type Unit struct {
	Fset     *token.FileSet
	Files    []*ast.File
	Package  *types.Package
	Info     *types.Info
	Resolver *Resolver
	// TypeErrors holds what the checker complained about. Analysis still
	// runs; facts the checker could not establish are simply absent.
	TypeErrors []error
}

// NewInfo returns a types.Info with every map the resolver reads.
func NewInfo() *types.Info {
	return &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
}

// Check type-checks files as package path, importing dependencies from
// source. Type errors do not fail the check.
func Check(fset *token.FileSet, path string, files []*ast.File) (*Unit, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to check")
	}

	unit := &Unit{Fset: fset, Files: files, Info: NewInfo()}
	conf := types.Config{
		Importer: importer.ForCompiler(fset, "source", nil),
		Error: func(err error) {
			unit.TypeErrors = append(unit.TypeErrors, err)
		},
	}
	// With an Error handler Check keeps going; the returned error repeats
	// the first entry of TypeErrors.
	unit.Package, _ = conf.Check(path, fset, files, unit.Info)
	unit.Resolver = NewResolver(unit.Package, unit.Info)
	return unit, nil
}

// ParseFiles parses the named files with comments.
func ParseFiles(fset *token.FileSet, filenames ...string) ([]*ast.File, error) {
	files := make([]*ast.File, 0, len(filenames))
	for _, name := range filenames {
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// ParseSource parses one in-memory file.
func ParseSource(fset *token.FileSet, filename, src string) (*ast.File, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return f, nil
}

// Trees builds one engine tree per file of the unit.
func (u *Unit) Trees() []syntax.Tree {
	trees := make([]syntax.Tree, len(u.Files))
	for i, f := range u.Files {
		trees[i] = Build(u.Fset, f)
	}
	return trees
}
