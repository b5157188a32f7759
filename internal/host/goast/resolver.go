package goast

import (
	"go/ast"
	"go/types"

	"rulecheck/internal/semantic"
	"rulecheck/internal/syntax"
)

// Resolver answers semantic questions from go/types results. It is read-only
// after construction and safe for concurrent use.
type Resolver struct {
	pkg     *types.Package
	info    *types.Info
	imports map[string]*types.Package
}

// NewResolver builds a resolver for one type-checked package. Either
// argument may be nil, in which case the corresponding questions go
// unanswered.
func NewResolver(pkg *types.Package, info *types.Info) *Resolver {
	r := &Resolver{
		pkg:     pkg,
		info:    info,
		imports: make(map[string]*types.Package),
	}
	r.collect(pkg)
	return r
}

func (r *Resolver) collect(p *types.Package) {
	if p == nil {
		return
	}
	if _, seen := r.imports[p.Path()]; seen {
		return
	}
	r.imports[p.Path()] = p
	for _, imp := range p.Imports() {
		r.collect(imp)
	}
}

// Has reports whether the package, or the package member, named by ref is
// part of the compilation.
func (r *Resolver) Has(ref semantic.Reference) bool {
	path, member := ref.Split()
	p, ok := r.imports[path]
	if !ok {
		return false
	}
	if member == "" {
		return true
	}
	return p.Scope().Lookup(member) != nil
}

// Resolve returns what go/types knows about n. Calls resolve to their
// callee; identifiers and selectors to the object they use; any other
// expression to its type.
func (r *Resolver) Resolve(n syntax.Node) (semantic.Fact, bool) {
	gn, ok := n.(*Node)
	if !ok || gn.orig == nil || r.info == nil {
		return semantic.Fact{}, false
	}

	switch x := gn.orig.(type) {
	case *ast.CallExpr:
		if obj := r.callee(x); obj != nil {
			fact := factFor(obj)
			if t := r.info.TypeOf(x); t != nil {
				fact.Type = t.String()
				fact.Underlying = t.Underlying().String()
			}
			return fact, true
		}
	case *ast.Ident:
		if obj := r.info.ObjectOf(x); obj != nil {
			return factFor(obj), true
		}
	case *ast.SelectorExpr:
		if obj := r.info.ObjectOf(x.Sel); obj != nil {
			return factFor(obj), true
		}
	}

	if e, ok := gn.orig.(ast.Expr); ok {
		if tv, ok := r.info.Types[e]; ok && tv.Type != nil && tv.Type != types.Typ[types.Invalid] {
			fact := semantic.Fact{
				Kind:       semantic.FactValue,
				Type:       tv.Type.String(),
				Underlying: tv.Type.Underlying().String(),
			}
			if tv.Value != nil {
				fact.Kind = semantic.FactConstant
				fact.Value = tv.Value.ExactString()
			}
			return fact, true
		}
	}
	return semantic.Fact{}, false
}

func (r *Resolver) callee(call *ast.CallExpr) types.Object {
	switch fun := ast.Unparen(call.Fun).(type) {
	case *ast.Ident:
		return r.info.ObjectOf(fun)
	case *ast.SelectorExpr:
		return r.info.ObjectOf(fun.Sel)
	case *ast.IndexExpr:
		return r.calleeOfGeneric(fun.X)
	case *ast.IndexListExpr:
		return r.calleeOfGeneric(fun.X)
	}
	return nil
}

func (r *Resolver) calleeOfGeneric(e ast.Expr) types.Object {
	switch x := ast.Unparen(e).(type) {
	case *ast.Ident:
		return r.info.ObjectOf(x)
	case *ast.SelectorExpr:
		return r.info.ObjectOf(x.Sel)
	}
	return nil
}

func factFor(obj types.Object) semantic.Fact {
	fact := semantic.Fact{QualifiedName: qualifiedName(obj)}
	if t := obj.Type(); t != nil {
		fact.Type = t.String()
		fact.Underlying = t.Underlying().String()
	}

	switch o := obj.(type) {
	case *types.Func, *types.Builtin:
		fact.Kind = semantic.FactFunction
	case *types.TypeName:
		fact.Kind = semantic.FactType
	case *types.Var:
		fact.Kind = semantic.FactVariable
	case *types.Const:
		fact.Kind = semantic.FactConstant
		fact.Value = o.Val().ExactString()
	case *types.PkgName:
		fact.Kind = semantic.FactPackage
		fact.Type = ""
		fact.Underlying = ""
	case *types.Nil:
		fact.Kind = semantic.FactConstant
		fact.Value = "nil"
	default:
		fact.Kind = semantic.FactUnknown
	}
	return fact
}

func qualifiedName(obj types.Object) string {
	switch o := obj.(type) {
	case *types.Func:
		return o.FullName()
	case *types.PkgName:
		return o.Imported().Path()
	}
	if pkg := obj.Pkg(); pkg != nil && obj.Parent() == pkg.Scope() {
		return pkg.Path() + "." + obj.Name()
	}
	return obj.Name()
}
