// Package semantic defines what the engine may ask a host about symbols.
// Implementations live with the host; the engine only reads.
package semantic

import (
	"strings"

	"rulecheck/internal/syntax"
)

// Reference names an API surface a rule depends on: a package path
// ("crypto/md5") or a package member ("crypto/md5.New").
type Reference string

// Split separates the package path from the member name. The member is empty
// for a bare package reference. Only exported names count as members, so
// "gopkg.in/yaml.v3" stays a package path.
func (r Reference) Split() (pkg, member string) {
	s := string(r)
	slash := strings.LastIndex(s, "/")
	dot := strings.LastIndex(s, ".")
	if dot <= slash || dot == len(s)-1 {
		return s, ""
	}
	if first := s[dot+1]; first < 'A' || first > 'Z' {
		return s, ""
	}
	return s[:dot], s[dot+1:]
}

type FactKind int

const (
	FactUnknown FactKind = iota
	FactFunction
	FactType
	FactVariable
	FactConstant
	FactPackage
	FactValue
)

func (k FactKind) String() string {
	switch k {
	case FactFunction:
		return "function"
	case FactType:
		return "type"
	case FactVariable:
		return "variable"
	case FactConstant:
		return "constant"
	case FactPackage:
		return "package"
	case FactValue:
		return "value"
	default:
		return "unknown"
	}
}

// Fact is what a resolver knows about one node.
type Fact struct {
	Kind FactKind
	// QualifiedName is the exact API identity, "crypto/md5.New" or
	// "(*bytes.Buffer).WriteString". Empty for plain expressions.
	QualifiedName string
	// Type is the declared or inferred type of the node.
	Type string
	// Underlying is Type with named types stripped ("string" for a
	// "type Name string").
	Underlying string
	// Value is the constant value, when known.
	Value string
}

// Resolver answers semantic questions about nodes of one tree.
//
// A miss is an ordinary answer: Resolve returns false and Has returns false
// when the compilation does not contain what was asked for.
type Resolver interface {
	Resolve(n syntax.Node) (Fact, bool)
	Has(ref Reference) bool
}

// Empty is a resolver with no semantic information.
type Empty struct{}

func (Empty) Resolve(syntax.Node) (Fact, bool) { return Fact{}, false }
func (Empty) Has(Reference) bool               { return false }
