package rules

import (
	"slices"
	"strings"

	"rulecheck/internal/engine"
	"rulecheck/internal/semantic"
	"rulecheck/internal/syntax"
)

type weakAlgorithm struct {
	key   string
	name  string
	pkg   string
	funcs []string
}

var weakAlgorithms = []weakAlgorithm{
	{key: "md5", name: "MD5", pkg: "crypto/md5", funcs: []string{"New", "Sum"}},
	{key: "sha1", name: "SHA-1", pkg: "crypto/sha1", funcs: []string{"New", "Sum"}},
	{key: "des", name: "DES", pkg: "crypto/des", funcs: []string{"NewCipher", "NewTripleDESCipher"}},
	{key: "rc4", name: "RC4", pkg: "crypto/rc4", funcs: []string{"NewCipher"}},
}

// WeakCrypto returns the rule flagging calls into one broken algorithm
// ("md5", "sha1", "des" or "rc4"). It panics on an unknown key.
func WeakCrypto(key string) engine.Signature {
	i := slices.IndexFunc(weakAlgorithms, func(a weakAlgorithm) bool { return a.key == key })
	if i < 0 {
		panic("rules: unknown weak algorithm " + key)
	}
	alg := weakAlgorithms[i]

	qualified := make([]string, len(alg.funcs))
	for i, fn := range alg.funcs {
		qualified[i] = alg.pkg + "." + fn
	}

	return engine.Signature{
		ID:         "weak-crypto-" + alg.key,
		Name:       "Weak cryptographic algorithm (" + alg.name + ")",
		Severity:   engine.SeverityHigh,
		Message:    "{callee} uses {algorithm}, which is cryptographically broken; use SHA-256 or AES-GCM instead",
		Bindings:   []string{"callee", "algorithm"},
		Categories: []syntax.Category{syntax.CategoryInvocation},
		Requires:   []semantic.Reference{semantic.Reference(alg.pkg)},
		Structural: func(c syntax.Cursor) (engine.Bindings, bool) {
			n := c.Node()
			callee := n.Text()
			name := callee[strings.LastIndex(callee, ".")+1:]
			if !slices.Contains(alg.funcs, name) {
				return nil, false
			}
			return engine.Bindings{
				"callee":    {Text: callee, Span: n.Span()},
				"algorithm": {Text: alg.name, Span: n.Span()},
			}, true
		},
		Semantic: func(c syntax.Cursor, _ engine.Bindings, r semantic.Resolver) bool {
			fact, ok := r.Resolve(c.Node())
			return ok && fact.Kind == semantic.FactFunction && slices.Contains(qualified, fact.QualifiedName)
		},
	}
}
