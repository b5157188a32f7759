package syntax

// Normalize strips parenthesized wrappers until a node of another kind is
// reached. Nodes of any other kind are returned unchanged, so
// Normalize(Normalize(n)) == Normalize(n).
func Normalize(n Node) Node {
	for n != nil && n.Kind() == KindParenthesized {
		inner := Child(n, 0)
		if inner == nil {
			// "()" with nothing inside; keep the wrapper rather than lose the node.
			return n
		}
		n = inner
	}
	return n
}
