package syntax

// Cursor is a node plus its ancestors, root first. A cursor handed to an
// Inspect callback is only valid for the duration of that call.
type Cursor struct {
	node  Node
	stack []Node
}

// At returns a cursor for n with no known ancestors.
func At(n Node) Cursor {
	return Cursor{node: n}
}

func (c Cursor) Node() Node { return c.node }

// Parent returns the direct parent or nil at the root.
func (c Cursor) Parent() Node {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Enclosing returns the nearest ancestor of the given category.
func (c Cursor) Enclosing(cat Category) (Node, bool) {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if Classify(c.stack[i]) == cat {
			return c.stack[i], true
		}
	}
	return nil, false
}

// Depth counts the ancestors of the given category, stopping at the nearest
// ancestor of category stop (use CategoryUnrecognized to never stop).
func (c Cursor) Depth(cat, stop Category) int {
	depth := 0
	for i := len(c.stack) - 1; i >= 0; i-- {
		got := Classify(c.stack[i])
		if stop != CategoryUnrecognized && got == stop {
			break
		}
		if got == cat {
			depth++
		}
	}
	return depth
}

// Inspect walks the tree rooted at root in pre-order, children in source
// order. Returning false from fn skips the node's children.
func Inspect(root Node, fn func(Cursor) bool) {
	var stack []Node
	var walk func(n Node)
	walk = func(n Node) {
		if n == nil {
			return
		}
		if !fn(Cursor{node: n, stack: stack}) {
			return
		}
		stack = append(stack, n)
		for _, child := range n.Children() {
			walk(child)
		}
		stack = stack[:len(stack)-1]
	}
	walk(root)
}
