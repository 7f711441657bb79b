package expr

// Children returns the direct sub-expressions of e in evaluation order.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *Call:
		children := make([]Expr, 0, len(n.Args)+1)
		if n.Receiver != nil {
			children = append(children, n.Receiver)
		}
		return append(children, n.Args...)
	case *MemberAccess:
		if n.Receiver != nil {
			return []Expr{n.Receiver}
		}
	case *Binary:
		return []Expr{n.X, n.Y}
	case *Unary:
		return []Expr{n.X}
	case *Convert:
		return []Expr{n.X}
	case *Lambda:
		return []Expr{n.Body}
	}
	return nil
}

// Inspect traverses e in depth-first order, like ast.Inspect. If f returns
// false the children of the node are skipped.
func Inspect(e Expr, f func(Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	for _, c := range Children(e) {
		Inspect(c, f)
	}
}

// References reports whether e refers to the mocked instance anywhere.
func References(e Expr) bool {
	found := false
	Inspect(e, func(n Expr) bool {
		if _, ok := n.(*Instance); ok {
			found = true
		}
		return !found
	})
	return found
}

// Rewrite rebuilds e bottom-up, replacing every node by f applied to the node
// with already rewritten children. Nodes are copied, e is left untouched.
func Rewrite(e Expr, f func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *Call:
		c := *n
		if n.Receiver != nil {
			c.Receiver = Rewrite(n.Receiver, f)
		}
		c.Args = make([]Expr, len(n.Args))
		for i, a := range n.Args {
			c.Args[i] = Rewrite(a, f)
		}
		return f(&c)
	case *MemberAccess:
		c := *n
		if n.Receiver != nil {
			c.Receiver = Rewrite(n.Receiver, f)
		}
		return f(&c)
	case *Binary:
		c := *n
		c.X = Rewrite(n.X, f)
		c.Y = Rewrite(n.Y, f)
		return f(&c)
	case *Unary:
		c := *n
		c.X = Rewrite(n.X, f)
		return f(&c)
	case *Convert:
		c := *n
		c.X = Rewrite(n.X, f)
		return f(&c)
	case *Lambda:
		c := *n
		c.Body = Rewrite(n.Body, f)
		return f(&c)
	default:
		return f(e)
	}
}
