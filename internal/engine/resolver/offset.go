package resolver

import "solnav/internal/engine/ast"

// FindOffset returns the first node in document order whose interval
// contains off, or nil. First-match wins on overlapping intervals: callers
// pass the most specific list relevant at their recursion level.
func FindOffset(nodes []ast.Node, off int) ast.Node {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.GetSpan().Contains(off) {
			return n
		}
	}
	return nil
}
