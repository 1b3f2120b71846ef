package channel

import (
	"fmt"
	"io"
	"strings"
)

// Walk visits root and every descendant depth-first, parents before children.
// Returning false from fn stops the walk.
//
// Parameters:
//   - root: the tree to visit, may be nil
//   - fn: called with each node and its depth (root = 0)
//
// Returns:
//   - bool: false if the walk was stopped early
func Walk(root Node, fn func(n Node, depth int) bool) bool {
	return walk(root, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children() {
		if !walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

// Contains reports whether target appears anywhere in the tree rooted at root.
//
// Parameters:
//   - root: the tree to search
//   - target: the node to look for
//
// Returns:
//   - bool: true if found
func Contains(root, target Node) bool {
	found := false
	Walk(root, func(n Node, _ int) bool {
		if n == target {
			found = true
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the tree rooted at root.
func Count(root Node) int {
	total := 0
	Walk(root, func(Node, int) bool {
		total++
		return true
	})
	return total
}

// Dump writes an indented description of the tree, one node per line.
//
// Parameters:
//   - w: the destination
//   - root: the tree to describe
//   - depth: indentation level of root
//
// Returns:
//   - error: the first write error
func Dump(w io.Writer, root Node, depth int) error {
	var err error
	Walk(root, func(n Node, d int) bool {
		_, err = fmt.Fprintf(w, "%s- %s %s [%s]\n", strings.Repeat("  ", depth+d), n.Variant(), n.Kind(), n.Owner())
		return err == nil
	})
	return err
}
