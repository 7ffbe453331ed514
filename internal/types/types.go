// Package types provides the small shared vocabulary of the filter editor:
// the wire separator, index paths into an expression tree, and the error
// kinds every layer reports.
package types

import (
	"strconv"
	"strings"
)

// PathSeparator joins field-path segments and the trailing lookup in the
// wire form of a condition, e.g. "user__last_login__gt".
const PathSeparator = "__"

// IndexPath addresses a node by the child indices walked from the root.
// Negation wrappers do not consume an index.
type IndexPath []int

// Parent returns the address of the enclosing group. The root has no parent.
func (p IndexPath) Parent() (IndexPath, bool) {
	if len(p) == 0 {
		return nil, false
	}
	return p[:len(p)-1:len(p)-1], true
}

// Last returns the final index, or -1 for the root.
func (p IndexPath) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

// Child returns a new path addressing the i-th child of p.
func (p IndexPath) Child(i int) IndexPath {
	out := make(IndexPath, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// IsRoot reports whether p addresses the root expression.
func (p IndexPath) IsRoot() bool { return len(p) == 0 }

func (p IndexPath) String() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "/" + strings.Join(parts, "/")
}
