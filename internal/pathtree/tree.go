// Package pathtree implements a small generic tree keyed by path segments.
//
// The dex package uses it to index type descriptors by package path:
// "Lcom/example/Foo;" is stored under the segments "Lcom", "example" and "Foo;"
// so callers can list a package's classes without scanning every type id.
package pathtree

import (
	"iter"
	"slices"
	"strings"
)

// Separator splits paths into segments.
const Separator = "/"

// Node is one segment of the tree. Leaf values live on the node that ends a
// path; intermediate nodes may hold a value too when a path was added for them.
type Node[V any] struct {
	Name     string
	Parent   *Node[V]
	children map[string]*Node[V]
	order    []string // insertion order of children
	value    V
	hasValue bool
}

// Tree is the root of a path tree.
type Tree[V any] struct {
	root *Node[V]
	size int
}

// New creates an empty tree.
func New[V any]() *Tree[V] {
	return &Tree[V]{root: &Node[V]{}}
}

// Root returns the unnamed root node.
func (t *Tree[V]) Root() *Node[V] { return t.root }

// Len returns the number of paths holding a value.
func (t *Tree[V]) Len() int { return t.size }

// Add stores v at path, creating intermediate nodes as needed. Adding a path
// twice replaces its value.
func (t *Tree[V]) Add(path string, v V) *Node[V] {
	n := t.root
	for _, seg := range Split(path) {
		n = n.child(seg, true)
	}
	if !n.hasValue {
		t.size++
	}
	n.value = v
	n.hasValue = true
	return n
}

// Find returns the node at path, or nil when it does not exist.
func (t *Tree[V]) Find(path string) *Node[V] {
	n := t.root
	for _, seg := range Split(path) {
		n = n.child(seg, false)
		if n == nil {
			return nil
		}
	}
	return n
}

// Get returns the value stored at path.
func (t *Tree[V]) Get(path string) (V, bool) {
	n := t.Find(path)
	if n == nil || !n.hasValue {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Walk visits every node holding a value in depth-first insertion order,
// yielding its full path.
func (t *Tree[V]) Walk() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		t.root.walk(nil, yield)
	}
}

// Value returns the node's value and whether one was stored.
func (n *Node[V]) Value() (V, bool) { return n.value, n.hasValue }

// Children returns the node's children in insertion order.
func (n *Node[V]) Children() []*Node[V] {
	out := make([]*Node[V], 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.children[name])
	}
	return out
}

// Path rebuilds the node's full path from the root.
func (n *Node[V]) Path() string {
	var segs []string
	for cur := n; cur != nil && cur.Parent != nil; cur = cur.Parent {
		segs = append(segs, cur.Name)
	}
	slices.Reverse(segs)
	return strings.Join(segs, Separator)
}

func (n *Node[V]) child(name string, create bool) *Node[V] {
	if c, ok := n.children[name]; ok {
		return c
	}
	if !create {
		return nil
	}
	if n.children == nil {
		n.children = make(map[string]*Node[V])
	}
	c := &Node[V]{Name: name, Parent: n}
	n.children[name] = c
	n.order = append(n.order, name)
	return c
}

func (n *Node[V]) walk(prefix []string, yield func(string, V) bool) bool {
	if n.hasValue && !yield(strings.Join(prefix, Separator), n.value) {
		return false
	}
	for _, name := range n.order {
		if !n.children[name].walk(append(prefix, name), yield) {
			return false
		}
	}
	return true
}

// Split breaks path into non-empty segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, Separator)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
