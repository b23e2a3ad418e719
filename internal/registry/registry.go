// Package registry holds the static tree of addressable resource paths that
// permissions are validated against. The tree is configuration, not runtime
// state: it is built once at process start and shared by reference.
package registry

import "strings"

// Node is a single addressable segment in the module tree.
type Node struct {
	Key      string
	Children map[string]Node
}

// Registry is the immutable root set of module nodes.
type Registry struct {
	roots map[string]Node
}

// New builds a registry from the given root nodes. Keys are lowercased so
// lookups match the canonical wire format.
func New(roots ...Node) *Registry {
	m := make(map[string]Node, len(roots))
	for _, n := range roots {
		m[strings.ToLower(n.Key)] = canonicalise(n)
	}
	return &Registry{roots: m}
}

// Default returns the registry for the admin application's module tree.
func Default() *Registry {
	return New(
		Node{Key: "profile"},
		Node{Key: "settings"},
		Node{Key: "activity"},
		Node{Key: "security", Children: map[string]Node{
			"email":    {Key: "email"},
			"sessions": {Key: "sessions"},
		}},
		Node{Key: "users"},
		Node{Key: "roles"},
		Node{Key: "contacts"},
		Node{Key: "content"},
	)
}

// IsValidPath walks the tree matching each dot-separated segment. An empty
// path is never valid.
func (r *Registry) IsValidPath(path string) bool {
	if path == "" {
		return false
	}
	segments := strings.Split(path, ".")
	current := r.roots
	var node Node
	for _, seg := range segments {
		var ok bool
		node, ok = current[seg]
		if !ok {
			return false
		}
		current = node.Children
	}
	return true
}

// Roots returns the top-level nodes, for the permission matrix listing.
func (r *Registry) Roots() []Node {
	out := make([]Node, 0, len(r.roots))
	for _, n := range r.roots {
		out = append(out, n)
	}
	return out
}

func canonicalise(n Node) Node {
	key := strings.ToLower(n.Key)
	children := make(map[string]Node, len(n.Children))
	for _, c := range n.Children {
		cc := canonicalise(c)
		children[cc.Key] = cc
	}
	return Node{Key: key, Children: children}
}
