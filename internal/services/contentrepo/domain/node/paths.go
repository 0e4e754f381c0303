package node

import (
	"sort"
	"strings"
)

// NodePath is a slash separated sequence of node names relative to an
// aggregate, such as "main/column0".
type NodePath string

// NewNodePath joins names into a path.
func NewNodePath(names ...NodeName) NodePath {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, string(name))
	}
	return NodePath(strings.Join(parts, "/"))
}

// Append returns the path extended by name.
func (p NodePath) Append(name NodeName) NodePath {
	if p == "" {
		return NodePath(name)
	}
	return NodePath(string(p) + "/" + string(name))
}

// NodeAggregateIDsByNodePaths assigns aggregate ids to tethered descendants
// so that replaying a command yields the same ids.
type NodeAggregateIDsByNodePaths map[NodePath]NodeAggregateID

// Get returns the id assigned to path, if any.
func (m NodeAggregateIDsByNodePaths) Get(path NodePath) (NodeAggregateID, bool) {
	id, ok := m[path]
	return id, ok
}

// CompleteForPaths returns a copy with a fresh id for every path that has none.
func (m NodeAggregateIDsByNodePaths) CompleteForPaths(paths []NodePath, newID func() NodeAggregateID) NodeAggregateIDsByNodePaths {
	out := make(NodeAggregateIDsByNodePaths, len(m)+len(paths))
	for path, id := range m {
		out[path] = id
	}
	sorted := append([]NodePath(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, path := range sorted {
		if _, ok := out[path]; !ok {
			out[path] = newID()
		}
	}
	return out
}
