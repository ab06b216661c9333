// Package hierarchy maintains the locally held, server-seeded tree of
// operator accounts and keeps it consistent after point mutations without
// a full re-fetch.
//
// The tree is an arena: a flat id-to-node map plus an id-to-children index,
// rather than a nested object graph. A point mutation touches one arena
// entry and bumps the revision of the node and every ancestor on its path,
// which is the observable "same node, new ancestors" signal observers use
// for change detection.
package hierarchy

import (
	"errors"
	"fmt"

	"cashbet-backoffice/internal/model"
)

// Tree construction errors.
var (
	ErrDuplicateID = errors.New("duplicate node id in hierarchy payload")
	ErrBadEdge     = errors.New("child creator id does not match parent")
)

// Tree is the arena-backed hierarchy. Not safe for concurrent use; the
// Service serializes access.
type Tree struct {
	rootID   string
	nodes    map[string]model.UserNode
	children map[string][]string
	parent   map[string]string
	revs     map[string]uint64
	rev      uint64
}

// Build flattens the nested subtree payload from the directory into an
// arena. It rejects payloads with duplicate ids or children whose creator
// id disagrees with their position.
func Build(root model.UserNode) (*Tree, error) {
	t := &Tree{
		rootID:   root.ID,
		nodes:    make(map[string]model.UserNode),
		children: make(map[string][]string),
		parent:   make(map[string]string),
		revs:     make(map[string]uint64),
	}
	if err := t.insert(root, ""); err != nil {
		return nil, err
	}
	return t, nil
}

// insert adds one node and recurses into its children.
func (t *Tree) insert(node model.UserNode, parentID string) error {
	if node.ID == "" {
		return fmt.Errorf("node under %q has no id", parentID)
	}
	if _, exists := t.nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, node.ID)
	}
	if parentID != "" && node.CreatorID != "" && node.CreatorID != parentID {
		return fmt.Errorf("%w: node %s claims creator %s, nested under %s",
			ErrBadEdge, node.ID, node.CreatorID, parentID)
	}

	kids := node.Children
	node.Children = nil // arena entries never carry nested children
	if parentID != "" {
		node.CreatorID = parentID
		t.parent[node.ID] = parentID
		t.children[parentID] = append(t.children[parentID], node.ID)
	}
	t.nodes[node.ID] = node
	t.revs[node.ID] = 0

	for _, child := range kids {
		if err := t.insert(child, node.ID); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// RootID returns the root node id, or "" for an empty tree.
func (t *Tree) RootID() string {
	return t.rootID
}

// IDs returns the set of node ids currently in the tree.
func (t *Tree) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(t.nodes))
	for id := range t.nodes {
		ids[id] = struct{}{}
	}
	return ids
}

// Node looks up one node by id. The second return is false on a miss.
func (t *Tree) Node(id string) (model.UserNode, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// ParentOf returns a node's parent id, or "" for the root and unknown ids.
func (t *Tree) ParentOf(id string) string {
	return t.parent[id]
}

// ChildIDs returns a node's direct child ids in payload order.
func (t *Tree) ChildIDs(id string) []string {
	return append([]string(nil), t.children[id]...)
}

// Rev returns a node's revision. Observers compare revisions to detect
// that a node or something beneath it changed.
func (t *Tree) Rev(id string) uint64 {
	return t.revs[id]
}

// Patch replaces a node's username and role in place, preserving its
// children and position, and refreshes the revision of the node and every
// ancestor on its path. Reports whether the node existed.
func (t *Tree) Patch(id string, username string, role model.Role) bool {
	node, ok := t.nodes[id]
	if !ok {
		return false
	}
	node.Username = username
	node.Role = role
	t.nodes[id] = node
	t.touchPath(id)
	return true
}

// RemoveSubtree removes a node and its entire subtree, with no
// re-parenting, and returns the set of removed ids. Ancestors that remain
// get their revisions refreshed. Removing the root empties the tree.
func (t *Tree) RemoveSubtree(id string) map[string]struct{} {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}

	removed := make(map[string]struct{})
	t.collect(id, removed)

	parentID := t.parent[id]
	for rid := range removed {
		delete(t.nodes, rid)
		delete(t.children, rid)
		delete(t.parent, rid)
		delete(t.revs, rid)
	}
	if parentID != "" {
		kids := t.children[parentID]
		for i, kid := range kids {
			if kid == id {
				t.children[parentID] = append(kids[:i:i], kids[i+1:]...)
				break
			}
		}
		t.touchPath(parentID)
	}
	if id == t.rootID {
		t.rootID = ""
	}
	return removed
}

// collect gathers id and all descendant ids into set.
func (t *Tree) collect(id string, set map[string]struct{}) {
	set[id] = struct{}{}
	for _, kid := range t.children[id] {
		t.collect(kid, set)
	}
}

// touchPath bumps the revision of id and every ancestor up to the root.
func (t *Tree) touchPath(id string) {
	t.rev++
	for cur := id; cur != ""; cur = t.parent[cur] {
		t.revs[cur] = t.rev
	}
}

// Export rebuilds the nested payload shape, children in arena order.
// Returns false for an empty tree.
func (t *Tree) Export() (model.UserNode, bool) {
	if t.rootID == "" {
		return model.UserNode{}, false
	}
	return t.export(t.rootID), true
}

func (t *Tree) export(id string) model.UserNode {
	node := t.nodes[id]
	for _, kid := range t.children[id] {
		node.Children = append(node.Children, t.export(kid))
	}
	return node
}
