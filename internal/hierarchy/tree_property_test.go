// Property-based tests for the hierarchy arena.
package hierarchy

import (
	"fmt"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"cashbet-backoffice/internal/model"
)

// genTree draws a random rooted tree with n nodes by attaching each new
// node to a random earlier one, the same shape the directory produces.
func genTree(t *rapid.T) (model.UserNode, map[string]string) {
	n := rapid.IntRange(1, 40).Draw(t, "nodes")

	parentOf := make(map[string]string, n)
	childrenOf := make(map[string][]string, n)
	ids := make([]string, 0, n)

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n%d", i)
		if i > 0 {
			parent := ids[rapid.IntRange(0, i-1).Draw(t, fmt.Sprintf("parent%d", i))]
			parentOf[id] = parent
			childrenOf[parent] = append(childrenOf[parent], id)
		}
		ids = append(ids, id)
	}

	var nest func(id string) model.UserNode
	nest = func(id string) model.UserNode {
		node := model.UserNode{
			ID:        id,
			Username:  "u-" + id,
			Role:      model.RoleUser,
			CreatorID: parentOf[id],
		}
		for _, kid := range childrenOf[id] {
			node.Children = append(node.Children, nest(kid))
		}
		return node
	}
	return nest(ids[0]), parentOf
}

// TestBuildEdgesProperty: for any payload, node count and every
// parent-child edge survive the flattening.
func TestBuildEdgesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload, parentOf := genTree(t)

		tree, err := Build(payload)
		if err != nil {
			t.Fatalf("Build failed on valid payload: %v", err)
		}

		if tree.Len() != len(parentOf)+1 {
			t.Fatalf("node count mismatch: got %d, want %d", tree.Len(), len(parentOf)+1)
		}
		for id := range tree.IDs() {
			if got, want := tree.ParentOf(id), parentOf[id]; got != want {
				t.Fatalf("edge mismatch for %s: got parent %q, want %q", id, got, want)
			}
		}
	})
}

// TestRemoveSubtreeProperty: removing any node removes exactly the node
// and its descendants; the complement is structurally untouched.
func TestRemoveSubtreeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload, _ := genTree(t)
		tree, err := Build(payload)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		all := make([]string, 0, tree.Len())
		for id := range tree.IDs() {
			all = append(all, id)
		}
		victim := rapid.SampledFrom(all).Draw(t, "victim")

		// Compute the expected descendant set independently.
		expected := map[string]struct{}{}
		var walk func(id string)
		walk = func(id string) {
			expected[id] = struct{}{}
			for _, kid := range tree.ChildIDs(id) {
				walk(kid)
			}
		}
		walk(victim)

		before := map[string]model.UserNode{}
		for id := range tree.IDs() {
			n, _ := tree.Node(id)
			before[id] = n
		}

		removed := tree.RemoveSubtree(victim)

		if len(removed) != len(expected) {
			t.Fatalf("removed %d nodes, want %d", len(removed), len(expected))
		}
		for id := range expected {
			if _, stillThere := tree.Node(id); stillThere {
				t.Fatalf("node %s should have been removed", id)
			}
		}
		for id, prior := range before {
			if _, gone := expected[id]; gone {
				continue
			}
			now, ok := tree.Node(id)
			if !ok {
				t.Fatalf("survivor %s vanished", id)
			}
			if !reflect.DeepEqual(now, prior) {
				t.Fatalf("survivor %s changed: %+v -> %+v", id, prior, now)
			}
		}
	})
}

// TestPatchAncestorPathProperty: a patch refreshes revisions exactly on
// the target-to-root path and changes exactly one node's fields.
func TestPatchAncestorPathProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		payload, parentOf := genTree(t)
		tree, err := Build(payload)
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}

		all := make([]string, 0, tree.Len())
		for id := range tree.IDs() {
			all = append(all, id)
		}
		target := rapid.SampledFrom(all).Draw(t, "target")

		path := map[string]struct{}{}
		for cur := target; cur != ""; cur = parentOf[cur] {
			path[cur] = struct{}{}
		}

		revBefore := map[string]uint64{}
		for id := range tree.IDs() {
			revBefore[id] = tree.Rev(id)
		}

		if !tree.Patch(target, "renamed", model.RoleAgent) {
			t.Fatalf("Patch missed existing node %s", target)
		}

		for id := range tree.IDs() {
			onPath := false
			if _, ok := path[id]; ok {
				onPath = true
			}
			changed := tree.Rev(id) != revBefore[id]
			if onPath != changed {
				t.Fatalf("revision of %s: onPath=%v changed=%v", id, onPath, changed)
			}
		}
	})
}
