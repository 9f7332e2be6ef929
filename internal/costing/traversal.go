// Package costing derives cost, nutrition and allergen figures for an item
// by walking its component graph. All functions are pure: they read the
// root item and the catalog snapshot and never modify either, so they are
// safe to call concurrently against a shared catalog.
package costing

import (
	"kitchen-inventory/internal/inventory"
)

// ancestors is the immutable chain of item ids from the root down to the
// item currently being evaluated. Each recursive call extends it without
// touching the parent's chain, so two sibling branches that share a
// sub-recipe both reach it; only a revisit of an ancestor is a cycle.
type ancestors struct {
	id     string
	parent *ancestors
}

func rootPath(root inventory.Item) *ancestors {
	if root.ID == "" {
		return nil
	}
	return &ancestors{id: root.ID}
}

func (a *ancestors) push(id string) *ancestors {
	return &ancestors{id: id, parent: a}
}

func (a *ancestors) contains(id string) bool {
	for p := a; p != nil; p = p.parent {
		if p.id == id {
			return true
		}
	}
	return false
}

type edge int

const (
	edgeResolved edge = iota
	// edgeUnresolved covers ghosts and ids missing from the catalog.
	edgeUnresolved
	// edgeCycle is an edge back to an ancestor on the current path.
	edgeCycle
)

// resolve follows a component edge.
func resolve(c inventory.Component, items inventory.Catalog, path *ancestors) (inventory.Item, edge) {
	if c.IsGhost() {
		return inventory.Item{}, edgeUnresolved
	}
	id := *c.ItemID
	if id == "" {
		return inventory.Item{}, edgeUnresolved
	}
	if path.contains(id) {
		return inventory.Item{}, edgeCycle
	}
	it, ok := items.Lookup(id)
	if !ok {
		return inventory.Item{}, edgeUnresolved
	}
	return it, edgeResolved
}
