// Package inspect builds a read-only object graph from a heap and answers
// questions about it without collecting: what a collection would free, why
// an allocation is still live, and how many words each allocation retains.
//
// The graph follows the same pointer rules as the tracer in package gc, so a
// node is reachable here exactly when the next collection with the same roots
// would keep it.
package inspect

import (
	"fmt"

	"github.com/joshuapare/marksweep/heap"
	"github.com/joshuapare/marksweep/heap/alloc"
	"github.com/joshuapare/marksweep/internal/format"
)

// Node is one live allocation and its outgoing references.
type Node struct {
	Alloc *alloc.Allocation
	Edges []int // indexes of referenced nodes, without duplicates or self-edges
}

// Graph is a snapshot of the heap's reference structure. It is invalidated
// by any later mutation of the heap.
type Graph struct {
	nodes   []Node
	byAlloc map[*alloc.Allocation]int
	roots   []int
}

// Build snapshots the live allocations of t, the references between them
// stored in h, and the given roots.
func Build(h *heap.Heap, t *alloc.Table, roots []*alloc.Allocation) (*Graph, error) {
	live := t.Live()
	g := &Graph{
		nodes:   make([]Node, len(live)),
		byAlloc: make(map[*alloc.Allocation]int, len(live)),
	}
	for i, a := range live {
		g.nodes[i].Alloc = a
		g.byAlloc[a] = i
	}

	words := h.Words()
	seen := make(map[int]struct{})
	for i, a := range live {
		clear(seen)
		for j, v := range words[a.Start:a.End()] {
			if !format.IsPointer(v) || v == format.TagAddr(a.Start+j) {
				continue
			}
			target, ok := t.Lookup(v)
			if !ok {
				continue
			}
			k := g.byAlloc[target]
			if k == i {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			g.nodes[i].Edges = append(g.nodes[i].Edges, k)
		}
	}

	for _, r := range roots {
		if r == nil {
			continue
		}
		k, ok := g.byAlloc[r]
		if !ok {
			return nil, fmt.Errorf("inspect: root %v: %w", r, alloc.ErrNotLive)
		}
		g.roots = append(g.roots, k)
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns node i.
func (g *Graph) Node(i int) Node { return g.nodes[i] }

// IndexOf returns the node index of a, or -1.
func (g *Graph) IndexOf(a *alloc.Allocation) int {
	if i, ok := g.byAlloc[a]; ok {
		return i
	}
	return -1
}

// Reachable reports, per node, whether it is reachable from the roots.
func (g *Graph) Reachable() []bool {
	reached := make([]bool, len(g.nodes))
	queue := make([]int, 0, len(g.roots))
	for _, r := range g.roots {
		if !reached[r] {
			reached[r] = true
			queue = append(queue, r)
		}
	}
	for head := 0; head < len(queue); head++ {
		for _, w := range g.nodes[queue[head]].Edges {
			if !reached[w] {
				reached[w] = true
				queue = append(queue, w)
			}
		}
	}
	return reached
}

// Garbage returns the allocations a collection with the same roots would
// free, in address order.
func (g *Graph) Garbage() []*alloc.Allocation {
	var out []*alloc.Allocation
	for i, ok := range g.Reachable() {
		if !ok {
			out = append(out, g.nodes[i].Alloc)
		}
	}
	return out
}
