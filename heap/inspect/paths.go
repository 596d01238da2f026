package inspect

import "github.com/joshuapare/marksweep/heap/alloc"

// Path is a chain of allocations from a target back to a root.
type Path []*alloc.Allocation

// PathsToRoots finds up to maxPaths shortest reference chains from target to
// a root, searching breadth-first over reverse edges. A chain never visits
// the same allocation twice.
func (g *Graph) PathsToRoots(target *alloc.Allocation, maxPaths int) []Path {
	from := g.IndexOf(target)
	if maxPaths <= 0 || from < 0 {
		return nil
	}

	isRoot := make([]bool, len(g.nodes))
	for _, r := range g.roots {
		isRoot[r] = true
	}
	if isRoot[from] {
		return []Path{{target}}
	}

	reverse := make([][]int, len(g.nodes))
	for v, n := range g.nodes {
		for _, w := range n.Edges {
			reverse[w] = append(reverse[w], v)
		}
	}

	type searchNode struct {
		id   int
		path []int
	}

	var result []Path
	queue := []searchNode{{id: from, path: []int{from}}}
	for head := 0; head < len(queue) && len(result) < maxPaths; head++ {
		node := queue[head]
		for _, ref := range reverse[node.id] {
			if containsInt(node.path, ref) {
				continue
			}
			path := make([]int, len(node.path)+1)
			copy(path, node.path)
			path[len(node.path)] = ref

			if isRoot[ref] {
				result = append(result, g.toPath(path))
				if len(result) >= maxPaths {
					break
				}
				continue
			}
			queue = append(queue, searchNode{id: ref, path: path})
		}
	}
	return result
}

func (g *Graph) toPath(ids []int) Path {
	p := make(Path, len(ids))
	for i, id := range ids {
		p[i] = g.nodes[id].Alloc
	}
	return p
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
