package inspect

const (
	// SuperRoot is the immediate dominator of a node dominated by no other
	// node: a root, or a node reachable from several roots independently.
	SuperRoot = -1

	// Unreachable marks a node no root reaches.
	Unreachable = -2
)

// Dominators computes the immediate dominator of every node, treating the
// roots as children of a virtual super-root. Entries are node indexes,
// SuperRoot or Unreachable.
//
// The computation is the iterative data-flow formulation: nodes are visited
// in reverse postorder and each idom is the intersection of its processed
// predecessors' dominator chains, repeated until nothing changes.
func (g *Graph) Dominators() []int {
	idom, _ := g.dominators()
	out := make([]int, len(g.nodes))
	s := len(g.nodes)
	for v := range out {
		switch idom[v] {
		case -1:
			out[v] = Unreachable
		case s:
			out[v] = SuperRoot
		default:
			out[v] = idom[v]
		}
	}
	return out
}

// dominators returns idom over nodes plus the super-root (index len(nodes),
// its own idom; -1 for unreachable) and the postorder of the reachable nodes.
func (g *Graph) dominators() (idom, post []int) {
	n := len(g.nodes)
	s := n
	succ := func(v int) []int {
		if v == s {
			return g.roots
		}
		return g.nodes[v].Edges
	}

	order := make([]int, n+1)
	visited := make([]bool, n+1)
	post = make([]int, 0, n+1)

	type frame struct{ v, next int }
	stack := []frame{{v: s}}
	visited[s] = true
	for len(stack) > 0 {
		top := len(stack) - 1
		edges := succ(stack[top].v)
		if stack[top].next < len(edges) {
			w := edges[stack[top].next]
			stack[top].next++
			if !visited[w] {
				visited[w] = true
				stack = append(stack, frame{v: w})
			}
			continue
		}
		v := stack[top].v
		order[v] = len(post)
		post = append(post, v)
		stack = stack[:top]
	}

	preds := make([][]int, n+1)
	for _, r := range g.roots {
		preds[r] = append(preds[r], s)
	}
	for v := range g.nodes {
		if !visited[v] {
			continue
		}
		for _, w := range g.nodes[v].Edges {
			preds[w] = append(preds[w], v)
		}
	}

	idom = make([]int, n+1)
	for i := range idom {
		idom[i] = -1
	}
	idom[s] = s

	intersect := func(a, b int) int {
		for a != b {
			for order[a] < order[b] {
				a = idom[a]
			}
			for order[b] < order[a] {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		// post ends with the super-root; walk the rest in reverse postorder.
		for i := len(post) - 2; i >= 0; i-- {
			b := post[i]
			newIdom := -1
			for _, p := range preds[b] {
				if idom[p] == -1 {
					continue
				}
				if newIdom == -1 {
					newIdom = p
				} else {
					newIdom = intersect(p, newIdom)
				}
			}
			if idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom, post
}

// RetainedWords returns, per node, the words that would be freed if that node
// stopped being referenced: its own length plus everything it dominates.
// Unreachable nodes retain only themselves.
func (g *Graph) RetainedWords() []int {
	idom, post := g.dominators()
	s := len(g.nodes)

	retained := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		retained[i] = n.Alloc.Length
	}
	// A node's dominator finishes after it in any depth-first postorder.
	for _, v := range post {
		if v == s {
			continue
		}
		if p := idom[v]; p != s {
			retained[p] += retained[v]
		}
	}
	return retained
}
