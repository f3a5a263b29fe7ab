package util

// Graph is a directed graph over vertices 0..n-1 as adjacency lists
type Graph [][]int

func NewGraph(vertices int) Graph { return make(Graph, vertices) }

func (g Graph) AddEdge(from, to int) {
	if !g.HasEdge(from, to) {
		g[from] = append(g[from], to)
	}
}

func (g Graph) HasEdge(from, to int) bool {
	for _, succ := range g[from] {
		if succ == to {
			return true
		}
	}
	return false
}

// SCC returns the strongly connected components of g (Tarjan). A component
// comes after every component it has an edge into, so when edges point from a
// vertex to what it depends on, the components are in resolution order.
func (g Graph) SCC() [][]int {
	t := &tarjan{
		graph:   g,
		index:   make([]int, len(g)),
		lowLink: make([]int, len(g)),
		onStack: make([]bool, len(g)),
	}
	for v := range g {
		if t.index[v] == 0 {
			t.visit(v)
		}
	}
	return t.components
}

// IsCyclic reports whether the component participates in a cycle
func (g Graph) IsCyclic(component []int) bool {
	return len(component) > 1 || g.HasEdge(component[0], component[0])
}

type tarjan struct {
	graph      Graph
	counter    int
	index      []int
	lowLink    []int
	onStack    []bool
	stack      Stack[int]
	components [][]int
}

func (t *tarjan) visit(v int) {
	t.counter++
	t.index[v] = t.counter
	t.lowLink[v] = t.counter
	t.stack.Push(v)
	t.onStack[v] = true

	for _, succ := range t.graph[v] {
		switch {
		case t.index[succ] == 0:
			t.visit(succ)
			t.lowLink[v] = min(t.lowLink[v], t.lowLink[succ])
		case t.onStack[succ]:
			t.lowLink[v] = min(t.lowLink[v], t.index[succ])
		}
	}

	if t.lowLink[v] != t.index[v] {
		return
	}
	var component []int
	for {
		w, _ := t.stack.Pop()
		t.onStack[w] = false
		component = append(component, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, component)
}
