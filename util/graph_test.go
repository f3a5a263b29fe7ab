package util

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSCC(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]int
		n     int
		want  [][]int
	}{
		{"no edges", nil, 3, [][]int{{0}, {1}, {2}}},
		{"chain", [][2]int{{0, 1}, {1, 2}}, 3, [][]int{{2}, {1}, {0}}},
		{"cycle", [][2]int{{0, 1}, {1, 0}, {1, 2}}, 3, [][]int{{2}, {0, 1}}},
		{"self loop", [][2]int{{0, 0}}, 1, [][]int{{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(tt.n)
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}
			components := g.SCC()
			for _, c := range components {
				slices.Sort(c)
			}
			assert.Equal(t, tt.want, components)
		})
	}
}

func TestIsCyclic(t *testing.T) {
	g := NewGraph(3)
	g.AddEdge(0, 0)
	g.AddEdge(1, 2)
	g.AddEdge(1, 2)
	assert.Len(t, g[1], 1, "edges are not duplicated")
	assert.True(t, g.IsCyclic([]int{0}))
	assert.False(t, g.IsCyclic([]int{1}))
	assert.True(t, g.IsCyclic([]int{1, 2}))
}

func TestStack(t *testing.T) {
	var s Stack[int]
	s.Push(1)
	s.Push(2)
	v, ok := s.Pop()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	s.Push(3)
	v, _ = s.Pop()
	assert.Equal(t, 3, v)
	v, _ = s.Pop()
	assert.Equal(t, 1, v)
	_, ok = s.Pop()
	assert.False(t, ok)
}
