package mesh

import (
	"github.com/james-bowman/sparse"
)

// Incidence builds the element-to-node incidence matrix. Row i belongs to
// elemTags[i], column j to nodeTags[j], both in increasing tag order, and
// each entry is 1 where the element uses the node. Node references with no
// matching node are left out. Returns nil matrices for an empty mesh.
func (m *Mesh) Incidence() (EToN *sparse.CSR, elemTags, nodeTags []int) {
	elemTags, nodeTags = m.ElementTags(), m.NodeTags()
	if len(elemTags) == 0 || len(nodeTags) == 0 {
		return
	}
	col := make(map[int]int, len(nodeTags))
	for j, tag := range nodeTags {
		col[tag] = j
	}
	dok := sparse.NewDOK(len(elemTags), len(nodeTags))
	for i, et := range elemTags {
		for _, nt := range m.elements[et].Nodes {
			if j, ok := col[nt]; ok {
				dok.Set(i, j, 1)
			}
		}
	}
	EToN = dok.ToCSR()
	return
}

// ElementAdjacency returns the element-to-element matrix whose (i, j) entry
// counts the nodes elements i and j share, rows and columns ordered as the
// element tags returned alongside. The diagonal holds each element's own
// distinct node count.
func (m *Mesh) ElementAdjacency() (EToE *sparse.CSR, elemTags []int) {
	var EToN *sparse.CSR
	if EToN, elemTags, _ = m.Incidence(); EToN == nil {
		return
	}
	K := len(elemTags)
	EToE = sparse.NewCSR(K, K, nil, nil, nil)
	EToE.Mul(EToN, EToN.T())
	return
}

// ConnectedComponents counts the groups of elements linked through shared
// nodes.
func (m *Mesh) ConnectedComponents() int {
	EToE, elemTags := m.ElementAdjacency()
	if EToE == nil {
		return len(m.elements)
	}
	parent := make([]int, len(elemTags))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	n := len(elemTags)
	EToE.DoNonZero(func(i, j int, v float64) {
		if ri, rj := find(i), find(j); ri != rj {
			parent[ri] = rj
			n--
		}
	})
	return n
}
