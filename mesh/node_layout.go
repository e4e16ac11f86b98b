package mesh

// Node layouts place every node of an element type on the integer lattice
// of its reference shape: a node tuple has one coordinate per dimension,
// each between 0 and the order. Simplex tuples sum to at most the order.
//
// Gmsh lists vertices first, then edge nodes edge by edge, then face nodes
// and finally interior nodes, the interior being ordered recursively as a
// lower order element of the same family.

type nodeLayout struct {
	tuples  [][]int // Gmsh order
	lex     [][]int // Lexicographic order, first coordinate varying fastest
	indices []int   // lex[i] == tuples[indices[i]]
}

var nodeLayouts = buildNodeLayouts()

func buildNodeLayouts() map[ElementType]*nodeLayout {
	layouts := make(map[ElementType]*nodeLayout)
	for et, info := range elementTypes {
		var (
			p      = info.order
			full   = !info.incomplete
			tuples [][]int
		)
		switch info.family {
		case PointFamily:
			tuples = [][]int{{}}
		case LineFamily:
			tuples = lineTuples(p)
		case TriangleFamily:
			tuples = triangleTuples(p, full)
		case TetFamily:
			tuples = tetTuples(p)
		case QuadFamily:
			tuples = quadTuples(p, full)
		case HexFamily:
			tuples = hexTuples(p, full)
		}
		if tuples == nil || len(tuples) != info.numNodes {
			continue
		}
		simplex := info.family != QuadFamily && info.family != HexFamily
		layouts[et] = newNodeLayout(tuples, p, info.family.Dimension(), simplex)
	}
	return layouts
}

func newNodeLayout(tuples [][]int, p, dim int, simplex bool) *nodeLayout {
	index := make(map[[3]int]int, len(tuples))
	for i, t := range tuples {
		index[tupleKey(t)] = i
	}
	nl := &nodeLayout{tuples: tuples}
	total := 1
	for d := 0; d < dim; d++ {
		total *= p + 1
	}
	for k := 0; k < total; k++ {
		t := make([]int, dim)
		sum := 0
		for d, rem := 0, k; d < dim; d++ {
			t[d] = rem % (p + 1)
			rem /= p + 1
			sum += t[d]
		}
		if simplex && sum > p {
			continue
		}
		// Incomplete types lack some lattice points
		i, ok := index[tupleKey(t)]
		if !ok {
			continue
		}
		nl.lex = append(nl.lex, t)
		nl.indices = append(nl.indices, i)
	}
	return nl
}

func tupleKey(t []int) (k [3]int) {
	copy(k[:], t)
	return
}

// lerp returns the lattice point a + (b-a)*u/p + (c-a)*v/p. Vertex
// coordinates are 0 or p, so the divisions are exact.
func lerp(a, b, c []int, u, v, p int) []int {
	t := make([]int, len(a))
	for d := range t {
		t[d] = a[d] + (b[d]-a[d])*u/p + (c[d]-a[d])*v/p
	}
	return t
}

func shifted(tuples [][]int) [][]int {
	for _, t := range tuples {
		for d := range t {
			t[d]++
		}
	}
	return tuples
}

// edgeTuples appends the p-1 interior nodes of each edge, walking from
// the first vertex of the edge to the second.
func edgeTuples(tuples [][]int, verts [][]int, edges [][2]int, p int) [][]int {
	for _, e := range edges {
		a, b := verts[e[0]], verts[e[1]]
		for i := 1; i < p; i++ {
			tuples = append(tuples, lerp(a, b, a, i, 0, p))
		}
	}
	return tuples
}

func lineTuples(p int) [][]int {
	tuples := [][]int{{0}, {p}}
	for i := 1; i < p; i++ {
		tuples = append(tuples, []int{i})
	}
	return tuples
}

func triangleTuples(p int, interior bool) [][]int {
	if p == 0 {
		return [][]int{{0, 0}}
	}
	verts := [][]int{{0, 0}, {p, 0}, {0, p}}
	tuples := append([][]int{}, verts...)
	tuples = edgeTuples(tuples, verts, [][2]int{{0, 1}, {1, 2}, {2, 0}}, p)
	if interior && p >= 3 {
		tuples = append(tuples, shifted(triangleTuples(p-3, true))...)
	}
	return tuples
}

func quadTuples(p int, interior bool) [][]int {
	if p == 0 {
		return [][]int{{0, 0}}
	}
	verts := [][]int{{0, 0}, {p, 0}, {p, p}, {0, p}}
	tuples := append([][]int{}, verts...)
	tuples = edgeTuples(tuples, verts, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}, p)
	if interior && p >= 2 {
		tuples = append(tuples, shifted(quadTuples(p-2, true))...)
	}
	return tuples
}

func tetTuples(p int) [][]int {
	if p == 0 {
		return [][]int{{0, 0, 0}}
	}
	verts := [][]int{{0, 0, 0}, {p, 0, 0}, {0, p, 0}, {0, 0, p}}
	tuples := append([][]int{}, verts...)
	tuples = edgeTuples(tuples, verts,
		[][2]int{{0, 1}, {1, 2}, {2, 0}, {3, 0}, {3, 2}, {3, 1}}, p)
	if p >= 3 {
		for _, f := range [][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {3, 1, 2}} {
			for _, uv := range shifted(triangleTuples(p-3, true)) {
				tuples = append(tuples, lerp(verts[f[0]], verts[f[1]], verts[f[2]], uv[0], uv[1], p))
			}
		}
	}
	if p >= 4 {
		tuples = append(tuples, shifted(tetTuples(p-4))...)
	}
	return tuples
}

func hexTuples(p int, interior bool) [][]int {
	if p == 0 {
		return [][]int{{0, 0, 0}}
	}
	verts := [][]int{
		{0, 0, 0}, {p, 0, 0}, {p, p, 0}, {0, p, 0},
		{0, 0, p}, {p, 0, p}, {p, p, p}, {0, p, p},
	}
	tuples := append([][]int{}, verts...)
	tuples = edgeTuples(tuples, verts, [][2]int{
		{0, 1}, {0, 3}, {0, 4}, {1, 2}, {1, 5}, {2, 3},
		{2, 6}, {3, 7}, {4, 5}, {4, 7}, {5, 6}, {6, 7},
	}, p)
	if !interior || p < 2 {
		return tuples
	}
	for _, f := range [][4]int{{0, 3, 2, 1}, {0, 1, 5, 4}, {0, 4, 7, 3}, {1, 2, 6, 5}, {2, 3, 7, 6}, {4, 5, 6, 7}} {
		for _, uv := range shifted(quadTuples(p-2, true)) {
			tuples = append(tuples, lerp(verts[f[0]], verts[f[1]], verts[f[3]], uv[0], uv[1], p))
		}
	}
	return append(tuples, shifted(hexTuples(p-2, true))...)
}

func cloneTuples(tuples [][]int) [][]int {
	out := make([][]int, len(tuples))
	for i, t := range tuples {
		out[i] = append([]int{}, t...)
	}
	return out
}

// NodeTuples returns the lattice position of every node in Gmsh order, or
// nil for types without a known layout (prisms, pyramids and their
// incomplete variants).
func (et ElementType) NodeTuples() [][]int {
	if nl, ok := nodeLayouts[et]; ok {
		return cloneTuples(nl.tuples)
	}
	return nil
}

// LexicographicNodeTuples lists the same positions ordered with the first
// coordinate varying fastest.
func (et ElementType) LexicographicNodeTuples() [][]int {
	if nl, ok := nodeLayouts[et]; ok {
		return cloneTuples(nl.lex)
	}
	return nil
}

// LexicographicNodeIndices maps lexicographic position i to the index of
// that node in the Gmsh node list.
func (et ElementType) LexicographicNodeIndices() []int {
	if nl, ok := nodeLayouts[et]; ok {
		return append([]int{}, nl.indices...)
	}
	return nil
}
