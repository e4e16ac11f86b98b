package mesh

import "fmt"

// ElementType is the Gmsh element type code, shared by every format version.
type ElementType int

const (
	Line       ElementType = 1
	Triangle   ElementType = 2
	Quad       ElementType = 3
	Tet        ElementType = 4
	Hex        ElementType = 5
	Prism      ElementType = 6
	Pyramid    ElementType = 7
	Line3      ElementType = 8
	Triangle6  ElementType = 9
	Quad9      ElementType = 10
	Tet10      ElementType = 11
	Hex27      ElementType = 12
	Prism18    ElementType = 13
	Pyramid14  ElementType = 14
	Point      ElementType = 15
	Quad8      ElementType = 16
	Hex20      ElementType = 17
	Prism15    ElementType = 18
	Pyramid13  ElementType = 19
	Triangle9  ElementType = 20
	Triangle10 ElementType = 21
)

// Family is the reference shape of an element type.
type Family uint8

const (
	PointFamily Family = iota
	LineFamily
	TriangleFamily
	QuadFamily
	TetFamily
	HexFamily
	PrismFamily
	PyramidFamily
)

func (f Family) String() string {
	return [...]string{"Point", "Line", "Triangle", "Quad", "Tet", "Hex", "Prism", "Pyramid"}[f]
}

// Dimension is the topological dimension of the shape.
func (f Family) Dimension() int {
	return [...]int{0, 1, 2, 2, 3, 3, 3, 3}[f]
}

// NumVertices is the number of corner nodes of the shape.
func (f Family) NumVertices() int {
	return [...]int{1, 2, 3, 4, 4, 8, 6, 5}[f]
}

type elementInfo struct {
	family     Family
	order      int
	numNodes   int
	incomplete bool
}

var elementTypes = buildElementTypes()

// buildElementTypes enumerates the recognized Gmsh types family by family,
// with the type codes listed in increasing polynomial order.
func buildElementTypes() map[ElementType]elementInfo {
	var (
		table = make(map[ElementType]elementInfo)
		add   = func(codes []int, family Family, firstOrder int, count func(p int) int) {
			for i, code := range codes {
				p := firstOrder + i
				table[ElementType(code)] = elementInfo{family: family, order: p, numNodes: count(p)}
			}
		}
	)
	add([]int{15}, PointFamily, 0, func(p int) int { return 1 })
	add([]int{1, 8, 26, 27, 28, 62, 63, 64, 65, 66}, LineFamily, 1,
		func(p int) int { return p + 1 })
	add([]int{2, 9, 21, 23, 25, 42, 43, 44, 45, 46}, TriangleFamily, 1,
		func(p int) int { return (p + 1) * (p + 2) / 2 })
	add([]int{3, 10, 36, 37, 38, 47, 48, 49, 50, 51}, QuadFamily, 1,
		func(p int) int { return (p + 1) * (p + 1) })
	add([]int{4, 11, 29, 30, 31, 71, 72, 73, 74, 75}, TetFamily, 1,
		func(p int) int { return (p + 1) * (p + 2) * (p + 3) / 6 })
	add([]int{5, 12, 92, 93, 94, 95, 96, 97, 98}, HexFamily, 1,
		func(p int) int { return (p + 1) * (p + 1) * (p + 1) })
	add([]int{6, 13}, PrismFamily, 1,
		func(p int) int { return (p + 1) * (p + 1) * (p + 2) / 2 })
	add([]int{90, 91}, PrismFamily, 3,
		func(p int) int { return (p + 1) * (p + 1) * (p + 2) / 2 })
	add([]int{7, 14}, PyramidFamily, 1,
		func(p int) int { return (p + 1) * (p + 2) * (2*p + 3) / 6 })
	add([]int{118, 119}, PyramidFamily, 3,
		func(p int) int { return (p + 1) * (p + 2) * (2*p + 3) / 6 })

	// Incomplete (serendipity) variants carry only vertex and edge nodes
	for _, inc := range []struct {
		code, order, nodes int
		family             Family
	}{
		{20, 3, 9, TriangleFamily},
		{22, 4, 12, TriangleFamily},
		{24, 5, 15, TriangleFamily},
		{16, 2, 8, QuadFamily},
		{17, 2, 20, HexFamily},
		{18, 2, 15, PrismFamily},
		{19, 2, 13, PyramidFamily},
	} {
		table[ElementType(inc.code)] = elementInfo{
			family: inc.family, order: inc.order, numNodes: inc.nodes, incomplete: true,
		}
	}
	return table
}

// LookupElementType validates a raw type code read from a file.
func LookupElementType(code int) (ElementType, error) {
	et := ElementType(code)
	if !et.Known() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownElementType, code)
	}
	return et, nil
}

func (et ElementType) Known() bool {
	_, ok := elementTypes[et]
	return ok
}

// NumNodes returns the node count fixed by the type, 0 if unknown.
func (et ElementType) NumNodes() int { return elementTypes[et].numNodes }

func (et ElementType) NumVertices() int {
	if !et.Known() {
		return 0
	}
	return elementTypes[et].family.NumVertices()
}

func (et ElementType) Family() Family { return elementTypes[et].family }

func (et ElementType) Dimension() int { return elementTypes[et].family.Dimension() }

func (et ElementType) Order() int { return elementTypes[et].order }

func (et ElementType) Incomplete() bool { return elementTypes[et].incomplete }

// String names first order shapes by family alone, e.g. "Tet", and higher
// order shapes by family and node count, e.g. "Tet10". Incomplete shapes
// whose node count collides with a complete one get an "i" suffix.
func (et ElementType) String() string {
	info, ok := elementTypes[et]
	switch {
	case !ok:
		return fmt.Sprintf("ElementType(%d)", int(et))
	case info.order <= 1:
		return info.family.String()
	case info.incomplete && et == 24:
		return fmt.Sprintf("%s%di", info.family, info.numNodes)
	default:
		return fmt.Sprintf("%s%d", info.family, info.numNodes)
	}
}
