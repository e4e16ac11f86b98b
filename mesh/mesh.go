package mesh

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Format is the decoded $MeshFormat header.
type Format struct {
	Version  string // As written, e.g. "2.2" or "4.1"
	Major    int
	Minor    int
	Binary   bool
	DataSize int // Width of a double (2.x) or of a size_t (4.1) in binary files
}

// Node is a mesh point. Two dimensional meshes carry a zero third coordinate.
type Node struct {
	Tag   int
	X     [3]float64
	Param []float64 // Parametric coordinates on the owning entity, nil if absent
}

// Element references its nodes by tag, in the order written in the file.
type Element struct {
	Tag   int
	Type  ElementType
	Nodes []int

	// Legacy formats carry integer tags inline: physical group, elementary
	// entity, then generator dependent partition data. Nil for 4.x elements.
	Tags []int

	EntityDim int
	EntityTag int

	// Inline tags past the physical and elementary ones, kept opaque
	Partitions []int

	// Resolved physical group membership, filled in by the Builder
	PhysicalTags []int
}

// PhysicalTag returns the primary physical group of the element, 0 if none.
func (e Element) PhysicalTag() int {
	if len(e.PhysicalTags) == 0 {
		return 0
	}
	return e.PhysicalTags[0]
}

// Vertices returns the corner nodes, which Gmsh lists ahead of edge, face
// and interior nodes.
func (e Element) Vertices() []int {
	n := min(e.Type.NumVertices(), len(e.Nodes))
	return e.Nodes[:n:n]
}

// LexicographicNodes returns the nodes reordered to follow
// Type.LexicographicNodeTuples, nil when the type has no known layout.
func (e Element) LexicographicNodes() []int {
	indices := e.Type.LexicographicNodeIndices()
	if indices == nil || len(e.Nodes) != e.Type.NumNodes() {
		return nil
	}
	nodes := make([]int, len(indices))
	for i, j := range indices {
		nodes[i] = e.Nodes[j]
	}
	return nodes
}

// Key identifies entities and physical groups, whose tags are unique only
// within a dimension.
type Key struct {
	Dim, Tag int
}

// Entity is a geometric entity of a 4.x file.
type Entity struct {
	Dim          int
	Tag          int
	BoundingBox  *[2][3]float64 // Min, max corners; nil when not given
	PhysicalTags []int
	Bounding     []int // Signed tags of bounding entities of dimension Dim-1
}

type PhysicalName struct {
	Dim  int
	Tag  int
	Name string // Text between the quotes, escapes untouched
}

// Periodic links a slave entity to its master.
type Periodic struct {
	Dim       int
	SlaveTag  int
	MasterTag int
	Affine    []float64 // Row major 4x4 transform, nil when not given
	NodePairs [][2]int  // (slave node, master node) in file order
}

// Transform returns the affine transform as a 4x4 matrix, nil when absent.
func (p Periodic) Transform() *mat.Dense {
	if len(p.Affine) != 16 {
		return nil
	}
	return mat.NewDense(4, 4, append([]float64(nil), p.Affine...))
}

// NodeMap maps slave node tags to master node tags.
func (p Periodic) NodeMap() map[int]int {
	nm := make(map[int]int, len(p.NodePairs))
	for _, pair := range p.NodePairs {
		nm[pair[0]] = pair[1]
	}
	return nm
}

// GhostElement records an element owned by another partition.
type GhostElement struct {
	ElementTag      int
	Partition       int
	GhostPartitions []int
}

// Mesh is the reader output. It is complete and immutable once returned
// by Builder.Mesh; slices handed out by the accessors must not be modified.
type Mesh struct {
	format    Format
	dim       int
	nodes     map[int]Node
	elements  map[int]Element
	entities  map[Key]Entity
	names     map[Key]string
	periodics []Periodic
	ghosts    []GhostElement
}

func newMesh() *Mesh {
	return &Mesh{
		nodes:    make(map[int]Node),
		elements: make(map[int]Element),
		entities: make(map[Key]Entity),
		names:    make(map[Key]string),
	}
}

func (m *Mesh) Format() Format { return m.format }

// Dimension is the highest element dimension, or the forced dimension
// when the Builder was given one.
func (m *Mesh) Dimension() int { return m.dim }

func (m *Mesh) NumNodes() int    { return len(m.nodes) }
func (m *Mesh) NumElements() int { return len(m.elements) }

func (m *Mesh) Node(tag int) (Node, bool) {
	n, ok := m.nodes[tag]
	return n, ok
}

func (m *Mesh) Element(tag int) (Element, bool) {
	e, ok := m.elements[tag]
	return e, ok
}

func (m *Mesh) Entity(dim, tag int) (Entity, bool) {
	e, ok := m.entities[Key{dim, tag}]
	return e, ok
}

func (m *Mesh) PhysicalName(dim, tag int) (string, bool) {
	name, ok := m.names[Key{dim, tag}]
	return name, ok
}

// NodeTags returns all node tags in increasing order.
func (m *Mesh) NodeTags() []int { return sortedKeys(m.nodes) }

// ElementTags returns all element tags in increasing order.
func (m *Mesh) ElementTags() []int { return sortedKeys(m.elements) }

// Entities returns the entities ordered by dimension, then tag.
func (m *Mesh) Entities() []Entity {
	ents := make([]Entity, 0, len(m.entities))
	for _, e := range m.entities {
		ents = append(ents, e)
	}
	sort.Slice(ents, func(i, j int) bool {
		return lessKey(Key{ents[i].Dim, ents[i].Tag}, Key{ents[j].Dim, ents[j].Tag})
	})
	return ents
}

// PhysicalNames returns the name table ordered by dimension, then tag.
func (m *Mesh) PhysicalNames() []PhysicalName {
	pns := make([]PhysicalName, 0, len(m.names))
	for k, name := range m.names {
		pns = append(pns, PhysicalName{Dim: k.Dim, Tag: k.Tag, Name: name})
	}
	sort.Slice(pns, func(i, j int) bool {
		return lessKey(Key{pns[i].Dim, pns[i].Tag}, Key{pns[j].Dim, pns[j].Tag})
	})
	return pns
}

func (m *Mesh) Periodics() []Periodic        { return m.periodics }
func (m *Mesh) GhostElements() []GhostElement { return m.ghosts }

// ElementsInGroup returns, in increasing order, the tags of the elements of
// dimension dim that belong to physical group tag.
func (m *Mesh) ElementsInGroup(dim, tag int) (elems []int) {
	for _, et := range m.ElementTags() {
		e := m.elements[et]
		if e.Type.Dimension() != dim {
			continue
		}
		for _, pt := range e.PhysicalTags {
			if pt == tag {
				elems = append(elems, et)
				break
			}
		}
	}
	return
}

// Coordinates returns the node tags in increasing order with their
// coordinates truncated to the mesh dimension.
func (m *Mesh) Coordinates() (tags []int, X [][]float64) {
	var (
		nd = m.dim
	)
	if nd < 1 || nd > 3 {
		nd = 3
	}
	tags = m.NodeTags()
	X = make([][]float64, len(tags))
	for i, tag := range tags {
		n := m.nodes[tag]
		X[i] = append([]float64(nil), n.X[:nd]...)
	}
	return
}

// Statistics summarizes a mesh for reporting.
type Statistics struct {
	Version        string         `json:"version"`
	Binary         bool           `json:"binary"`
	Dimension      int            `json:"dimension"`
	NumNodes       int            `json:"nodes"`
	NumElements    int            `json:"elements"`
	NumEntities    int            `json:"entities"`
	Components     int            `json:"components"`
	NumPeriodic    int            `json:"periodicLinks"`
	NumGhosts      int            `json:"ghostElements"`
	ElementTypes   map[string]int `json:"elementTypes"`
	PhysicalGroups map[string]int `json:"physicalGroups,omitempty"`
}

// Summary counts elements per type and per physical group. Groups without
// a name are reported by their dimension and tag.
func (m *Mesh) Summary() Statistics {
	st := Statistics{
		Version:      m.format.Version,
		Binary:       m.format.Binary,
		Dimension:    m.dim,
		NumNodes:     len(m.nodes),
		NumElements:  len(m.elements),
		NumEntities:  len(m.entities),
		Components:   m.ConnectedComponents(),
		NumPeriodic:  len(m.periodics),
		NumGhosts:    len(m.ghosts),
		ElementTypes: make(map[string]int),
	}
	for _, e := range m.elements {
		st.ElementTypes[e.Type.String()]++
		for _, pt := range e.PhysicalTags {
			if st.PhysicalGroups == nil {
				st.PhysicalGroups = make(map[string]int)
			}
			k := Key{e.Type.Dimension(), pt}
			name, ok := m.names[k]
			if !ok {
				name = fmt.Sprintf("(%d,%d)", k.Dim, k.Tag)
			}
			st.PhysicalGroups[name]++
		}
	}
	return st
}

// PrintStatistics writes a human readable summary
func (m *Mesh) PrintStatistics(w io.Writer) {
	st := m.Summary()
	fmt.Fprintf(w, "Mesh Statistics:\n")
	fmt.Fprintf(w, "  Format: %s (binary: %v)\n", st.Version, st.Binary)
	fmt.Fprintf(w, "  Dimension: %d\n", st.Dimension)
	fmt.Fprintf(w, "  Nodes: %d\n", st.NumNodes)
	fmt.Fprintf(w, "  Elements: %d\n", st.NumElements)
	fmt.Fprintf(w, "  Entities: %d\n", st.NumEntities)
	fmt.Fprintf(w, "  Connected components: %d\n", st.Components)
	fmt.Fprintf(w, "  Element types:\n")
	for _, name := range sortedKeys(st.ElementTypes) {
		fmt.Fprintf(w, "    %s: %d\n", name, st.ElementTypes[name])
	}
	if len(st.PhysicalGroups) > 0 {
		fmt.Fprintf(w, "  Physical groups:\n")
		for _, name := range sortedKeys(st.PhysicalGroups) {
			fmt.Fprintf(w, "    %s: %d\n", name, st.PhysicalGroups[name])
		}
	}
	if st.NumPeriodic > 0 {
		fmt.Fprintf(w, "  Periodic links: %d\n", st.NumPeriodic)
		for _, p := range m.periodics {
			fmt.Fprintf(w, "    (%d,%d) -> (%d,%d): %d node pairs",
				p.Dim, p.SlaveTag, p.Dim, p.MasterTag, len(p.NodePairs))
			if T := p.Transform(); T != nil {
				fmt.Fprintf(w, ", translation (%g, %g, %g)", T.At(0, 3), T.At(1, 3), T.At(2, 3))
			}
			fmt.Fprintln(w)
		}
	}
	if st.NumGhosts > 0 {
		fmt.Fprintf(w, "  Ghost elements: %d\n", st.NumGhosts)
	}
}

func lessKey(a, b Key) bool {
	if a.Dim != b.Dim {
		return a.Dim < b.Dim
	}
	return a.Tag < b.Tag
}

func sortedKeys[K int | string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
