package readers

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomsh/mesh"
)

// mshWriter is the test-side mirror of Cursor: rows of fields that come
// out as text lines or as fixed-width binary values.
type mshWriter struct {
	buf    bytes.Buffer
	binary bool
	order  binary.ByteOrder
	sizeT  int
	row    []string
}

func newMshWriter(isBinary bool, order binary.ByteOrder) *mshWriter {
	if order == nil {
		order = binary.LittleEndian
	}
	return &mshWriter{binary: isBinary, order: order, sizeT: 8}
}

func (w *mshWriter) Line(format string, args ...interface{}) {
	fmt.Fprintf(&w.buf, format+"\n", args...)
}

func (w *mshWriter) Int(v int) {
	if w.binary {
		_ = binary.Write(&w.buf, w.order, int32(v))
		return
	}
	w.row = append(w.row, strconv.Itoa(v))
}

func (w *mshWriter) Size(v int) {
	switch {
	case !w.binary:
		w.row = append(w.row, strconv.Itoa(v))
	case w.sizeT == 4:
		_ = binary.Write(&w.buf, w.order, uint32(v))
	default:
		_ = binary.Write(&w.buf, w.order, uint64(v))
	}
}

func (w *mshWriter) Float(v float64) {
	if w.binary {
		_ = binary.Write(&w.buf, w.order, v)
		return
	}
	w.row = append(w.row, strconv.FormatFloat(v, 'g', -1, 64))
}

func (w *mshWriter) EndRow() {
	if !w.binary {
		w.buf.WriteString(strings.Join(w.row, " ") + "\n")
		w.row = w.row[:0]
	}
}

// Text runs fn with text output, for blocks that stay ASCII in binary files.
func (w *mshWriter) Text(fn func()) {
	saved := w.binary
	w.binary = false
	fn()
	w.binary = saved
}

func (w *mshWriter) Header(version string) {
	w.Line("$MeshFormat")
	if !w.binary {
		w.Line("%s 0 8", version)
	} else {
		w.Line("%s 1 %d", version, w.sizeT)
		_ = binary.Write(&w.buf, w.order, int32(1))
		w.Line("")
	}
	w.Line("$EndMeshFormat")
}

// End closes a section, after the newline gmsh emits behind binary data.
func (w *mshWriter) End(name string) {
	if w.binary {
		w.Line("")
	}
	w.Line("$End%s", name)
}

func (w *mshWriter) Bytes() []byte { return w.buf.Bytes() }

func (w *mshWriter) physicalNames(m *mesh.Mesh) {
	pns := m.PhysicalNames()
	if len(pns) == 0 {
		return
	}
	w.Text(func() {
		w.Line("$PhysicalNames")
		w.Line("%d", len(pns))
		for _, pn := range pns {
			w.Line("%d %d \"%s\"", pn.Dim, pn.Tag, pn.Name)
		}
		w.Line("$EndPhysicalNames")
	})
}

// writeMsh1 encodes m in the legacy layout.
func writeMsh1(m *mesh.Mesh) []byte {
	w := newMshWriter(false, nil)
	w.Line("$NOD")
	w.Line("%d", m.NumNodes())
	for _, tag := range m.NodeTags() {
		n, _ := m.Node(tag)
		w.Int(n.Tag)
		for _, x := range n.X {
			w.Float(x)
		}
		w.EndRow()
	}
	w.Line("$ENDNOD")
	w.Line("$ELM")
	w.Line("%d", m.NumElements())
	for _, tag := range m.ElementTags() {
		e, _ := m.Element(tag)
		w.Int(e.Tag)
		w.Int(int(e.Type))
		w.Int(e.PhysicalTag())
		w.Int(e.EntityTag)
		w.Int(len(e.Nodes))
		for _, nt := range e.Nodes {
			w.Int(nt)
		}
		w.EndRow()
	}
	w.Line("$ENDELM")
	return w.Bytes()
}

// writeMsh22 encodes m as 2.2, with inline physical and elementary tags.
func writeMsh22(m *mesh.Mesh, isBinary bool, order binary.ByteOrder) []byte {
	w := newMshWriter(isBinary, order)
	w.Header("2.2")
	w.physicalNames(m)

	w.Line("$Nodes")
	w.Line("%d", m.NumNodes())
	for _, tag := range m.NodeTags() {
		n, _ := m.Node(tag)
		w.Int(n.Tag)
		for _, x := range n.X {
			w.Float(x)
		}
		w.EndRow()
	}
	w.End("Nodes")

	w.Line("$Elements")
	w.Line("%d", m.NumElements())
	tags := m.ElementTags()
	for i := 0; i < len(tags); {
		first, _ := m.Element(tags[i])
		group := 1
		if isBinary {
			for ; i+group < len(tags); group++ {
				next, _ := m.Element(tags[i+group])
				if next.Type != first.Type {
					break
				}
			}
			w.Int(int(first.Type))
			w.Int(group)
			w.Int(2)
		}
		for _, tag := range tags[i : i+group] {
			e, _ := m.Element(tag)
			w.Int(e.Tag)
			if !isBinary {
				w.Int(int(e.Type))
				w.Int(2)
			}
			w.Int(e.PhysicalTag())
			w.Int(e.EntityTag)
			for _, nt := range e.Nodes {
				w.Int(nt)
			}
			w.EndRow()
		}
		i += group
	}
	w.End("Elements")

	if pers := m.Periodics(); len(pers) > 0 {
		w.Text(func() {
			w.Line("$Periodic")
			w.Line("%d", len(pers))
			for _, p := range pers {
				w.Line("%d %d %d", p.Dim, p.SlaveTag, p.MasterTag)
				if p.Affine != nil {
					w.buf.WriteString("Affine")
					for _, a := range p.Affine {
						w.buf.WriteString(" " + strconv.FormatFloat(a, 'g', -1, 64))
					}
					w.Line("")
				}
				w.Line("%d", len(p.NodePairs))
				for _, pair := range p.NodePairs {
					w.Line("%d %d", pair[0], pair[1])
				}
			}
			w.Line("$EndPeriodic")
		})
	}
	return w.Bytes()
}

type blockKey struct {
	dim, tag int
	et       mesh.ElementType
}

// writeMsh41 encodes m as 4.1. Elements whose entity is not in m get a
// synthesized entity carrying their physical groups.
func writeMsh41(m *mesh.Mesh, isBinary bool, order binary.ByteOrder) []byte {
	return writeMsh41With(m, newMshWriter(isBinary, order))
}

func writeMsh41With(m *mesh.Mesh, w *mshWriter) []byte {
	w.Header("4.1")
	w.physicalNames(m)

	var (
		entities = make(map[mesh.Key]mesh.Entity)
		blocks   []blockKey
		members  = make(map[blockKey][]int)
	)
	for _, ent := range m.Entities() {
		entities[mesh.Key{Dim: ent.Dim, Tag: ent.Tag}] = ent
	}
	for _, tag := range m.ElementTags() {
		e, _ := m.Element(tag)
		k := mesh.Key{Dim: e.EntityDim, Tag: e.EntityTag}
		if _, ok := entities[k]; !ok {
			entities[k] = mesh.Entity{Dim: k.Dim, Tag: k.Tag, PhysicalTags: e.PhysicalTags}
		}
		bk := blockKey{e.EntityDim, e.EntityTag, e.Type}
		if _, ok := members[bk]; !ok {
			blocks = append(blocks, bk)
		}
		members[bk] = append(members[bk], tag)
	}

	var counts [4][]mesh.Entity
	for _, ent := range entities {
		counts[ent.Dim] = append(counts[ent.Dim], ent)
	}
	w.Line("$Entities")
	for d := range counts {
		sortEntities(counts[d])
		w.Size(len(counts[d]))
	}
	w.EndRow()
	for d := range counts {
		for _, ent := range counts[d] {
			var bb [2][3]float64
			if ent.BoundingBox != nil {
				bb = *ent.BoundingBox
			}
			w.Int(ent.Tag)
			corners := 2
			if d == 0 {
				corners = 1
			}
			for c := 0; c < corners; c++ {
				for k := 0; k < 3; k++ {
					w.Float(bb[c][k])
				}
			}
			w.Size(len(ent.PhysicalTags))
			for _, pt := range ent.PhysicalTags {
				w.Int(pt)
			}
			if d > 0 {
				w.Size(len(ent.Bounding))
				for _, bt := range ent.Bounding {
					w.Int(bt)
				}
			}
			w.EndRow()
		}
	}
	w.End("Entities")

	nodeTags := m.NodeTags()
	w.Line("$Nodes")
	numBlocks := 0
	if len(nodeTags) > 0 {
		numBlocks = 1
	}
	w.Size(numBlocks)
	w.Size(len(nodeTags))
	w.Size(1)
	w.Size(len(nodeTags))
	w.EndRow()
	if numBlocks > 0 {
		w.Int(m.Dimension())
		w.Int(1)
		w.Int(0)
		w.Size(len(nodeTags))
		w.EndRow()
		for _, tag := range nodeTags {
			w.Size(tag)
			w.EndRow()
		}
		for _, tag := range nodeTags {
			n, _ := m.Node(tag)
			for _, x := range n.X {
				w.Float(x)
			}
			w.EndRow()
		}
	}
	w.End("Nodes")

	w.Line("$Elements")
	w.Size(len(blocks))
	w.Size(m.NumElements())
	w.Size(1)
	w.Size(m.NumElements())
	w.EndRow()
	for _, bk := range blocks {
		w.Int(bk.dim)
		w.Int(bk.tag)
		w.Int(int(bk.et))
		w.Size(len(members[bk]))
		w.EndRow()
		for _, tag := range members[bk] {
			e, _ := m.Element(tag)
			w.Size(e.Tag)
			for _, nt := range e.Nodes {
				w.Size(nt)
			}
			w.EndRow()
		}
	}
	w.End("Elements")

	if pers := m.Periodics(); len(pers) > 0 {
		w.Line("$Periodic")
		w.Size(len(pers))
		w.EndRow()
		for _, p := range pers {
			w.Int(p.Dim)
			w.Int(p.SlaveTag)
			w.Int(p.MasterTag)
			w.EndRow()
			w.Size(len(p.Affine))
			for _, a := range p.Affine {
				w.Float(a)
			}
			w.EndRow()
			w.Size(len(p.NodePairs))
			w.EndRow()
			for _, pair := range p.NodePairs {
				w.Size(pair[0])
				w.Size(pair[1])
				w.EndRow()
			}
		}
		w.End("Periodic")
	}

	if ghosts := m.GhostElements(); len(ghosts) > 0 {
		w.Line("$GhostElements")
		w.Size(len(ghosts))
		w.EndRow()
		for _, g := range ghosts {
			w.Size(g.ElementTag)
			w.Int(g.Partition)
			w.Size(len(g.GhostPartitions))
			for _, gp := range g.GhostPartitions {
				w.Int(gp)
			}
			w.EndRow()
		}
		w.End("GhostElements")
	}
	return w.Bytes()
}

func sortEntities(ents []mesh.Entity) {
	sort.Slice(ents, func(i, j int) bool { return ents[i].Tag < ents[j].Tag })
}

// triangleMesh builds the one triangle mesh used across the format tests:
// entity (2,1) in physical group 99, nodes 1..3, element 1.
func triangleMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	b := mesh.NewBuilder()
	require.NoError(t, b.AddEntity(mesh.Entity{Dim: 2, Tag: 1, PhysicalTags: []int{99}}))
	for i, x := range [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}} {
		require.NoError(t, b.AddNode(mesh.Node{Tag: i + 1, X: x}))
	}
	require.NoError(t, b.AddElement(mesh.Element{
		Tag: 1, Type: mesh.Triangle, Nodes: []int{1, 2, 3}, EntityDim: 2, EntityTag: 1,
	}))
	require.NoError(t, b.Finalize())
	return b.Mesh()
}

// assertSameMesh compares what every format can carry: node tags and
// coordinates, element types, node order and physical groups, names and
// periodic links.
func assertSameMesh(t *testing.T, want, got *mesh.Mesh) {
	t.Helper()
	require.NotNil(t, got)
	require.Equal(t, want.NodeTags(), got.NodeTags())
	for _, tag := range want.NodeTags() {
		wn, _ := want.Node(tag)
		gn, _ := got.Node(tag)
		assert.Equal(t, wn.X, gn.X, "node %d", tag)
	}
	require.Equal(t, want.ElementTags(), got.ElementTags())
	for _, tag := range want.ElementTags() {
		we, _ := want.Element(tag)
		ge, _ := got.Element(tag)
		assert.Equal(t, we.Type, ge.Type, "element %d", tag)
		assert.Equal(t, we.Nodes, ge.Nodes, "element %d", tag)
		assert.Equal(t, we.PhysicalTags, ge.PhysicalTags, "element %d", tag)
	}
	assert.Equal(t, want.PhysicalNames(), got.PhysicalNames())
	assert.Equal(t, len(want.Periodics()), len(got.Periodics()))
	for i := range want.Periodics() {
		wp, gp := want.Periodics()[i], got.Periodics()[i]
		assert.Equal(t, wp.Affine, gp.Affine)
		assert.Equal(t, wp.NodePairs, gp.NodePairs)
	}
}
