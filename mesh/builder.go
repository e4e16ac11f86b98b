package mesh

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gomsh.mesh")

// NodeCheck selects when element node references are validated.
type NodeCheck int

const (
	// NodeCheckDeferred validates all references once the stream is consumed,
	// so elements may precede the nodes they use.
	NodeCheckDeferred NodeCheck = iota
	// NodeCheckEager validates each element as it is added.
	NodeCheckEager
	// NodeCheckNone skips validation.
	NodeCheckNone
)

func (nc NodeCheck) String() string {
	switch nc {
	case NodeCheckDeferred:
		return "deferred"
	case NodeCheckEager:
		return "eager"
	case NodeCheckNone:
		return "none"
	}
	return fmt.Sprintf("NodeCheck(%d)", int(nc))
}

// ParseNodeCheck maps a configuration string onto a policy, empty meaning
// the default.
func ParseNodeCheck(s string) (NodeCheck, error) {
	switch s {
	case "", "deferred":
		return NodeCheckDeferred, nil
	case "eager":
		return NodeCheckEager, nil
	case "none":
		return NodeCheckNone, nil
	}
	return 0, fmt.Errorf("unknown node check policy %q", s)
}

type BuilderOption func(*Builder)

func WithNodeCheck(nc NodeCheck) BuilderOption {
	return func(b *Builder) { b.nodeCheck = nc }
}

// WithDimension forces the mesh dimension instead of deriving it from the
// highest element dimension. Zero keeps the derived value.
func WithDimension(dim int) BuilderOption {
	return func(b *Builder) { b.forceDim = dim }
}

// Builder accumulates records into a Mesh. It implements Receiver,
// FormatReceiver and GhostReceiver. A Builder serves a single parse.
type Builder struct {
	m          *Mesh
	nodeCheck  NodeCheck
	forceDim   int
	maxElemTag int
	order      []int     // Element tags in arrival order, 0 for untagged ones
	untagged   []Element // Elements awaiting a tag, in arrival order
	finalized  bool
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{m: newMesh()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) SetFormat(f Format) error {
	b.m.format = f
	return nil
}

func (b *Builder) AddNode(n Node) error {
	if n.Tag <= 0 {
		return fmt.Errorf("%w: node tag %d is not positive", ErrMalformedSection, n.Tag)
	}
	if _, dup := b.m.nodes[n.Tag]; dup {
		return fmt.Errorf("%w: node %d", ErrDuplicateTag, n.Tag)
	}
	n.Param = slices.Clone(n.Param)
	b.m.nodes[n.Tag] = n
	return nil
}

func (b *Builder) AddElement(e Element) error {
	if !e.Type.Known() {
		return fmt.Errorf("%w: %d", ErrUnknownElementType, int(e.Type))
	}
	if len(e.Nodes) != e.Type.NumNodes() {
		return fmt.Errorf("%w: element %d of type %s has %d nodes, want %d",
			ErrMalformedSection, e.Tag, e.Type, len(e.Nodes), e.Type.NumNodes())
	}
	if _, dup := b.m.elements[e.Tag]; dup && e.Tag > 0 {
		return fmt.Errorf("%w: element %d", ErrDuplicateTag, e.Tag)
	}
	if b.nodeCheck == NodeCheckEager {
		if err := b.checkNodes(e); err != nil {
			return err
		}
	}
	e.Nodes = slices.Clone(e.Nodes)
	e.Tags = slices.Clone(e.Tags)
	e.Partitions = slices.Clone(e.Partitions)
	e.PhysicalTags = nil
	if e.Tag <= 0 {
		// Tagged once every explicit tag is known
		b.untagged = append(b.untagged, e)
		b.order = append(b.order, 0)
		return nil
	}
	b.m.elements[e.Tag] = e
	b.order = append(b.order, e.Tag)
	b.maxElemTag = max(b.maxElemTag, e.Tag)
	return nil
}

func (b *Builder) AddEntity(e Entity) error {
	k := Key{e.Dim, e.Tag}
	if _, dup := b.m.entities[k]; dup {
		return fmt.Errorf("%w: entity (%d,%d)", ErrDuplicateTag, k.Dim, k.Tag)
	}
	if e.BoundingBox != nil {
		bb := *e.BoundingBox
		e.BoundingBox = &bb
	}
	e.PhysicalTags = slices.Clone(e.PhysicalTags)
	e.Bounding = slices.Clone(e.Bounding)
	b.m.entities[k] = e
	return nil
}

func (b *Builder) AddPhysicalName(pn PhysicalName) error {
	k := Key{pn.Dim, pn.Tag}
	if _, dup := b.m.names[k]; dup {
		return fmt.Errorf("%w: physical name (%d,%d)", ErrDuplicateTag, k.Dim, k.Tag)
	}
	b.m.names[k] = pn.Name
	return nil
}

func (b *Builder) AddPeriodic(p Periodic) error {
	p.Affine = slices.Clone(p.Affine)
	p.NodePairs = slices.Clone(p.NodePairs)
	b.m.periodics = append(b.m.periodics, p)
	return nil
}

func (b *Builder) AddGhostElement(g GhostElement) error {
	g.GhostPartitions = slices.Clone(g.GhostPartitions)
	b.m.ghosts = append(b.m.ghosts, g)
	return nil
}

// Finalize tags untagged elements above the largest explicit tag, runs
// the deferred node check, resolves physical group membership and fixes
// the mesh dimension. Elements are visited in arrival order so the first
// reported failure is deterministic.
func (b *Builder) Finalize() error {
	if b.finalized {
		return errors.New("mesh builder already finalized")
	}
	var (
		dim      int
		untagged = b.untagged
	)
	for i, tag := range b.order {
		var e Element
		if tag == 0 {
			e, untagged = untagged[0], untagged[1:]
			b.maxElemTag++
			e.Tag, tag = b.maxElemTag, b.maxElemTag
			b.order[i] = tag
			b.m.elements[tag] = e
		} else {
			e = b.m.elements[tag]
		}
		if b.nodeCheck == NodeCheckDeferred {
			if err := b.checkNodes(e); err != nil {
				return err
			}
		}
		e.PhysicalTags = b.physicalTags(e)
		b.m.elements[tag] = e
		dim = max(dim, e.Type.Dimension())
	}
	if b.forceDim > 0 {
		dim = b.forceDim
	}
	b.m.dim = dim
	b.finalized = true
	log.Debugf("mesh finalized: %d nodes, %d elements, %d entities, dimension %d",
		len(b.m.nodes), len(b.m.elements), len(b.m.entities), dim)
	return nil
}

// Mesh returns the finished mesh, nil until Finalize has succeeded.
func (b *Builder) Mesh() *Mesh {
	if !b.finalized {
		return nil
	}
	return b.m
}

func (b *Builder) checkNodes(e Element) error {
	for _, nt := range e.Nodes {
		if _, ok := b.m.nodes[nt]; !ok {
			return fmt.Errorf("%w: element %d uses node %d", ErrDanglingNodeReference, e.Tag, nt)
		}
	}
	return nil
}

// physicalTags prefers a non-zero inline physical tag, as legacy files
// carry it, and otherwise inherits the owning entity's groups.
func (b *Builder) physicalTags(e Element) []int {
	if len(e.Tags) > 0 && e.Tags[0] != 0 {
		return []int{e.Tags[0]}
	}
	if ent, ok := b.m.entities[Key{e.EntityDim, e.EntityTag}]; ok && len(ent.PhysicalTags) > 0 {
		return slices.Clone(ent.PhysicalTags)
	}
	return nil
}
