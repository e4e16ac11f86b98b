package readers

import (
	"fmt"

	"github.com/notargets/gomsh/mesh"
)

// v4Parser reads 4.0 and 4.1 files. Nodes and elements come in blocks,
// one per owning entity, and binary 4.1 files encode every header field in
// binary as well.
type v4Parser struct {
	sectionTable
	minor int
}

func newV4Parser(minor int) *v4Parser {
	p := &v4Parser{minor: minor}
	p.sectionTable = sectionTable{
		"Entities":      p.readEntities,
		"Nodes":         p.readNodes,
		"Elements":      p.readElements,
		"PhysicalNames": readPhysicalNames,
		"Periodic":      p.readPeriodic,
	}
	if minor >= 1 {
		p.sectionTable["GhostElements"] = readGhostElements4
	}
	return p
}

// legacyBlocks reports the 4.0 layout: two field section headers, block
// headers with the entity tag before its dimension and, for nodes, the tag
// on the coordinate row.
func (p *v4Parser) legacyBlocks() bool { return p.minor == 0 }

// readEntities reads the counts of points, curves, surfaces and volumes,
// then one record per entity:
//
//	tag bbox numPhysical physical... [numBounding bounding...]
//
// where a 4.1 point carries only its coordinates instead of a box and
// points have no bounding list.
func (p *v4Parser) readEntities(c *Cursor, r mesh.Receiver) error {
	var counts [4]int
	err := c.Row(func() (err error) {
		for d := range counts {
			if counts[d], err = c.Count(); err != nil {
				return
			}
		}
		return
	})
	if err != nil {
		return err
	}
	for dim, num := range counts {
		for i := 0; i < num; i++ {
			var ent mesh.Entity
			err = c.Row(func() (err error) {
				ent, err = p.readEntity(c, dim)
				return
			})
			if err != nil {
				return err
			}
			if err = r.AddEntity(ent); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *v4Parser) readEntity(c *Cursor, dim int) (ent mesh.Entity, err error) {
	ent.Dim = dim
	if ent.Tag, err = c.Int(); err != nil {
		return
	}
	var bb [2][3]float64
	if dim == 0 && !p.legacyBlocks() {
		for k := 0; k < 3; k++ {
			if bb[0][k], err = c.Float(); err != nil {
				return
			}
		}
		bb[1] = bb[0]
	} else {
		for corner := 0; corner < 2; corner++ {
			for k := 0; k < 3; k++ {
				if bb[corner][k], err = c.Float(); err != nil {
					return
				}
			}
		}
	}
	ent.BoundingBox = &bb
	if ent.PhysicalTags, err = readTagList(c); err != nil {
		return
	}
	if dim > 0 {
		ent.Bounding, err = readTagList(c)
	}
	return
}

// readTagList reads a size_t count followed by that many int tags.
func readTagList(c *Cursor) ([]int, error) {
	n, err := c.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return c.Ints(n)
}

type blockHeader struct {
	entityDim, entityTag, kind, count int
}

// readSectionHeader reads numBlocks and the declared total; 4.1 adds the
// min and max tags, which are not needed.
func (p *v4Parser) readSectionHeader(c *Cursor) (numBlocks, total int, err error) {
	err = c.Row(func() (err error) {
		if numBlocks, err = c.Count(); err != nil {
			return
		}
		if total, err = c.Count(); err != nil {
			return
		}
		if !p.legacyBlocks() {
			for k := 0; k < 2; k++ {
				if _, err = c.Size(); err != nil {
					return
				}
			}
		}
		return
	})
	return
}

// readBlockHeader reads (entityDim, entityTag, kind, count), with the
// first two swapped in 4.0. kind is the parametric flag for nodes and the
// element type for elements.
func (p *v4Parser) readBlockHeader(c *Cursor) (bh blockHeader, err error) {
	err = c.Row(func() (err error) {
		a, err := c.Int()
		if err != nil {
			return
		}
		b, err := c.Int()
		if err != nil {
			return
		}
		if p.legacyBlocks() {
			bh.entityTag, bh.entityDim = a, b
		} else {
			bh.entityDim, bh.entityTag = a, b
		}
		if bh.kind, err = c.Int(); err != nil {
			return
		}
		bh.count, err = c.Count()
		return
	})
	if err == nil && (bh.entityDim < 0 || bh.entityDim > 3) {
		err = fmt.Errorf("%w: entity dimension %d in block header", mesh.ErrMalformedSection, bh.entityDim)
	}
	return
}

// readNodes reads the node blocks. In 4.1 each block lists its node tags
// first and the coordinates after; in 4.0 each row is the tag followed by
// its coordinates. Parametric coordinates, when flagged, number as many as
// the entity dimension.
func (p *v4Parser) readNodes(c *Cursor, r mesh.Receiver) error {
	numBlocks, total, err := p.readSectionHeader(c)
	if err != nil {
		return err
	}
	var seen int
	for ib := 0; ib < numBlocks; ib++ {
		bh, err := p.readBlockHeader(c)
		if err != nil {
			return err
		}
		if bh.kind != 0 && bh.kind != 1 {
			return fmt.Errorf("%w: parametric flag %d", mesh.ErrMalformedSection, bh.kind)
		}
		numParam := bh.kind * bh.entityDim
		if seen += bh.count; seen > total {
			return fmt.Errorf("%w: node blocks hold more than the %d nodes declared",
				mesh.ErrMalformedSection, total)
		}

		var tags []int
		if !p.legacyBlocks() {
			tags = make([]int, 0, min(bh.count, 1024))
			for j := 0; j < bh.count; j++ {
				var tag int
				err = c.Row(func() (err error) {
					tag, err = c.Size()
					return
				})
				if err != nil {
					return err
				}
				tags = append(tags, tag)
			}
		}
		for j := 0; j < bh.count; j++ {
			var n mesh.Node
			err = c.Row(func() (err error) {
				if p.legacyBlocks() {
					if n.Tag, err = c.Size(); err != nil {
						return
					}
				} else {
					n.Tag = tags[j]
				}
				for k := range n.X {
					if n.X[k], err = c.Float(); err != nil {
						return
					}
				}
				if numParam > 0 {
					n.Param, err = c.Floats(numParam)
				}
				return
			})
			if err != nil {
				return err
			}
			if err = r.AddNode(n); err != nil {
				return err
			}
		}
	}
	if seen != total {
		return fmt.Errorf("%w: node blocks hold %d nodes, %d declared", mesh.ErrMalformedSection, seen, total)
	}
	return nil
}

// readElements reads element blocks of one type each. Rows are the
// element tag followed by its nodes; membership in physical groups comes
// from the block's entity.
func (p *v4Parser) readElements(c *Cursor, r mesh.Receiver) error {
	numBlocks, total, err := p.readSectionHeader(c)
	if err != nil {
		return err
	}
	var seen int
	for ib := 0; ib < numBlocks; ib++ {
		bh, err := p.readBlockHeader(c)
		if err != nil {
			return err
		}
		et, err := mesh.LookupElementType(bh.kind)
		if err != nil {
			return err
		}
		if seen += bh.count; seen > total {
			return fmt.Errorf("%w: element blocks hold more than the %d elements declared",
				mesh.ErrMalformedSection, total)
		}
		nn := et.NumNodes()
		for j := 0; j < bh.count; j++ {
			e := mesh.Element{Type: et, EntityDim: bh.entityDim, EntityTag: bh.entityTag}
			err = c.Row(func() (err error) {
				if e.Tag, err = c.Size(); err != nil {
					return
				}
				e.Nodes = make([]int, nn)
				for k := range e.Nodes {
					if e.Nodes[k], err = c.Size(); err != nil {
						return
					}
				}
				return
			})
			if err != nil {
				return err
			}
			if err = r.AddElement(e); err != nil {
				return err
			}
		}
	}
	if seen != total {
		return fmt.Errorf("%w: element blocks hold %d elements, %d declared", mesh.ErrMalformedSection, seen, total)
	}
	return nil
}

// readPeriodic reads the 4.1 layout, where the transform is preceded by
// its value count (0 or 16) and every field follows the file encoding:
//
//	numLinks
//	dim slaveTag masterTag
//	numAffine a11 ... a44
//	numPairs
//	slaveNode masterNode
func (p *v4Parser) readPeriodic(c *Cursor, r mesh.Receiver) error {
	if p.legacyBlocks() {
		return readPeriodic2(c, r)
	}
	var numLinks int
	err := c.Row(func() (err error) {
		numLinks, err = c.Count()
		return
	})
	if err != nil {
		return err
	}
	for i := 0; i < numLinks; i++ {
		var (
			per      mesh.Periodic
			numPairs int
		)
		err = c.Row(func() (err error) {
			if per.Dim, err = c.Int(); err != nil {
				return
			}
			if per.SlaveTag, err = c.Int(); err != nil {
				return
			}
			per.MasterTag, err = c.Int()
			return
		})
		if err != nil {
			return err
		}
		err = c.Row(func() (err error) {
			numAffine, err := c.Count()
			if err != nil {
				return
			}
			if numAffine != 0 && numAffine != 16 {
				return fmt.Errorf("%w: %d affine values, want 0 or 16", mesh.ErrMalformedSection, numAffine)
			}
			if numAffine > 0 {
				per.Affine, err = c.Floats(numAffine)
			}
			return
		})
		if err != nil {
			return err
		}
		err = c.Row(func() (err error) {
			numPairs, err = c.Count()
			return
		})
		if err != nil {
			return err
		}
		if per.NodePairs, err = readNodePairs(c, numPairs); err != nil {
			return err
		}
		if err = r.AddPeriodic(per); err != nil {
			return err
		}
	}
	return nil
}

// readGhostElements4 reads the 4.1 partition ghost table:
//
//	numGhosts
//	elementTag partition numGhostPartitions ghostPartition...
//
// Receivers without GhostReceiver still get the section validated.
func readGhostElements4(c *Cursor, r mesh.Receiver) error {
	gr, _ := r.(mesh.GhostReceiver)
	var numGhosts int
	err := c.Row(func() (err error) {
		numGhosts, err = c.Count()
		return
	})
	if err != nil {
		return err
	}
	for i := 0; i < numGhosts; i++ {
		var g mesh.GhostElement
		err = c.Row(func() (err error) {
			if g.ElementTag, err = c.Size(); err != nil {
				return
			}
			if g.Partition, err = c.Int(); err != nil {
				return
			}
			n, err := c.Count()
			if err != nil {
				return
			}
			g.GhostPartitions, err = c.Ints(n)
			return
		})
		if err != nil {
			return err
		}
		if gr != nil {
			if err = gr.AddGhostElement(g); err != nil {
				return err
			}
		}
	}
	return nil
}
