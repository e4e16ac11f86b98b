package readers

import (
	"fmt"

	"github.com/notargets/gomsh/mesh"
)

// v1Parser reads the legacy format, which has only $NOD and $ELM sections,
// always in ASCII.
type v1Parser struct {
	sectionTable
}

func newV1Parser() *v1Parser {
	return &v1Parser{sectionTable{
		"NOD": readNodes1,
		"ELM": readElements1,
	}}
}

// readNodes1 reads: count, then one "tag x y z" row per node.
func readNodes1(c *Cursor, r mesh.Receiver) error {
	numNodes, err := c.CountLine()
	if err != nil {
		return err
	}
	for i := 0; i < numNodes; i++ {
		n, err := readNodeRow(c)
		if err != nil {
			return err
		}
		if err = r.AddNode(n); err != nil {
			return err
		}
	}
	return nil
}

// readElements1 reads: count, then one row per element:
// tag type physical elementary numNodes node...
func readElements1(c *Cursor, r mesh.Receiver) error {
	numElements, err := c.CountLine()
	if err != nil {
		return err
	}
	for i := 0; i < numElements; i++ {
		if err = c.BeginRow(); err != nil {
			return err
		}
		hdr, err := c.Ints(5)
		if err != nil {
			return err
		}
		et, err := mesh.LookupElementType(hdr[1])
		if err != nil {
			return err
		}
		if hdr[4] != et.NumNodes() {
			return fmt.Errorf("%w: element %d of type %s lists %d nodes, want %d",
				mesh.ErrMalformedSection, hdr[0], et, hdr[4], et.NumNodes())
		}
		nodes, err := c.Ints(hdr[4])
		if err != nil {
			return err
		}
		if err = c.EndRow(); err != nil {
			return err
		}
		e := mesh.Element{
			Tag:       hdr[0],
			Type:      et,
			Nodes:     nodes,
			Tags:      []int{hdr[2], hdr[3]},
			EntityDim: et.Dimension(),
			EntityTag: hdr[3],
		}
		if err = r.AddElement(e); err != nil {
			return err
		}
	}
	return nil
}

// readNodeRow reads "tag x y z", shared by the 1.x and 2.x node sections.
func readNodeRow(c *Cursor) (n mesh.Node, err error) {
	if err = c.BeginRow(); err != nil {
		return
	}
	if n.Tag, err = c.Int(); err != nil {
		return
	}
	for k := range n.X {
		if n.X[k], err = c.Float(); err != nil {
			return
		}
	}
	err = c.EndRow()
	return
}
