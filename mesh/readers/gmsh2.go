package readers

import (
	"fmt"

	"github.com/notargets/gomsh/mesh"
)

// v2Parser reads 2.x files. Section counts are text lines in both
// encodings; node and element records are binary in binary files.
type v2Parser struct {
	sectionTable
}

func newV2Parser() *v2Parser {
	return &v2Parser{sectionTable{
		"Nodes":         readNodes2,
		"Elements":      readElements2,
		"PhysicalNames": readPhysicalNames,
		"Periodic":      readPeriodic2,
	}}
}

// readNodes2 reads a count line, then numNodes "tag x y z" records.
func readNodes2(c *Cursor, r mesh.Receiver) error {
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

func readElements2(c *Cursor, r mesh.Receiver) error {
	numElements, err := c.CountLine()
	if err != nil {
		return err
	}
	if c.Binary() {
		return readElements2Binary(c, r, numElements)
	}
	// ASCII rows: tag type numTags tag... node...
	for i := 0; i < numElements; i++ {
		if err = c.BeginRow(); err != nil {
			return err
		}
		hdr, err := c.Ints(3)
		if err != nil {
			return err
		}
		et, err := mesh.LookupElementType(hdr[1])
		if err != nil {
			return err
		}
		if hdr[2] < 0 {
			return fmt.Errorf("%w: element %d has negative tag count", mesh.ErrMalformedSection, hdr[0])
		}
		e, err := readElementBody2(c, hdr[0], et, hdr[2])
		if err != nil {
			return err
		}
		if err = c.EndRow(); err != nil {
			return err
		}
		if err = r.AddElement(e); err != nil {
			return err
		}
	}
	return nil
}

// readElements2Binary reads groups of elements sharing a type and a tag
// count. Each group opens with the int triple (type, numInGroup, numTags)
// and every element is then tag, tags, nodes as ints.
func readElements2Binary(c *Cursor, r mesh.Receiver, numElements int) error {
	for read := 0; read < numElements; {
		if err := c.BeginRow(); err != nil {
			return err
		}
		hdr, err := c.Ints(3)
		if err != nil {
			return err
		}
		et, err := mesh.LookupElementType(hdr[0])
		if err != nil {
			return err
		}
		numInGroup, numTags := hdr[1], hdr[2]
		if numInGroup <= 0 || numInGroup > numElements-read || numTags < 0 {
			return fmt.Errorf("%w: bad element group header (%d, %d, %d) with %d of %d elements read",
				mesh.ErrMalformedSection, hdr[0], numInGroup, numTags, read, numElements)
		}
		for j := 0; j < numInGroup; j++ {
			if err = c.BeginRow(); err != nil {
				return err
			}
			tag, err := c.Int()
			if err != nil {
				return err
			}
			e, err := readElementBody2(c, tag, et, numTags)
			if err != nil {
				return err
			}
			if err = r.AddElement(e); err != nil {
				return err
			}
		}
		read += numInGroup
	}
	return nil
}

// readElementBody2 reads the inline tags and node list that follow the
// element header. The first two inline tags are the physical and
// elementary ones; whatever follows is generator dependent and kept opaque.
func readElementBody2(c *Cursor, tag int, et mesh.ElementType, numTags int) (e mesh.Element, err error) {
	e = mesh.Element{Tag: tag, Type: et, EntityDim: et.Dimension()}
	if e.Tags, err = c.Ints(numTags); err != nil {
		return
	}
	if numTags > 1 {
		e.EntityTag = e.Tags[1]
	}
	if numTags > 2 {
		e.Partitions = e.Tags[2:]
	}
	e.Nodes, err = c.Ints(et.NumNodes())
	return
}
