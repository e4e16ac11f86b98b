package readers

import (
	"fmt"
	"strings"

	"github.com/notargets/gomsh/mesh"
)

// readPhysicalNames is shared by 2.x and 4.x and is text in binary files too.
// Each row is: dim tag "name", the name kept exactly as written.
func readPhysicalNames(c *Cursor, r mesh.Receiver) error {
	return c.ASCII(func() error {
		numNames, err := c.CountLine()
		if err != nil {
			return err
		}
		for i := 0; i < numNames; i++ {
			if err = c.BeginRow(); err != nil {
				return err
			}
			var pn mesh.PhysicalName
			if pn.Dim, err = c.Int(); err != nil {
				return err
			}
			if pn.Tag, err = c.Int(); err != nil {
				return err
			}
			quoted := c.Rest()
			if len(quoted) < 2 || quoted[0] != '"' || quoted[len(quoted)-1] != '"' {
				return fmt.Errorf("%w: physical name %q is not quoted", mesh.ErrMalformedSection, quoted)
			}
			pn.Name = quoted[1 : len(quoted)-1]
			if err = c.EndRow(); err != nil {
				return err
			}
			if err = r.AddPhysicalName(pn); err != nil {
				return err
			}
		}
		return nil
	})
}

// readPeriodic2 reads the $Periodic layout of 2.x and 4.0, which is text
// even in binary 2.x files:
//
//	numLinks
//	dim slaveTag masterTag
//	[Affine a11 ... a44]
//	numPairs
//	slaveNode masterNode
func readPeriodic2(c *Cursor, r mesh.Receiver) error {
	return c.ASCII(func() error {
		numLinks, err := c.CountLine()
		if err != nil {
			return err
		}
		for i := 0; i < numLinks; i++ {
			var p mesh.Periodic
			if err = c.BeginRow(); err != nil {
				return err
			}
			if p.Dim, err = c.Int(); err != nil {
				return err
			}
			if p.SlaveTag, err = c.Int(); err != nil {
				return err
			}
			if p.MasterTag, err = c.Int(); err != nil {
				return err
			}
			if err = c.EndRow(); err != nil {
				return err
			}

			if err = c.BeginRow(); err != nil {
				return err
			}
			if tok, _ := c.PeekToken(); strings.EqualFold(tok, "Affine") {
				_, _ = c.Token()
				if p.Affine, err = c.Floats(16); err != nil {
					return err
				}
				if err = c.EndRow(); err != nil {
					return err
				}
				if err = c.BeginRow(); err != nil {
					return err
				}
			}
			numPairs, err := c.Count()
			if err != nil {
				return err
			}
			if err = c.EndRow(); err != nil {
				return err
			}
			if p.NodePairs, err = readNodePairs(c, numPairs); err != nil {
				return err
			}
			if err = r.AddPeriodic(p); err != nil {
				return err
			}
		}
		return nil
	})
}

// readNodePairs reads one (slave, master) node pair per row.
func readNodePairs(c *Cursor, numPairs int) (pairs [][2]int, err error) {
	for j := 0; j < numPairs; j++ {
		if err = c.BeginRow(); err != nil {
			return
		}
		var pair [2]int
		if pair[0], err = c.Size(); err != nil {
			return
		}
		if pair[1], err = c.Size(); err != nil {
			return
		}
		if err = c.EndRow(); err != nil {
			return
		}
		pairs = append(pairs, pair)
	}
	return
}
