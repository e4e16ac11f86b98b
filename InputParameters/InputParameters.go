package InputParameters

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"

	"github.com/notargets/gomsh/mesh"
	"github.com/notargets/gomsh/mesh/readers"
)

// Parameters obtained from the YAML input file. ghodss/yaml decodes through
// encoding/json, so the field names come from json tags.
type ReaderParameters struct {
	Title          string `json:"Title"`
	ForceDimension int    `json:"ForceDimension"` // 0 means derive from the elements
	NodeCheck      string `json:"NodeCheck"`      // deferred, eager or none
	ByteOrder      string `json:"ByteOrder"`      // little or big
	ProcLimit      int    `json:"ProcLimit"`
}

func (rp *ReaderParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, rp)
}

// Options converts the parameters into reader options, rejecting values the
// readers would not understand.
func (rp *ReaderParameters) Options() (opts []readers.Option, err error) {
	if rp.ForceDimension < 0 || rp.ForceDimension > 3 {
		err = fmt.Errorf("ForceDimension must be between 0 and 3, have %d", rp.ForceDimension)
		return
	}
	var nc mesh.NodeCheck
	if nc, err = mesh.ParseNodeCheck(rp.NodeCheck); err != nil {
		return
	}
	var order binary.ByteOrder
	switch strings.ToLower(rp.ByteOrder) {
	case "", "little":
		order = binary.LittleEndian
	case "big":
		order = binary.BigEndian
	default:
		err = fmt.Errorf("unknown ByteOrder %q, want little or big", rp.ByteOrder)
		return
	}
	opts = []readers.Option{
		readers.WithNodeCheck(nc),
		readers.WithByteOrder(order),
		readers.WithProcLimit(rp.ProcLimit),
	}
	if rp.ForceDimension != 0 {
		opts = append(opts, readers.WithForceDimension(rp.ForceDimension))
	}
	return
}

func (rp *ReaderParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%d]\t\t\t\t= Force Dimension\n", rp.ForceDimension)
	fmt.Printf("[%s]\t\t\t= Node Check\n", rp.NodeCheck)
	fmt.Printf("[%s]\t\t\t= Byte Order\n", rp.ByteOrder)
	fmt.Printf("[%d]\t\t\t\t= Proc Limit\n", rp.ProcLimit)
}
