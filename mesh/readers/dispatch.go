package readers

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/notargets/gomsh/mesh"
)

var log = commonlog.GetLogger("gomsh.readers")

// SectionFunc decodes one section body, from the line after $Name up to,
// but not including, $EndName.
type SectionFunc func(c *Cursor, r mesh.Receiver) error

// SectionParser decodes the sections of one format generation. It is
// chosen once from the header.
type SectionParser interface {
	Lookup(name string) (SectionFunc, bool)
}

type sectionTable map[string]SectionFunc

func (t sectionTable) Lookup(name string) (SectionFunc, bool) {
	fn, ok := t[name]
	return fn, ok
}

// Sections that carry post-processing or partition data we do not decode.
var ignoredSections = map[string]bool{
	"NodeData":            true,
	"ElementData":         true,
	"ElementNodeData":     true,
	"InterpolationScheme": true,
	"PartitionedEntities": true,
	"Parametrizations":    true,
	"Comments":            true,
}

type config struct {
	order     binary.ByteOrder
	nodeCheck mesh.NodeCheck
	dim       int
	procLimit int
}

type Option func(*config)

// WithByteOrder sets the byte order binary files are expected in. The
// default is little endian.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *config) { c.order = order }
}

// WithNodeCheck sets the node reference policy of the Builder used by
// ReadMesh and friends.
func WithNodeCheck(nc mesh.NodeCheck) Option {
	return func(c *config) { c.nodeCheck = nc }
}

// WithForceDimension fixes the dimension of meshes built by ReadMesh.
func WithForceDimension(dim int) Option {
	return func(c *config) { c.dim = dim }
}

// WithProcLimit caps the number of files ReadMeshFiles parses at once.
// Zero or less means one per CPU.
func WithProcLimit(n int) Option {
	return func(c *config) { c.procLimit = n }
}

func newConfig(opts []Option) *config {
	cfg := &config{order: binary.LittleEndian}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Read streams one .msh document into rcv. Records reach rcv in file
// order; Finalize is called only after the whole stream parsed cleanly.
func Read(in io.Reader, rcv mesh.Receiver, opts ...Option) error {
	cfg := newConfig(opts)
	c := NewCursor(in, cfg.order)

	f, parser, pending, err := readHeader(c)
	if err != nil {
		return wrap(c, "MeshFormat", err)
	}
	if fr, ok := rcv.(mesh.FormatReceiver); ok {
		if err = fr.SetFormat(f); err != nil {
			return wrap(c, "MeshFormat", err)
		}
	}

	for {
		line := pending
		pending = ""
		if line == "" {
			if line, err = c.NextLine(); errors.Is(err, io.EOF) {
				break
			} else if err != nil {
				return wrap(c, "", err)
			}
		}
		if !strings.HasPrefix(line, "$") {
			return wrap(c, "", fmt.Errorf("%w: expected a section marker, found %q",
				mesh.ErrMalformedSection, clip(line)))
		}
		name := line[1:]
		fn, ok := parser.Lookup(name)
		if !ok {
			if ignoredSections[name] {
				log.Debugf("skipping section $%s", name)
			} else {
				log.Warningf("skipping unrecognized section $%s", name)
			}
			if err = skipSection(c, name); err != nil {
				return wrap(c, name, err)
			}
			continue
		}
		if err = fn(c, rcv); err != nil {
			return wrap(c, name, err)
		}
		if err = expectEnd(c, name); err != nil {
			return wrap(c, name, err)
		}
	}

	if err = rcv.Finalize(); err != nil {
		return wrap(c, "", err)
	}
	return nil
}

// ReadMesh parses one document into a Mesh using a Builder.
func ReadMesh(in io.Reader, opts ...Option) (*mesh.Mesh, error) {
	cfg := newConfig(opts)
	b := mesh.NewBuilder(mesh.WithNodeCheck(cfg.nodeCheck), mesh.WithDimension(cfg.dim))
	if err := Read(in, b, opts...); err != nil {
		return nil, err
	}
	return b.Mesh(), nil
}

// ReadMeshFile opens and parses a .msh file.
func ReadMeshFile(filename string, opts ...Option) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	m, err := ReadMesh(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

// readHeader decodes $MeshFormat and selects the section parser. Legacy
// files have no header and open directly with $NOD or $ELM, which is then
// returned as pending so the main loop dispatches it.
func readHeader(c *Cursor) (f mesh.Format, parser SectionParser, pending string, err error) {
	var line string
	if line, err = c.NextLine(); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("%w: empty input", mesh.ErrMalformedHeader)
		}
		return
	}
	switch {
	case strings.EqualFold(line, "$NOD") || strings.EqualFold(line, "$ELM"):
		f = mesh.Format{Version: "1.0", Major: 1}
		return f, newV1Parser(), line, nil
	case line != "$MeshFormat":
		err = fmt.Errorf("%w: expected $MeshFormat, found %q", mesh.ErrMalformedHeader, clip(line))
		return
	}

	if line, err = c.NextLine(); err != nil {
		err = fmt.Errorf("%w: missing format fields", mesh.ErrMalformedHeader)
		return
	}
	fields := strings.Fields(line)
	if len(fields) != 3 {
		err = fmt.Errorf("%w: want version, file-type and data-size, got %q", mesh.ErrMalformedHeader, line)
		return
	}
	f.Version = fields[0]
	if f.Major, f.Minor, err = parseVersion(fields[0]); err != nil {
		return
	}
	fileType, err1 := strconv.Atoi(fields[1])
	dataSize, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || (fileType != 0 && fileType != 1) {
		err = fmt.Errorf("%w: bad file-type or data-size in %q", mesh.ErrMalformedHeader, line)
		return
	}
	f.Binary, f.DataSize = fileType == 1, dataSize

	switch f.Major {
	case 1:
		if f.Binary {
			err = fmt.Errorf("%w: binary %s", mesh.ErrUnsupportedVersion, f.Version)
			return
		}
		parser = newV1Parser()
	case 2:
		if f.Minor > 2 {
			log.Warningf("unexpected minor version in format %s, reading as 2.2", f.Version)
		}
		if f.Binary && f.DataSize != 8 {
			err = fmt.Errorf("%w: data-size %d, binary 2.x requires 8", mesh.ErrMalformedHeader, f.DataSize)
			return
		}
		parser = newV2Parser()
	case 4:
		switch {
		case f.Minor == 0 && f.Binary:
			err = fmt.Errorf("%w: binary %s", mesh.ErrUnsupportedVersion, f.Version)
			return
		case f.Minor > 1:
			log.Warningf("unexpected minor version in format %s, reading as 4.1", f.Version)
		}
		if f.Binary && f.DataSize != 4 && f.DataSize != 8 {
			err = fmt.Errorf("%w: data-size %d, binary 4.x requires 4 or 8", mesh.ErrMalformedHeader, f.DataSize)
			return
		}
		parser = newV4Parser(f.Minor)
	default:
		err = fmt.Errorf("%w: %s", mesh.ErrUnsupportedVersion, f.Version)
		return
	}

	if f.Binary {
		if err = c.ReadByteOrderMarker(); err != nil {
			return
		}
		c.SetBinary(true, f.DataSize)
	}
	if err = expectEnd(c, "MeshFormat"); err != nil {
		return
	}
	return f, parser, "", nil
}

func parseVersion(v string) (major, minor int, err error) {
	ma, mi, _ := strings.Cut(v, ".")
	if major, err = strconv.Atoi(ma); err == nil && mi != "" {
		minor, err = strconv.Atoi(mi)
	}
	if err != nil || major < 0 || minor < 0 {
		return 0, 0, fmt.Errorf("%w: bad version %q", mesh.ErrMalformedHeader, v)
	}
	return
}

// expectEnd requires the next non blank line to close section name. Legacy
// markers are upper case, so the comparison ignores case.
func expectEnd(c *Cursor, name string) error {
	line, err := c.NextLine()
	if err != nil {
		return truncated(err)
	}
	if !isEnd(line, name) {
		return fmt.Errorf("%w: expected $End%s, found %q", mesh.ErrMalformedSection, name, clip(line))
	}
	return nil
}

// skipSection consumes lines up to and including the end marker of name.
func skipSection(c *Cursor, name string) error {
	for {
		line, err := c.ReadLine()
		if err != nil {
			return truncated(err)
		}
		if isEnd(strings.TrimSpace(line), name) {
			return nil
		}
	}
}

func isEnd(line, name string) bool {
	return strings.EqualFold(line, "$End"+name)
}

func wrap(c *Cursor, section string, err error) error {
	var pe *mesh.ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &mesh.ParseError{Section: section, Offset: c.Pos(), Err: err}
}

// clip shortens a line for error messages, binary garbage can be long.
func clip(s string) string {
	const maxLen = 40
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
