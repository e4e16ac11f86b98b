package readers

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/notargets/gomsh/mesh"
)

// Cursor is a forward-only reader over a .msh byte stream. Section bodies
// are consumed as rows: in ASCII mode a row is one text line whose fields
// must all be used, in binary mode rows are implicit and each field is a
// fixed-width value in the configured byte order.
type Cursor struct {
	r      *bufio.Reader
	pos    int64
	binary bool
	order  binary.ByteOrder
	sizeT  int // Width of size_t fields in binary 4.x files

	inRow bool
	rest  string // Unconsumed text of the current ASCII row
}

func NewCursor(r io.Reader, order binary.ByteOrder) *Cursor {
	if order == nil {
		order = binary.LittleEndian
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64*1024)
	}
	return &Cursor{r: br, order: order, sizeT: 8}
}

// Pos is the number of bytes consumed so far.
func (c *Cursor) Pos() int64 { return c.pos }

func (c *Cursor) Binary() bool { return c.binary }

// SetBinary switches numeric fields to fixed-width decoding, with sizeT the
// byte width of size_t fields.
func (c *Cursor) SetBinary(binary bool, sizeT int) {
	c.binary = binary
	if sizeT > 0 {
		c.sizeT = sizeT
	}
}

// ReadLine returns the next line without its line terminator. io.EOF is
// returned only when no bytes remain.
func (c *Cursor) ReadLine() (string, error) {
	line, err := c.r.ReadString('\n')
	c.pos += int64(len(line))
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		} else {
			return "", err
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NextLine returns the next non blank line with surrounding space trimmed.
func (c *Cursor) NextLine() (string, error) {
	for {
		line, err := c.ReadLine()
		if err != nil {
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
}

// Peek returns the next n bytes without consuming them.
func (c *Cursor) Peek(n int) ([]byte, error) { return c.r.Peek(n) }

// ReadBytes consumes exactly n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	nr, err := io.ReadFull(c.r, buf)
	c.pos += int64(nr)
	if err != nil {
		return nil, truncated(err)
	}
	return buf, nil
}

// ReadByteOrderMarker checks the integer 1 that follows the header line of
// binary files. A different value means the producer used the other byte
// order.
func (c *Cursor) ReadByteOrderMarker() error {
	b, err := c.ReadBytes(4)
	if err != nil {
		return fmt.Errorf("%w: missing byte order marker", mesh.ErrMalformedHeader)
	}
	if one := int32(c.order.Uint32(b)); one != 1 {
		return fmt.Errorf("%w: byte order marker decodes to %d under %v",
			mesh.ErrMalformedHeader, one, c.order)
	}
	return nil
}

// BeginRow starts the next row. In ASCII mode it loads the next non blank
// line, which must not be a section marker: reaching one means the section
// declared more rows than it holds. In binary mode nothing is consumed,
// but an end marker in place of the next record is rejected the same way.
func (c *Cursor) BeginRow() error {
	if c.binary {
		if c.atEndMarker() {
			return fmt.Errorf("%w: found a section end where a binary record was expected",
				mesh.ErrMalformedSection)
		}
		return nil
	}
	line, err := c.NextLine()
	if err != nil {
		return truncated(err)
	}
	if strings.HasPrefix(line, "$") {
		return fmt.Errorf("%w: found %s where a data row was expected", mesh.ErrMalformedSection, line)
	}
	c.inRow, c.rest = true, line
	return nil
}

// EndRow closes the current row, failing if ASCII fields were left unread.
func (c *Cursor) EndRow() error {
	if c.binary {
		return nil
	}
	extra := strings.TrimSpace(c.rest)
	c.inRow, c.rest = false, ""
	if extra != "" {
		return fmt.Errorf("%w: unexpected trailing fields %q", mesh.ErrMalformedSection, extra)
	}
	return nil
}

// Token returns the next whitespace delimited field of the current ASCII row.
func (c *Cursor) Token() (string, error) {
	if !c.inRow {
		return "", fmt.Errorf("%w: read outside of a row", mesh.ErrMalformedSection)
	}
	s := strings.TrimLeft(c.rest, " \t")
	if s == "" {
		return "", fmt.Errorf("%w: row has too few fields", mesh.ErrMalformedSection)
	}
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		i = len(s)
	}
	c.rest = s[i:]
	return s[:i], nil
}

// PeekToken returns the next field of the current ASCII row without
// consuming it.
func (c *Cursor) PeekToken() (string, error) {
	saved := c.rest
	tok, err := c.Token()
	c.rest = saved
	return tok, err
}

// Rest consumes and returns the unread text of the current ASCII row.
func (c *Cursor) Rest() string {
	s := strings.TrimSpace(c.rest)
	c.rest = ""
	return s
}

// Remaining reports whether the current ASCII row has unread fields.
func (c *Cursor) Remaining() bool { return strings.TrimSpace(c.rest) != "" }

// Int reads an int field, 4 bytes wide in binary mode.
func (c *Cursor) Int() (int, error) {
	if c.binary {
		b, err := c.ReadBytes(4)
		if err != nil {
			return 0, err
		}
		return int(int32(c.order.Uint32(b))), nil
	}
	return c.asciiInt()
}

// Size reads a size_t field, sizeT bytes wide in binary mode.
func (c *Cursor) Size() (int, error) {
	if !c.binary {
		return c.asciiInt()
	}
	b, err := c.ReadBytes(c.sizeT)
	if err != nil {
		return 0, err
	}
	var v uint64
	if c.sizeT == 4 {
		v = uint64(c.order.Uint32(b))
	} else {
		v = c.order.Uint64(b)
	}
	if v > math.MaxInt {
		return 0, fmt.Errorf("%w: size_t value %d out of range", mesh.ErrMalformedSection, v)
	}
	return int(v), nil
}

// Count reads a size_t field that must not be negative.
func (c *Cursor) Count() (int, error) {
	n, err := c.Size()
	if err == nil && n < 0 {
		err = fmt.Errorf("%w: negative count %d", mesh.ErrMalformedSection, n)
	}
	return n, err
}

// Float reads a double, 8 bytes wide in binary mode.
func (c *Cursor) Float() (float64, error) {
	if c.binary {
		b, err := c.ReadBytes(8)
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(c.order.Uint64(b)), nil
	}
	tok, err := c.Token()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", mesh.ErrMalformedSection, tok)
	}
	return f, nil
}

// Ints reads n int fields.
func (c *Cursor) Ints(n int) ([]int, error) {
	vals := make([]int, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		v, err := c.Int()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// Floats reads n double fields.
func (c *Cursor) Floats(n int) ([]float64, error) {
	vals := make([]float64, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		v, err := c.Float()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// ASCII runs fn with binary decoding suspended, for blocks that stay text
// in binary files.
func (c *Cursor) ASCII(fn func() error) error {
	saved := c.binary
	c.binary = false
	defer func() { c.binary = saved }()
	return fn()
}

// Row reads one row with fn, enforcing its arity in ASCII mode.
func (c *Cursor) Row(fn func() error) error {
	if err := c.BeginRow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return c.EndRow()
}

// CountLine reads a text line holding a single count.
func (c *Cursor) CountLine() (n int, err error) {
	err = c.ASCII(func() error {
		return c.Row(func() (err error) {
			n, err = c.Count()
			return
		})
	})
	return
}

func (c *Cursor) asciiInt() (int, error) {
	tok, err := c.Token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: bad integer %q", mesh.ErrMalformedSection, tok)
	}
	return v, nil
}

// atEndMarker reports whether the unread bytes open with $End, possibly
// after the newline binary writers put before it.
func (c *Cursor) atEndMarker() bool {
	b, _ := c.r.Peek(len(endMarker) + 1)
	b = bytes.TrimPrefix(b, []byte("\n"))
	return bytes.HasPrefix(b, endMarker)
}

var endMarker = []byte("$End")

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: unexpected end of stream", mesh.ErrTruncatedSection)
	}
	return err
}
