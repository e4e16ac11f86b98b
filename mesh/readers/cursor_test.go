package readers

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gomsh/mesh"
)

func TestCursorLines(t *testing.T) {
	c := NewCursor(strings.NewReader("first\r\n\n  \nsecond\nlast"), nil)

	b, err := c.Peek(5)
	require.NoError(t, err)
	assert.Equal(t, "first", string(b))
	assert.Equal(t, int64(0), c.Pos())

	line, err := c.NextLine()
	require.NoError(t, err)
	assert.Equal(t, "first", line)
	assert.Equal(t, int64(7), c.Pos())

	line, err = c.NextLine()
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = c.ReadLine()
	assert.Equal(t, io.EOF, err)
}

func TestCursorASCIIRows(t *testing.T) {
	c := NewCursor(strings.NewReader("3 1.5 -2\n7 8\n$End\n"), nil)

	require.NoError(t, c.BeginRow())
	i, err := c.Int()
	require.NoError(t, err)
	assert.Equal(t, 3, i)
	f, err := c.Float()
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)
	n, err := c.Count()
	assert.True(t, errors.Is(err, mesh.ErrMalformedSection), "negative count: %v", err)
	assert.Equal(t, -2, n)
	require.NoError(t, c.EndRow())

	// Unread fields close the row with an error
	require.NoError(t, c.BeginRow())
	_, err = c.Int()
	require.NoError(t, err)
	assert.True(t, errors.Is(c.EndRow(), mesh.ErrMalformedSection))

	// A section marker is never a data row
	assert.True(t, errors.Is(c.BeginRow(), mesh.ErrMalformedSection))
	assert.True(t, errors.Is(c.BeginRow(), mesh.ErrTruncatedSection))
}

func TestCursorBinary(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			var buf bytes.Buffer
			_ = binary.Write(&buf, order, int32(1))
			_ = binary.Write(&buf, order, int32(-5))
			_ = binary.Write(&buf, order, uint32(9))
			_ = binary.Write(&buf, order, uint64(1<<40))
			_ = binary.Write(&buf, order, math.Pi)
			buf.WriteString("12\n")
			_ = binary.Write(&buf, order, int32(2))

			c := NewCursor(&buf, order)
			require.NoError(t, c.ReadByteOrderMarker())
			c.SetBinary(true, 4)
			assert.True(t, c.Binary())

			require.NoError(t, c.BeginRow())
			i, err := c.Int()
			require.NoError(t, err)
			assert.Equal(t, -5, i)
			s, err := c.Size()
			require.NoError(t, err)
			assert.Equal(t, 9, s)
			c.SetBinary(true, 8)
			s, err = c.Size()
			require.NoError(t, err)
			assert.Equal(t, 1<<40, s)
			f, err := c.Float()
			require.NoError(t, err)
			assert.Equal(t, math.Pi, f)
			require.NoError(t, c.EndRow())

			n, err := c.CountLine()
			require.NoError(t, err)
			assert.Equal(t, 12, n)
			assert.True(t, c.Binary())

			_, err = c.Float()
			assert.True(t, errors.Is(err, mesh.ErrTruncatedSection), "%v", err)
		})
	}
}

func TestCursorByteOrderMismatch(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, int32(1))
	err := NewCursor(&buf, binary.LittleEndian).ReadByteOrderMarker()
	assert.True(t, errors.Is(err, mesh.ErrMalformedHeader), "%v", err)
}

func TestCursorTokens(t *testing.T) {
	c := NewCursor(strings.NewReader("Affine 1 2\n2 7 \"a b\"  \n"), nil)
	require.NoError(t, c.BeginRow())
	tok, err := c.PeekToken()
	require.NoError(t, err)
	assert.Equal(t, "Affine", tok)
	tok, err = c.Token()
	require.NoError(t, err)
	assert.Equal(t, "Affine", tok)
	vals, err := c.Ints(2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, vals)
	assert.False(t, c.Remaining())
	_, err = c.Token()
	assert.True(t, errors.Is(err, mesh.ErrMalformedSection))
	require.NoError(t, c.EndRow())

	require.NoError(t, c.BeginRow())
	_, err = c.Ints(2)
	require.NoError(t, err)
	assert.True(t, c.Remaining())
	assert.Equal(t, `"a b"`, c.Rest())
	require.NoError(t, c.EndRow())
}
