package recfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var stringSeparator = []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// cursor reads little-endian values from an immutable buffer. op names the
// structure being read and ends up in any error.
type cursor struct {
	b   []byte
	off int
	op  string
}

func (c *cursor) short(n int) error {
	return truncated(c.op, c.off, fmt.Errorf("need %d bytes, have %d", n, len(c.b)-c.off))
}

func (c *cursor) skip(n int) error {
	if n < 0 || c.off+n > len(c.b) {
		return c.short(n)
	}
	c.off += n
	return nil
}

func (c *cursor) read(n int) ([]byte, error) {
	start := c.off
	if err := c.skip(n); err != nil {
		return nil, err
	}
	return c.b[start:c.off], nil
}

func (c *cursor) readByte() (byte, error) {
	b, err := c.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readString reads a length-prefixed packet string.
func (c *cursor) readString() (string, error) {
	n, err := c.readByte()
	if err != nil {
		return "", err
	}
	b, err := c.read(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readHeaderString reads a header string: length, seven zero bytes, payload.
func (c *cursor) readHeaderString() (string, error) {
	n, err := c.readByte()
	if err != nil {
		return "", err
	}
	sep, err := c.read(len(stringSeparator))
	if err != nil {
		return "", err
	}
	if !bytes.Equal(sep, stringSeparator) {
		return "", malformed(c.op, c.off-len(sep), fmt.Errorf("invalid string separator % x", sep))
	}
	b, err := c.read(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readUint32 reads a size byte followed by four little-endian bytes.
func (c *cursor) readUint32() (uint32, error) {
	if err := c.skip(1); err != nil {
		return 0, err
	}
	b, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readUint64 reads a size byte followed by eight little-endian bytes.
func (c *cursor) readUint64() (uint64, error) {
	if err := c.skip(1); err != nil {
		return 0, err
	}
	b, err := c.read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// seek moves past the next occurrence of pattern.
func (c *cursor) seek(pattern []byte) error {
	i := bytes.Index(c.b[c.off:], pattern)
	if i < 0 {
		return truncated(c.op, c.off, fmt.Errorf("marker % x not found", pattern))
	}
	c.off += i + len(pattern)
	return nil
}
