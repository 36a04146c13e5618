package recfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

var (
	dissectMagic = []byte("dissect")
	zstdMagic    = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

type layout int

const (
	// layoutChunked is a clear header followed by zstd frames (Y8S4 and later).
	layoutChunked layout = iota + 1
	// layoutUnchunked is a container compressed as a whole.
	layoutUnchunked
)

func detectLayout(data []byte) (layout, error) {
	switch {
	case bytes.HasPrefix(data, dissectMagic):
		return layoutChunked, nil
	case bytes.HasPrefix(data, zstdMagic):
		return layoutUnchunked, nil
	case bytes.HasPrefix(dissectMagic, data), bytes.HasPrefix(zstdMagic, data):
		return 0, truncated("magic", 0, fmt.Errorf("%d bytes", len(data)))
	default:
		n := min(len(data), len(dissectMagic))
		return 0, malformed("magic", 0, fmt.Errorf("unrecognized leading bytes % x", data[:n]))
	}
}

// skipPreamble moves c past the magic and the opaque versioning block that
// ends with the second run of seven zero bytes.
func skipPreamble(c *cursor) error {
	c.op = "preamble"
	magic, err := c.read(len(dissectMagic))
	if err != nil {
		return err
	}
	if !bytes.Equal(magic, dissectMagic) {
		return malformed(c.op, 0, fmt.Errorf("unrecognized magic % x", magic))
	}
	zeros, runs := 0, 0
	for runs < 2 {
		b, err := c.readByte()
		if err != nil {
			return err
		}
		if b != 0x00 {
			zeros = 0
			continue
		}
		zeros++
		if zeros == len(stringSeparator) {
			zeros = 0
			runs++
		}
	}
	return nil
}

// frameLength walks the frame header and block headers of the zstd frame at
// the start of b and returns the frame's total size in bytes.
func frameLength(b []byte, offset int) (int, error) {
	var h zstd.Header
	if err := h.Decode(b); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, truncated("zstd frame header", offset, err)
		}
		return 0, malformed("zstd frame header", offset, err)
	}
	n := h.HeaderSize
	for {
		if n+3 > len(b) {
			return 0, truncated("zstd block header", offset+n, fmt.Errorf("need 3 bytes, have %d", len(b)-n))
		}
		bh := uint32(b[n]) | uint32(b[n+1])<<8 | uint32(b[n+2])<<16
		last := bh&1 == 1
		size := int(bh >> 3)
		switch (bh >> 1) & 3 {
		case 0, 2:
		case 1:
			size = 1
		default:
			return 0, malformed("zstd block header", offset+n, errors.New("reserved block type"))
		}
		n += 3 + size
		if n > len(b) {
			return 0, truncated("zstd block", offset+n-size, fmt.Errorf("need %d bytes, have %d", size, len(b)-(n-size)))
		}
		if last {
			break
		}
	}
	if h.HasCheckSum {
		n += 4
		if n > len(b) {
			return 0, truncated("zstd checksum", offset+n-4, errors.New("missing frame checksum"))
		}
	}
	return n, nil
}

type frameDecoder struct {
	dec *zstd.Decoder
}

func newFrameDecoder() (*frameDecoder, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &frameDecoder{dec: dec}, nil
}

func (f *frameDecoder) Close() { f.dec.Close() }

func (f *frameDecoder) decodeFrame(dst, frame []byte, offset int) ([]byte, error) {
	out, err := f.dec.DecodeAll(frame, dst)
	if err != nil {
		return nil, malformed("zstd frame", offset, err)
	}
	return out, nil
}

// decompressFrames decodes every zstd frame found in data from start on.
// Bytes between frames are ignored, but a buffer ending in the first bytes
// of a frame magic is truncated. At least one frame is required.
func (f *frameDecoder) decompressFrames(data []byte, start int) ([]byte, int, error) {
	var out []byte
	frames := 0
	for pos := start; pos < len(data); {
		i := bytes.Index(data[pos:], zstdMagic)
		if i < 0 {
			if k := partialMagicSuffix(data[pos:]); k > 0 {
				return nil, frames, truncated("zstd frame header", len(data)-k, io.ErrUnexpectedEOF)
			}
			break
		}
		pos += i
		n, err := frameLength(data[pos:], pos)
		if err != nil {
			return nil, frames, err
		}
		if out, err = f.decodeFrame(out, data[pos:pos+n], pos); err != nil {
			return nil, frames, err
		}
		frames++
		pos += n
	}
	if frames == 0 {
		return nil, 0, truncated("body", start, errors.New("no compressed frames after header"))
	}
	return out, frames, nil
}

// decompressWhole decodes the consecutive frames that make up an unchunked
// container. Trailing bytes that do not start a frame are ignored.
func (f *frameDecoder) decompressWhole(data []byte) ([]byte, error) {
	var out []byte
	pos := 0
	for pos < len(data) && bytes.HasPrefix(data[pos:], zstdMagic) {
		n, err := frameLength(data[pos:], pos)
		if err != nil {
			return nil, err
		}
		if out, err = f.decodeFrame(out, data[pos:pos+n], pos); err != nil {
			return nil, err
		}
		pos += n
	}
	if pos < len(data) && bytes.HasPrefix(zstdMagic, data[pos:]) {
		return nil, truncated("zstd frame header", pos, io.ErrUnexpectedEOF)
	}
	return out, nil
}

// partialMagicSuffix returns how many trailing bytes of b form an incomplete
// zstd magic, or 0.
func partialMagicSuffix(b []byte) int {
	for k := min(len(b), len(zstdMagic)-1); k > 0; k-- {
		if bytes.HasSuffix(b, zstdMagic[:k]) {
			return k
		}
	}
	return 0
}
