package wal

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// Codec selects how record payloads are compressed on disk.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecSnappy
	CodecLZ4
)

// minSavedBytes is the smallest win that makes a compressed payload
// worth the decode on replay.
const minSavedBytes = 64

func ParseCodec(name string) (Codec, error) {
	switch name {
	case "", "none":
		return CodecNone, nil
	case "snappy":
		return CodecSnappy, nil
	case "lz4":
		return CodecLZ4, nil
	default:
		return CodecNone, fmt.Errorf("unknown wal compression %q", name)
	}
}

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// compress encodes the payload with c, falling back to the raw bytes
// when compression does not save enough. The codec actually used is
// returned alongside the bytes.
func compress(c Codec, data []byte) ([]byte, Codec) {
	var out []byte
	switch c {
	case CodecSnappy:
		out = snappy.Encode(nil, data)
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil || n == 0 {
			return data, CodecNone
		}
		out = buf[:n]
	default:
		return data, CodecNone
	}
	if len(data)-len(out) < minSavedBytes {
		return data, CodecNone
	}
	return out, c
}

// decompress reverses compress. origLen is the uncompressed payload
// length recorded in the frame.
func decompress(c Codec, data []byte, origLen int) ([]byte, error) {
	switch c {
	case CodecNone:
		return data, nil
	case CodecSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decode: %w", err)
		}
		return out, nil
	case CodecLZ4:
		out := make([]byte, origLen)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decode: %w", err)
		}
		return out[:n], nil
	default:
		return nil, fmt.Errorf("unknown codec %d", c)
	}
}
