package hdfio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Snapshot format:
//
//	magic    uint32 LE ("ATSN")
//	version  uint8
//	codec    uint8
//	payload  compressed group-tree encoding
//	crc32    uint32 LE, IEEE, over the compressed payload
//
// The tree encoding is deterministic: datasets and subgroups are written in
// lexical name order, so equal trees produce equal bytes.
const (
	snapshotMagic   uint32 = 0x4e535441 // "ATSN"
	snapshotVersion uint8  = 1
)

// Codec selects the payload compression of a snapshot.
type Codec uint8

const (
	// CodecRaw stores the payload uncompressed.
	CodecRaw Codec = iota
	// CodecZstd compresses the payload with zstandard.
	CodecZstd
	// CodecLZ4 compresses the payload with lz4.
	CodecLZ4
)

// String returns the string representation of the Codec.
func (c Codec) String() string {
	switch c {
	case CodecRaw:
		return "raw"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// WriteSnapshot encodes the group tree rooted at g into w.
func WriteSnapshot(w io.Writer, g *MemGroup, codec Codec) error {
	var payload bytes.Buffer
	if err := encodeGroup(&payload, g); err != nil {
		return err
	}

	compressed, err := compress(payload.Bytes(), codec)
	if err != nil {
		return err
	}

	var header [6]byte
	binary.LittleEndian.PutUint32(header[0:4], snapshotMagic)
	header[4] = snapshotVersion
	header[5] = byte(codec)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}

	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], crc32.ChecksumIEEE(compressed))
	_, err = w.Write(trailer[:])
	return err
}

// ReadSnapshot decodes a snapshot produced by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*MemGroup, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < 10 {
		return nil, fmt.Errorf("%w: truncated", ErrBadSnapshot)
	}
	if magic := binary.LittleEndian.Uint32(raw[0:4]); magic != snapshotMagic {
		return nil, fmt.Errorf("%w: magic 0x%08x", ErrBadSnapshot, magic)
	}
	if raw[4] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, raw[4])
	}
	codec := Codec(raw[5])

	compressed := raw[6 : len(raw)-4]
	want := binary.LittleEndian.Uint32(raw[len(raw)-4:])
	if got := crc32.ChecksumIEEE(compressed); got != want {
		return nil, fmt.Errorf("%w: checksum mismatch: 0x%08x != 0x%08x", ErrBadSnapshot, got, want)
	}

	payload, err := decompress(compressed, codec)
	if err != nil {
		return nil, err
	}

	g := NewMemGroup()
	buf := bytes.NewReader(payload)
	if err := decodeGroup(buf, g); err != nil {
		return nil, err
	}
	if buf.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBadSnapshot, buf.Len())
	}
	return g, nil
}

func compress(payload []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecRaw:
		return payload, nil
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(payload, nil), nil
	case CodecLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrBadSnapshot, codec)
	}
}

func decompress(compressed []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecRaw:
		return compressed, nil
	case CodecZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		payload, err := dec.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		return payload, nil
	case CodecLZ4:
		payload, err := io.ReadAll(lz4.NewReader(bytes.NewReader(compressed)))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrBadSnapshot, codec)
	}
}

func encodeGroup(buf *bytes.Buffer, g *MemGroup) error {
	names, _ := g.Datasets()
	writeUvarint(buf, uint64(len(names)))
	for _, name := range names {
		writeString(buf, name)
		ds := g.data[name]
		buf.WriteByte(byte(ds.kind))
		switch ds.kind {
		case dsFloat:
			writeUvarint(buf, uint64(len(ds.f64)))
			for _, v := range ds.f64 {
				var b [8]byte
				binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
				buf.Write(b[:])
			}
		case dsInt:
			writeUvarint(buf, uint64(len(ds.i64)))
			for _, v := range ds.i64 {
				var b [binary.MaxVarintLen64]byte
				buf.Write(b[:binary.PutVarint(b[:], v)])
			}
		case dsString:
			writeUvarint(buf, uint64(len(ds.str)))
			for _, v := range ds.str {
				writeString(buf, v)
			}
		case dsBool:
			writeUvarint(buf, uint64(len(ds.b)))
			for _, v := range ds.b {
				if v {
					buf.WriteByte(1)
				} else {
					buf.WriteByte(0)
				}
			}
		}
	}

	subs, _ := g.Groups()
	writeUvarint(buf, uint64(len(subs)))
	for _, name := range subs {
		writeString(buf, name)
		if err := encodeGroup(buf, g.groups[name]); err != nil {
			return err
		}
	}
	return nil
}

func decodeGroup(r *bytes.Reader, g *MemGroup) error {
	numData, err := readCount(r)
	if err != nil {
		return err
	}
	for i := 0; i < numData; i++ {
		name, err := readString(r)
		if err != nil {
			return err
		}
		kindByte, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
		}
		n, err := readCount(r)
		if err != nil {
			return err
		}
		ds := &memDataset{kind: dsKind(kindByte)}
		switch ds.kind {
		case dsFloat:
			ds.f64 = make([]float64, n)
			for j := range ds.f64 {
				var b [8]byte
				if _, err := io.ReadFull(r, b[:]); err != nil {
					return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
				}
				ds.f64[j] = math.Float64frombits(binary.LittleEndian.Uint64(b[:]))
			}
		case dsInt:
			ds.i64 = make([]int64, n)
			for j := range ds.i64 {
				v, err := binary.ReadVarint(r)
				if err != nil {
					return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
				}
				ds.i64[j] = v
			}
		case dsString:
			ds.str = make([]string, n)
			for j := range ds.str {
				if ds.str[j], err = readString(r); err != nil {
					return err
				}
			}
		case dsBool:
			ds.b = make([]bool, n)
			for j := range ds.b {
				b, err := r.ReadByte()
				if err != nil {
					return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
				}
				ds.b[j] = b != 0
			}
		default:
			return fmt.Errorf("%w: unknown dataset kind %d", ErrBadSnapshot, kindByte)
		}
		g.data[name] = ds
	}

	numSubs, err := readCount(r)
	if err != nil {
		return err
	}
	for i := 0; i < numSubs; i++ {
		name, err := readString(r)
		if err != nil {
			return err
		}
		sub := NewMemGroup()
		if err := decodeGroup(r, sub); err != nil {
			return err
		}
		g.groups[name] = sub
	}
	return nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var b [binary.MaxVarintLen64]byte
	buf.Write(b[:binary.PutUvarint(b[:], v)])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func readCount(r *bytes.Reader) (int, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if v > uint64(r.Len()) {
		return 0, fmt.Errorf("%w: count %d exceeds remaining input", ErrBadSnapshot, v)
	}
	return int(v), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readCount(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	return string(b), nil
}
