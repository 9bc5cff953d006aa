package integrals

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/s2"
)

// snapshotMagic guards against decoding a foreign blob as an integral table.
const snapshotMagic = uint32(0x49544231) // "ITB1"

// MarshalBinary encodes the table as an s2-compressed blob for replication
// to other ranks.
func (t *Table) MarshalBinary() ([]byte, error) {
	raw := make([]byte, 0, 32+8*len(t.orbSym)+16*(len(t.oneBody)+len(t.twoBody)))
	raw = binary.LittleEndian.AppendUint32(raw, snapshotMagic)
	raw = binary.LittleEndian.AppendUint32(raw, t.nOrbs)
	raw = binary.LittleEndian.AppendUint32(raw, t.nUp)
	raw = binary.LittleEndian.AppendUint32(raw, t.nDn)
	raw = binary.LittleEndian.AppendUint32(raw, uint32(len(t.orbSym)))
	for _, sym := range t.orbSym {
		raw = binary.LittleEndian.AppendUint32(raw, sym)
	}
	raw = appendEntries(raw, t.oneBody)
	raw = appendEntries(raw, t.twoBody)
	return s2.Encode(nil, raw), nil
}

// UnmarshalBinary decodes a blob produced by MarshalBinary, replacing the
// receiver's contents.
func (t *Table) UnmarshalBinary(data []byte) error {
	raw, err := s2.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("integrals: decompress snapshot: %w", err)
	}
	r := reader{buf: raw}
	if magic := r.uint32(); magic != snapshotMagic {
		return fmt.Errorf("integrals: bad snapshot magic %#x", magic)
	}
	t.nOrbs = r.uint32()
	t.nUp = r.uint32()
	t.nDn = r.uint32()
	nSym := int(r.uint32())
	t.orbSym = make([]uint32, nSym)
	for i := range t.orbSym {
		t.orbSym[i] = r.uint32()
	}
	t.oneBody = r.entries()
	t.twoBody = r.entries()
	if r.err != nil {
		return fmt.Errorf("integrals: decode snapshot: %w", r.err)
	}
	return nil
}

func appendEntries(b []byte, m map[uint64]float64) []byte {
	b = binary.LittleEndian.AppendUint64(b, uint64(len(m)))
	for k, v := range m {
		b = binary.LittleEndian.AppendUint64(b, k)
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b
}

type reader struct {
	buf []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf) < n {
		r.err = fmt.Errorf("truncated blob (need %d bytes, have %d)", n, len(r.buf))
		return nil
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b
}

func (r *reader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) entries() map[uint64]float64 {
	n := r.uint64()
	// Entries are 16 bytes each; a corrupt count must fail before the
	// allocation it implies.
	if n > uint64(len(r.buf))/16 {
		r.err = fmt.Errorf("entry count %d exceeds remaining %d bytes", n, len(r.buf))
		return nil
	}
	m := make(map[uint64]float64, n)
	for i := uint64(0); i < n && r.err == nil; i++ {
		k := r.uint64()
		v := math.Float64frombits(r.uint64())
		m[k] = v
	}
	return m
}
