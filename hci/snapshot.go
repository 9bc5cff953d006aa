package hci

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/s2"
)

const snapshotMagic = uint32(0x48425131) // "HBQ1"

// MarshalBinary encodes the queue as an s2-compressed blob. The coordinator
// broadcasts this to the other ranks, which restore it with
// UnmarshalBinary; without that step non-coordinator ranks would consume an
// empty queue.
func (q *Queue) MarshalBinary() ([]byte, error) {
	raw := make([]byte, 0, 32+16*q.nEntries)
	raw = binary.LittleEndian.AppendUint32(raw, snapshotMagic)
	raw = binary.LittleEndian.AppendUint32(raw, q.nOrbs)
	raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(q.maxElem))
	raw = binary.LittleEndian.AppendUint64(raw, q.nEntries)
	raw = binary.LittleEndian.AppendUint64(raw, uint64(len(q.buckets)))
	for _, bucket := range q.buckets {
		raw = binary.LittleEndian.AppendUint32(raw, uint32(len(bucket)))
		for _, hrs := range bucket {
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(hrs.H))
			raw = binary.LittleEndian.AppendUint32(raw, hrs.R)
			raw = binary.LittleEndian.AppendUint32(raw, hrs.S)
		}
	}
	return s2.Encode(nil, raw), nil
}

// UnmarshalBinary decodes a blob produced by MarshalBinary, replacing the
// receiver's contents.
func (q *Queue) UnmarshalBinary(data []byte) error {
	raw, err := s2.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("hci: decompress queue snapshot: %w", err)
	}
	r := snapReader{buf: raw}
	if magic := r.uint32(); magic != snapshotMagic {
		return fmt.Errorf("hci: bad queue snapshot magic %#x", magic)
	}
	q.nOrbs = r.uint32()
	q.maxElem = math.Float64frombits(r.uint64())
	q.nEntries = r.uint64()
	nBuckets := r.uint64()
	q.buckets = make([][]Hrs, nBuckets)
	for i := range q.buckets {
		n := r.uint32()
		if n == 0 {
			continue
		}
		// Entries are 16 bytes each; a corrupt length must fail before
		// the allocation it implies.
		if uint64(n)*16 > uint64(len(r.buf)) {
			return fmt.Errorf("hci: queue snapshot bucket %d claims %d entries with %d bytes left", i, n, len(r.buf))
		}
		bucket := make([]Hrs, n)
		for j := range bucket {
			bucket[j].H = math.Float64frombits(r.uint64())
			bucket[j].R = r.uint32()
			bucket[j].S = r.uint32()
		}
		q.buckets[i] = bucket
	}
	if r.err != nil {
		return fmt.Errorf("hci: decode queue snapshot: %w", r.err)
	}
	return nil
}

type snapReader struct {
	buf []byte
	err error
}

func (r *snapReader) take(n int) []byte {
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

func (r *snapReader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *snapReader) uint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
