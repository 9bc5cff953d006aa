package hci

import (
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jl2922/msci/integrals"
	"github.com/jl2922/msci/symmetry"
)

// trivialTable returns a no-symmetry table: every orbital carries irrep 1.
func trivialTable(t *testing.T, nOrbs uint32) *symmetry.Table {
	t.Helper()
	orbSym := make([]uint32, nOrbs)
	for i := range orbSym {
		orbSym[i] = 1
	}
	tbl, err := symmetry.NewTable(symmetry.None, symmetry.NewTrivialTable(), orbSym)
	require.NoError(t, err)
	return tbl
}

func TestBuildQueueCompleteness(t *testing.T) {
	// 4 orbitals, no symmetry. The only same-spin destination pair for
	// origin (0,1) that avoids index collisions is (2,3).
	src := integrals.NewTable(4, []uint32{1, 1, 1, 1}, 2, 2)
	src.Set2B(0, 2, 1, 3, 0.5)
	src.Set2B(0, 3, 1, 2, 0.1)

	q, err := BuildQueue(trivialTable(t, 4), src)
	require.NoError(t, err)

	bucket := q.Bucket(0, 1)
	require.Len(t, bucket, 1)
	assert.Equal(t, uint32(2), bucket[0].R)
	assert.Equal(t, uint32(3), bucket[0].S)
	assert.InDelta(t, 0.4, bucket[0].H, 1e-12)
}

func TestBuildQueueOrderingAndMax(t *testing.T) {
	src := integrals.NewTable(4, []uint32{1, 1, 1, 1}, 2, 2)
	// A spread of couplings; values chosen to produce several entries per
	// opposite-spin bucket.
	vals := []struct {
		i, j, k, l uint32
		v          float64
	}{
		{0, 1, 0, 1, 0.3},
		{0, 2, 0, 2, 0.9},
		{0, 1, 2, 3, 0.2},
		{1, 3, 0, 2, 0.7},
		{0, 3, 1, 2, 0.05},
		{1, 2, 1, 2, 0.45},
	}
	for _, e := range vals {
		src.Set2B(e.i, e.j, e.k, e.l, e.v)
	}

	q, err := BuildQueue(trivialTable(t, 4), src)
	require.NoError(t, err)
	require.Greater(t, q.NumEntries(), uint64(0))

	trueMax := 0.0
	var total uint64
	for p := uint32(0); p < 8; p++ {
		for qq := p + 1; qq < 8; qq++ {
			bucket := q.Bucket(p, qq)
			for i, hrs := range bucket {
				assert.Greater(t, hrs.H, 0.0)
				if i > 0 {
					assert.GreaterOrEqual(t, bucket[i-1].H, hrs.H,
						"bucket (%d,%d) not sorted at %d", p, qq, i)
				}
				if hrs.H > trueMax {
					trueMax = hrs.H
				}
			}
			total += uint64(len(bucket))
		}
	}
	assert.Equal(t, trueMax, q.MaxAbs())
	assert.Equal(t, total, q.NumEntries())
}

func TestBuildQueueSymmetryPruning(t *testing.T) {
	// With orbital irreps {1,1,2,2}, the destination pair (2,3) carries the
	// same combined irrep as the origin (0,1) and survives; with irreps
	// {1,1,2,3} it does not, so the same integral feeds no entry.
	src2b := func(orbSym []uint32) *integrals.Table {
		src := integrals.NewTable(4, orbSym, 2, 2)
		src.Set2B(0, 2, 1, 3, 0.5)
		return src
	}

	allowed := []uint32{1, 1, 2, 2}
	tbl, err := symmetry.NewTable(symmetry.D2h, symmetry.NewD2hTable(), allowed)
	require.NoError(t, err)
	q, err := BuildQueue(tbl, src2b(allowed))
	require.NoError(t, err)
	require.Len(t, q.Bucket(0, 1), 1)
	assert.InDelta(t, 0.5, q.Bucket(0, 1)[0].H, 1e-12)

	forbidden := []uint32{1, 1, 2, 3}
	tbl, err = symmetry.NewTable(symmetry.D2h, symmetry.NewD2hTable(), forbidden)
	require.NoError(t, err)
	q, err = BuildQueue(tbl, src2b(forbidden))
	require.NoError(t, err)
	assert.Empty(t, q.Bucket(0, 1))
}

func TestQueueElemDegenerateIndices(t *testing.T) {
	src := integrals.NewTable(4, []uint32{1, 1, 1, 1}, 2, 2)
	src.Set2B(0, 0, 1, 1, 0.9)

	// Any repeated index is an impossible excitation, filtered to zero.
	assert.Equal(t, 0.0, queueElem(src, 4, 0, 0, 2, 3))
	assert.Equal(t, 0.0, queueElem(src, 4, 0, 1, 2, 2))
	assert.Equal(t, 0.0, queueElem(src, 4, 0, 1, 0, 3))
	assert.Equal(t, 0.0, queueElem(src, 4, 0, 1, 2, 1))
}

func TestQueueSnapshotRoundTrip(t *testing.T) {
	src := integrals.NewTable(4, []uint32{1, 1, 1, 1}, 2, 2)
	src.Set2B(0, 2, 1, 3, 0.5)
	src.Set2B(0, 1, 0, 1, 0.3)
	src.Set2B(1, 3, 0, 2, 0.7)

	q, err := BuildQueue(trivialTable(t, 4), src)
	require.NoError(t, err)

	blob, err := q.MarshalBinary()
	require.NoError(t, err)

	var got Queue
	require.NoError(t, got.UnmarshalBinary(blob))

	assert.Equal(t, q.NOrbs(), got.NOrbs())
	assert.Equal(t, q.NumEntries(), got.NumEntries())
	assert.Equal(t, q.MaxAbs(), got.MaxAbs())
	for p := uint32(0); p < 8; p++ {
		for qq := p + 1; qq < 8; qq++ {
			assert.Equal(t, q.Bucket(p, qq), got.Bucket(p, qq), "bucket (%d,%d)", p, qq)
		}
	}
}

func TestQueueSnapshotRejectsGarbage(t *testing.T) {
	var q Queue
	assert.Error(t, q.UnmarshalBinary([]byte("junk")))
}

func TestQueueSnapshotRejectsOversizedBucket(t *testing.T) {
	src := integrals.NewTable(2, []uint32{1, 1}, 1, 1)
	src.Set2B(0, 1, 0, 1, 0.3)
	q, err := BuildQueue(trivialTable(t, 2), src)
	require.NoError(t, err)

	blob, err := q.MarshalBinary()
	require.NoError(t, err)
	raw, err := s2.Decode(nil, blob)
	require.NoError(t, err)

	// The first bucket length sits right after the 32-byte header. Claim
	// far more entries than the payload holds; the decode must fail on the
	// length, not on an oversized allocation.
	binary.LittleEndian.PutUint32(raw[32:], 1<<30)

	var got Queue
	assert.Error(t, got.UnmarshalBinary(s2.Encode(nil, raw)))
}
