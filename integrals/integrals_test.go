package integrals

import (
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine2(t *testing.T) {
	assert.Equal(t, Combine2(1, 3), Combine2(3, 1))
	assert.Equal(t, uint64(0), Combine2(0, 0))

	// Distinct unordered pairs map to distinct indices.
	seen := map[uint64]bool{}
	for j := uint64(0); j < 10; j++ {
		for i := uint64(0); i <= j; i++ {
			k := Combine2(i, j)
			assert.False(t, seen[k], "collision at (%d,%d)", i, j)
			seen[k] = true
		}
	}
}

func TestTable(t *testing.T) {
	t.Run("HFDet", func(t *testing.T) {
		tbl := NewTable(4, []uint32{1, 1, 1, 1}, 2, 1)
		hf := tbl.HFDet()

		assert.Equal(t, []uint32{0, 1}, hf.Up.Occupied())
		assert.Equal(t, []uint32{0}, hf.Dn.Occupied())
	})

	t.Run("OneBodySymmetry", func(t *testing.T) {
		tbl := NewTable(4, []uint32{1, 1, 1, 1}, 1, 1)
		tbl.Set1B(0, 2, -1.5)

		assert.Equal(t, -1.5, tbl.Get1B(0, 2))
		assert.Equal(t, -1.5, tbl.Get1B(2, 0))
		assert.Equal(t, 0.0, tbl.Get1B(1, 2))
	})

	t.Run("TwoBodyEightFold", func(t *testing.T) {
		tbl := NewTable(4, []uint32{1, 1, 1, 1}, 1, 1)
		tbl.Set2B(0, 1, 2, 3, 0.25)

		perms := [][4]uint32{
			{0, 1, 2, 3}, {1, 0, 2, 3}, {0, 1, 3, 2}, {1, 0, 3, 2},
			{2, 3, 0, 1}, {3, 2, 0, 1}, {2, 3, 1, 0}, {3, 2, 1, 0},
		}
		for _, p := range perms {
			assert.Equal(t, 0.25, tbl.Get2B(p[0], p[1], p[2], p[3]), "%v", p)
		}
		assert.Equal(t, 0.0, tbl.Get2B(0, 2, 1, 3))
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	tbl := NewTable(3, []uint32{1, 2, 1}, 2, 1)
	tbl.Set1B(0, 0, -2.0)
	tbl.Set1B(1, 2, 0.5)
	tbl.Set2B(0, 0, 1, 1, 0.7)
	tbl.Set2B(0, 1, 0, 1, 0.1)

	blob, err := tbl.MarshalBinary()
	require.NoError(t, err)

	var got Table
	require.NoError(t, got.UnmarshalBinary(blob))

	assert.Equal(t, tbl.NOrbs(), got.NOrbs())
	assert.Equal(t, tbl.OrbSym(), got.OrbSym())
	assert.Equal(t, tbl.NUp(), got.NUp())
	assert.Equal(t, tbl.NDn(), got.NDn())
	assert.Equal(t, -2.0, got.Get1B(0, 0))
	assert.Equal(t, 0.5, got.Get1B(2, 1))
	assert.Equal(t, 0.7, got.Get2B(1, 1, 0, 0))
	assert.Equal(t, 0.1, got.Get2B(1, 0, 1, 0))
	assert.True(t, tbl.HFDet().Equal(got.HFDet()))
}

func TestSnapshotRejectsGarbage(t *testing.T) {
	var tbl Table
	assert.Error(t, tbl.UnmarshalBinary([]byte("not a snapshot")))
}

func TestSnapshotRejectsOversizedEntryCount(t *testing.T) {
	tbl := NewTable(2, []uint32{1, 1}, 1, 1)
	tbl.Set1B(0, 0, -1.0)

	blob, err := tbl.MarshalBinary()
	require.NoError(t, err)
	raw, err := s2.Decode(nil, blob)
	require.NoError(t, err)

	// The one-body entry count follows the header and orbital labels.
	// Claim far more entries than the payload holds; the decode must fail
	// on the count, not on an oversized allocation.
	off := 20 + 4*len(tbl.OrbSym())
	binary.LittleEndian.PutUint64(raw[off:], 1<<40)

	var got Table
	assert.Error(t, got.UnmarshalBinary(s2.Encode(nil, raw)))
}
