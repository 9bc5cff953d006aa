package det

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
)

// HalfDet is the occupation bit-vector of a single spin channel. Bit i set
// means spatial orbital i holds an electron of this spin.
//
// HalfDet is a thin handle over a shared backing bitset; use Clone before
// mutating a value that others may still read.
type HalfDet struct {
	bits *bitset.BitSet
}

// NewHalf returns an empty half-determinant sized for nOrbs spatial orbitals.
func NewHalf(nOrbs uint32) HalfDet {
	return HalfDet{bits: bitset.New(uint(nOrbs))}
}

// Clone returns an independent copy of the half-determinant.
func (h HalfDet) Clone() HalfDet {
	return HalfDet{bits: h.bits.Clone()}
}

// Set marks orbital orb as occupied.
func (h HalfDet) Set(orb uint32) {
	h.bits.Set(uint(orb))
}

// Unset marks orbital orb as unoccupied.
func (h HalfDet) Unset(orb uint32) {
	h.bits.Clear(uint(orb))
}

// Has reports whether orbital orb is occupied.
func (h HalfDet) Has(orb uint32) bool {
	return h.bits.Test(uint(orb))
}

// Count returns the number of occupied orbitals.
func (h HalfDet) Count() uint32 {
	return uint32(h.bits.Count())
}

// Occupied returns the occupied orbital indices in ascending order.
func (h HalfDet) Occupied() []uint32 {
	occ := make([]uint32, 0, h.bits.Count())
	for i, ok := h.bits.NextSet(0); ok; i, ok = h.bits.NextSet(i + 1) {
		occ = append(occ, uint32(i))
	}
	return occ
}

// Equal reports whether both halves occupy exactly the same orbitals.
func (h HalfDet) Equal(o HalfDet) bool {
	return h.bits.Equal(o.bits)
}

// Compare imposes a total order on half-determinants, treating the occupation
// words as one big-endian integer. Returns -1, 0 or +1.
func (h HalfDet) Compare(o HalfDet) int {
	a, b := h.bits.Bytes(), o.bits.Bytes()
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := n - 1; i >= 0; i-- {
		var wa, wb uint64
		if i < len(a) {
			wa = a[i]
		}
		if i < len(b) {
			wb = b[i]
		}
		if wa != wb {
			if wa < wb {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Diff returns the symmetric difference as two ascending orbital lists:
// orbitals occupied in h but not in o, and orbitals occupied in o but not
// in h. The list lengths classify the excitation degree between the halves.
func (h HalfDet) Diff(o HalfDet) (onlyH, onlyO []uint32) {
	dh := h.bits.Difference(o.bits)
	do := o.bits.Difference(h.bits)
	for i, ok := dh.NextSet(0); ok; i, ok = dh.NextSet(i + 1) {
		onlyH = append(onlyH, uint32(i))
	}
	for i, ok := do.NextSet(0); ok; i, ok = do.NextSet(i + 1) {
		onlyO = append(onlyO, uint32(i))
	}
	return onlyH, onlyO
}

func (h HalfDet) appendKey(b []byte) []byte {
	for _, w := range h.bits.Bytes() {
		b = binary.LittleEndian.AppendUint64(b, w)
	}
	return b
}

// Det is a Slater determinant: the occupation of both spin channels.
type Det struct {
	Up HalfDet
	Dn HalfDet
}

// New returns an empty determinant sized for nOrbs spatial orbitals.
func New(nOrbs uint32) Det {
	return Det{Up: NewHalf(nOrbs), Dn: NewHalf(nOrbs)}
}

// NewWithOcc returns a determinant with the given occupied orbitals per spin.
func NewWithOcc(nOrbs uint32, up, dn []uint32) Det {
	d := New(nOrbs)
	for _, orb := range up {
		d.Up.Set(orb)
	}
	for _, orb := range dn {
		d.Dn.Set(orb)
	}
	return d
}

// Clone returns an independent deep copy of the determinant.
func (d Det) Clone() Det {
	return Det{Up: d.Up.Clone(), Dn: d.Dn.Clone()}
}

// Equal reports determinant identity.
func (d Det) Equal(o Det) bool {
	return d.Up.Equal(o.Up) && d.Dn.Equal(o.Dn)
}

// Compare orders determinants lexicographically on (up, down).
func (d Det) Compare(o Det) int {
	if c := d.Up.Compare(o.Up); c != 0 {
		return c
	}
	return d.Dn.Compare(o.Dn)
}

// SwapSpins returns the time-reversed partner view with the spin channels
// exchanged. The halves are shared, not copied.
func (d Det) SwapSpins() Det {
	return Det{Up: d.Dn, Dn: d.Up}
}

// Key returns a compact binary encoding usable as a map key. Two
// determinants over the same orbital count have equal keys iff they are
// equal.
func (d Det) Key() string {
	b := make([]byte, 0, 32)
	b = d.Up.appendKey(b)
	b = d.Dn.appendKey(b)
	return string(b)
}
