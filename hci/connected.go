package hci

import (
	"math"

	"github.com/jl2922/msci/det"
	"github.com/jl2922/msci/integrals"
	"github.com/jl2922/msci/symmetry"
)

// Sink receives one connected determinant and its signed, scaled Hamiltonian
// matrix element. The determinant is an independent copy the sink may keep.
type Sink func(d det.Det, elem float64)

// Enumerator emits, for a given determinant and magnitude window, every
// determinant connected by a single or double excitation together with its
// matrix element. Single excitations come from a direct symmetry scan;
// doubles consume the heat-bath queue with early bucket cutoff.
type Enumerator struct {
	nOrbs uint32
	tbl   *symmetry.Table
	queue *Queue
	elem  ElemFunc
}

// NewEnumerator returns an Enumerator over the given symmetry table, queue,
// and Hamiltonian-element collaborator.
func NewEnumerator(tbl *symmetry.Table, queue *Queue, elem ElemFunc) *Enumerator {
	return &Enumerator{
		nOrbs: tbl.NOrbs(),
		tbl:   tbl,
		queue: queue,
		elem:  elem,
	}
}

// ForEachConnected delivers every determinant connected to d whose matrix
// element magnitude lies in the half-open window [epsMin, epsMax) to sink.
// Singles come first in occupied-orbital order (up electrons before down),
// then doubles per origin pair in queue order.
//
// With timeSym enabled, a determinant and its spin-swapped partner count as
// one representative: redundant partners are skipped, amplitudes are
// rescaled by sqrt(2) across the symmetric/non-symmetric boundary, the
// emitted determinant is canonicalized to up <= dn with sign z on swap, and
// the window bounds are pre-scaled by sqrt(2) to compensate.
func (e *Enumerator) ForEachConnected(d det.Det, epsMin, epsMax float64, timeSym bool, z int, sink Sink) {
	if timeSym {
		epsMin *= math.Sqrt2
		epsMax *= math.Sqrt2
	}

	occUp := d.Up.Occupied()
	occDn := d.Dn.Occupied()
	conn := d.Clone()

	// Single excitations.
	for pID := 0; pID < len(occUp)+len(occDn); pID++ {
		isUp := pID < len(occUp)
		var p uint32
		var half det.HalfDet
		var occ det.HalfDet
		if isUp {
			p = occUp[pID]
			half = conn.Up
			occ = d.Up
		} else {
			p = occDn[pID-len(occUp)]
			half = conn.Dn
			occ = d.Dn
		}
		symP := e.tbl.OrbSym(p)
		for r := uint32(0); r < e.nOrbs; r++ {
			if occ.Has(r) || e.tbl.OrbSym(r) != symP {
				continue
			}
			half.Unset(p)
			half.Set(r)
			e.tryEmit(d, conn, epsMin, epsMax, timeSym, z, sink)
			half.Unset(r)
			half.Set(p)
		}
	}

	// Double excitations via the queue, one bucket per occupied origin pair.
	occ := make([]uint32, 0, len(occUp)+len(occDn))
	occ = append(occ, occUp...)
	for _, orb := range occDn {
		occ = append(occ, orb+e.nOrbs)
	}
	for i := 0; i < len(occ); i++ {
		for j := i + 1; j < len(occ); j++ {
			e.doublesFromPair(d, conn, occ[i], occ[j], epsMin, epsMax, timeSym, z, sink)
		}
	}
}

// doublesFromPair scans the queue bucket of the occupied origin pair (p, q),
// stopping once entry magnitudes fall below epsMin and skipping entries at
// or above epsMax.
func (e *Enumerator) doublesFromPair(d, conn det.Det, p, q uint32, epsMin, epsMax float64, timeSym bool, z int, sink Sink) {
	n := e.nOrbs

	// The queue keys same-spin buckets by plain orbital pairs and
	// opposite-spin buckets by (up orbital, down orbital + n) with the down
	// orbital not below the up one; a reversed opposite-spin pair reuses the
	// mirrored bucket with the destination roles exchanged.
	var key uint64
	mirrored := false
	sameSpinUp := p < n && q < n
	sameSpinDn := p >= n && q >= n
	switch {
	case sameSpinUp:
		key = integrals.Combine2(uint64(p), uint64(q))
	case sameSpinDn:
		key = integrals.Combine2(uint64(p-n), uint64(q-n))
	default:
		a, b := p, q-n
		if a <= b {
			key = integrals.Combine2(uint64(a), uint64(b+n))
		} else {
			key = integrals.Combine2(uint64(b), uint64(a+n))
			mirrored = true
		}
	}

	for _, hrs := range e.queue.buckets[key] {
		if hrs.H < epsMin {
			break
		}
		if hrs.H >= epsMax {
			continue
		}

		var upFrom, upTo, dnFrom, dnTo []uint32
		switch {
		case sameSpinUp:
			if d.Up.Has(hrs.R) || d.Up.Has(hrs.S) {
				continue
			}
			upFrom, upTo = []uint32{p, q}, []uint32{hrs.R, hrs.S}
		case sameSpinDn:
			if d.Dn.Has(hrs.R) || d.Dn.Has(hrs.S) {
				continue
			}
			dnFrom, dnTo = []uint32{p - n, q - n}, []uint32{hrs.R, hrs.S}
		default:
			rUp, sDn := hrs.R, hrs.S-n
			if mirrored {
				rUp, sDn = hrs.S-n, hrs.R
			}
			if d.Up.Has(rUp) || d.Dn.Has(sDn) {
				continue
			}
			upFrom, upTo = []uint32{p}, []uint32{rUp}
			dnFrom, dnTo = []uint32{q - n}, []uint32{sDn}
		}

		moveOrbs(conn.Up, upFrom, upTo)
		moveOrbs(conn.Dn, dnFrom, dnTo)
		e.tryEmit(d, conn, epsMin, epsMax, timeSym, z, sink)
		moveOrbs(conn.Up, upTo, upFrom)
		moveOrbs(conn.Dn, dnTo, dnFrom)
	}
}

func moveOrbs(half det.HalfDet, from, to []uint32) {
	for _, orb := range from {
		half.Unset(orb)
	}
	for _, orb := range to {
		half.Set(orb)
	}
}

// tryEmit applies the time-reversal skips, the magnitude window, the
// amplitude rescaling, and the canonicalization, then delivers a copy of
// the candidate to the sink.
func (e *Enumerator) tryEmit(d, conn det.Det, epsMin, epsMax float64, timeSym bool, z int, sink Sink) {
	if timeSym {
		// A spin-symmetric state has no antisymmetric combination.
		if conn.Up.Equal(conn.Dn) && z < 0 {
			return
		}
		// The spin-swapped partner of the source is the same representative.
		if conn.Up.Equal(d.Dn) && conn.Dn.Equal(d.Up) {
			return
		}
	}

	elem := e.elem(d, conn)
	abs := math.Abs(elem)
	if abs < epsMin || abs >= epsMax {
		return
	}

	out := conn.Clone()
	if timeSym {
		srcSym := d.Up.Equal(d.Dn)
		dstSym := out.Up.Equal(out.Dn)
		if srcSym && !dstSym {
			elem *= 1 / math.Sqrt2
		} else if !srcSym && dstSym {
			elem *= math.Sqrt2
		}
		if out.Up.Compare(out.Dn) > 0 {
			out.Up, out.Dn = out.Dn, out.Up
			elem *= float64(z)
		}
	}
	sink(out, elem)
}
