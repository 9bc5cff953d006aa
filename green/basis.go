package green

import (
	"github.com/jl2922/msci/det"
)

// Basis is the deduplicated extended determinant space of one evaluation.
// Indices are assigned in insertion order and stay stable for the lifetime
// of the basis; the solver vectors are addressed by them.
type Basis struct {
	dets []det.Det
	ids  map[string]int
}

// ExtendBasis builds the extended basis: for every primary determinant and
// every orbital, insert an electron into that orbital for each spin channel
// where it is unoccupied, deduplicating by determinant identity.
func ExtendBasis(primary []det.Det, nOrbs uint32) *Basis {
	b := &Basis{ids: make(map[string]int)}
	for _, d := range primary {
		work := d.Clone()
		for orb := uint32(0); orb < nOrbs; orb++ {
			if !work.Up.Has(orb) {
				work.Up.Set(orb)
				b.add(work)
				work.Up.Unset(orb)
			}
			if !work.Dn.Has(orb) {
				work.Dn.Set(orb)
				b.add(work)
				work.Dn.Unset(orb)
			}
		}
	}
	return b
}

func (b *Basis) add(d det.Det) {
	key := d.Key()
	if _, ok := b.ids[key]; ok {
		return
	}
	b.ids[key] = len(b.dets)
	b.dets = append(b.dets, d.Clone())
}

// Size returns the number of basis determinants.
func (b *Basis) Size() int { return len(b.dets) }

// Index returns the dense index of d, if present.
func (b *Basis) Index(d det.Det) (int, bool) {
	id, ok := b.ids[d.Key()]
	return id, ok
}

// Dets returns the basis determinants in index order. The slice is shared
// and must not be modified.
func (b *Basis) Dets() []det.Det { return b.dets }
