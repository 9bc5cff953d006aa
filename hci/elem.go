package hci

import (
	"github.com/jl2922/msci/det"
	"github.com/jl2922/msci/integrals"
)

// ElemFunc evaluates the Hamiltonian matrix element between two
// determinants.
type ElemFunc func(a, b det.Det) float64

// Evaluator computes Hamiltonian matrix elements between determinants by
// the Slater-Condon rules, including the fermionic permutation sign.
type Evaluator struct {
	src integrals.Source
}

// NewEvaluator returns an Evaluator over the given integral source.
func NewEvaluator(src integrals.Source) *Evaluator {
	return &Evaluator{src: src}
}

// Elem returns <a|H|b>. Determinants differing by more than two
// spin-orbitals, or with mismatched electron counts, give zero.
func (e *Evaluator) Elem(a, b det.Det) float64 {
	holesUp, partsUp := a.Up.Diff(b.Up)
	holesDn, partsDn := a.Dn.Diff(b.Dn)
	if len(holesUp) != len(partsUp) || len(holesDn) != len(partsDn) {
		return 0.0
	}
	switch len(holesUp) + len(holesDn) {
	case 0:
		return e.diagonal(a)
	case 1:
		if len(holesUp) == 1 {
			return e.single(a.Up, a.Dn, holesUp[0], partsUp[0])
		}
		return e.single(a.Dn, a.Up, holesDn[0], partsDn[0])
	case 2:
		return e.double(a, holesUp, partsUp, holesDn, partsDn)
	default:
		return 0.0
	}
}

// diagonal returns <a|H|a>: one-body terms plus Coulomb minus same-spin
// exchange over occupied pairs.
func (e *Evaluator) diagonal(a det.Det) float64 {
	occUp := a.Up.Occupied()
	occDn := a.Dn.Occupied()
	var sum float64
	for _, p := range occUp {
		sum += e.src.Get1B(p, p)
	}
	for _, p := range occDn {
		sum += e.src.Get1B(p, p)
	}
	for i, p := range occUp {
		for _, q := range occUp[i+1:] {
			sum += e.src.Get2B(p, p, q, q) - e.src.Get2B(p, q, q, p)
		}
	}
	for i, p := range occDn {
		for _, q := range occDn[i+1:] {
			sum += e.src.Get2B(p, p, q, q) - e.src.Get2B(p, q, q, p)
		}
	}
	for _, p := range occUp {
		for _, q := range occDn {
			sum += e.src.Get2B(p, p, q, q)
		}
	}
	return sum
}

// single returns the element for moving one electron h -> p within the
// "same" spin channel; "other" is the opposite channel of the source
// determinant.
func (e *Evaluator) single(same, other det.HalfDet, h, p uint32) float64 {
	sum := e.src.Get1B(h, p)
	for _, o := range same.Occupied() {
		if o == h {
			continue
		}
		sum += e.src.Get2B(h, p, o, o) - e.src.Get2B(h, o, o, p)
	}
	for _, o := range other.Occupied() {
		sum += e.src.Get2B(h, p, o, o)
	}
	return permSign(same, h, p) * sum
}

func (e *Evaluator) double(a det.Det, holesUp, partsUp, holesDn, partsDn []uint32) float64 {
	switch {
	case len(holesUp) == 2:
		return sameSpinDouble(e.src, a.Up, holesUp, partsUp)
	case len(holesDn) == 2:
		return sameSpinDouble(e.src, a.Dn, holesDn, partsDn)
	default:
		v := e.src.Get2B(holesUp[0], partsUp[0], holesDn[0], partsDn[0])
		return permSign(a.Up, holesUp[0], partsUp[0]) * permSign(a.Dn, holesDn[0], partsDn[0]) * v
	}
}

func sameSpinDouble(src integrals.Source, half det.HalfDet, holes, parts []uint32) float64 {
	v := src.Get2B(holes[0], parts[0], holes[1], parts[1]) -
		src.Get2B(holes[0], parts[1], holes[1], parts[0])
	sign := permSign(half, holes[0], parts[0])
	inter := half.Clone()
	inter.Unset(holes[0])
	inter.Set(parts[0])
	sign *= permSign(inter, holes[1], parts[1])
	return sign * v
}

// permSign returns the fermionic sign for moving an electron from orbital
// "from" to orbital "to" within half: -1 raised to the number of occupied
// orbitals strictly between them.
func permSign(half det.HalfDet, from, to uint32) float64 {
	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	crossings := 0
	for orb := lo + 1; orb < hi; orb++ {
		if half.Has(orb) {
			crossings++
		}
	}
	if crossings%2 == 1 {
		return -1.0
	}
	return 1.0
}

// twoBodyDouble returns the unsigned two-body coupling between determinants
// connected by a double excitation: the antisymmetrized same-spin
// combination when one channel matches, the single cross term otherwise.
// Determinants not connected by exactly a double give zero.
func twoBodyDouble(src integrals.Source, a, b det.Det) float64 {
	if a.Up.Equal(b.Up) {
		holes, parts := a.Dn.Diff(b.Dn)
		if len(holes) != 2 || len(parts) != 2 {
			return 0.0
		}
		return src.Get2B(holes[0], parts[0], holes[1], parts[1]) -
			src.Get2B(holes[0], parts[1], holes[1], parts[0])
	}
	if a.Dn.Equal(b.Dn) {
		holes, parts := a.Up.Diff(b.Up)
		if len(holes) != 2 || len(parts) != 2 {
			return 0.0
		}
		return src.Get2B(holes[0], parts[0], holes[1], parts[1]) -
			src.Get2B(holes[0], parts[1], holes[1], parts[0])
	}
	holesUp, partsUp := a.Up.Diff(b.Up)
	holesDn, partsDn := a.Dn.Diff(b.Dn)
	if len(holesUp) != 1 || len(partsUp) != 1 || len(holesDn) != 1 || len(partsDn) != 1 {
		return 0.0
	}
	return src.Get2B(holesUp[0], partsUp[0], holesDn[0], partsDn[0])
}
