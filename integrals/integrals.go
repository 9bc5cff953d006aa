package integrals

import (
	"github.com/jl2922/msci/det"
)

// Source is the integral/basis collaborator. Implementations must be safe
// for concurrent readers; nothing in this module writes through it.
type Source interface {
	// NOrbs returns the number of spatial orbitals.
	NOrbs() uint32

	// OrbSym returns the 1-based irrep label of each spatial orbital.
	OrbSym() []uint32

	// HFDet returns the reference (Hartree-Fock) determinant.
	HFDet() det.Det

	// Get1B returns the one-body matrix element <i|h|j>.
	Get1B(i, j uint32) float64

	// Get2B returns the two-body integral (ij|kl) in chemist notation,
	// honoring its 8-fold permutation symmetry.
	Get2B(i, j, k, l uint32) float64
}

// Combine2 folds an unordered index pair into a single triangular index.
func Combine2(i, j uint64) uint64 {
	if i > j {
		i, j = j, i
	}
	return j*(j+1)/2 + i
}

// Table is an in-memory Source. Zero-valued lookups return 0.
type Table struct {
	nOrbs   uint32
	orbSym  []uint32
	nUp     uint32
	nDn     uint32
	oneBody map[uint64]float64
	twoBody map[uint64]float64
}

// NewTable returns an empty integral table for nOrbs orbitals. orbSym holds
// the 1-based irrep label per orbital; nUp/nDn size the reference
// determinant, which occupies the lowest orbitals of each spin.
func NewTable(nOrbs uint32, orbSym []uint32, nUp, nDn uint32) *Table {
	return &Table{
		nOrbs:   nOrbs,
		orbSym:  append([]uint32(nil), orbSym...),
		nUp:     nUp,
		nDn:     nDn,
		oneBody: make(map[uint64]float64),
		twoBody: make(map[uint64]float64),
	}
}

// NOrbs implements Source.
func (t *Table) NOrbs() uint32 { return t.nOrbs }

// OrbSym implements Source.
func (t *Table) OrbSym() []uint32 { return t.orbSym }

// NUp returns the number of up-spin electrons of the reference determinant.
func (t *Table) NUp() uint32 { return t.nUp }

// NDn returns the number of down-spin electrons of the reference determinant.
func (t *Table) NDn() uint32 { return t.nDn }

// HFDet implements Source.
func (t *Table) HFDet() det.Det {
	d := det.New(t.nOrbs)
	for orb := uint32(0); orb < t.nUp; orb++ {
		d.Up.Set(orb)
	}
	for orb := uint32(0); orb < t.nDn; orb++ {
		d.Dn.Set(orb)
	}
	return d
}

// Set1B stores <i|h|j> = <j|h|i> = v.
func (t *Table) Set1B(i, j uint32, v float64) {
	t.oneBody[Combine2(uint64(i), uint64(j))] = v
}

// Get1B implements Source.
func (t *Table) Get1B(i, j uint32) float64 {
	return t.oneBody[Combine2(uint64(i), uint64(j))]
}

// Set2B stores (ij|kl) = v under its full 8-fold permutation symmetry.
func (t *Table) Set2B(i, j, k, l uint32, v float64) {
	t.twoBody[key2b(i, j, k, l)] = v
}

// Get2B implements Source.
func (t *Table) Get2B(i, j, k, l uint32) float64 {
	return t.twoBody[key2b(i, j, k, l)]
}

func key2b(i, j, k, l uint32) uint64 {
	ij := Combine2(uint64(i), uint64(j))
	kl := Combine2(uint64(k), uint64(l))
	return Combine2(ij, kl)
}
