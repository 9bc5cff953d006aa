package symmetry

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// PointGroup identifies the molecular point group of a run.
type PointGroup int

const (
	// None means no spatial symmetry: every orbital carries irrep 1.
	None PointGroup = iota
	// D2h and its abelian subgroups, with XOR-composable irreps.
	D2h
	// Dooh is the linear group; its inversion handling is not implemented.
	Dooh
)

func (g PointGroup) String() string {
	switch g {
	case D2h:
		return "D2h"
	case Dooh:
		return "Dooh"
	default:
		return "none"
	}
}

// ParsePointGroup maps a case-insensitive config string to a PointGroup.
// Unrecognized names map to None.
func ParsePointGroup(s string) PointGroup {
	switch strings.ToLower(s) {
	case "d2h":
		return D2h
	case "dooh", "dih":
		return Dooh
	default:
		return None
	}
}

// ErrUnsupportedPointGroup is returned when a run requests a point group
// whose irrep products cannot be evaluated.
type ErrUnsupportedPointGroup struct {
	Group PointGroup
}

func (e *ErrUnsupportedPointGroup) Error() string {
	return fmt.Sprintf("unsupported point group: %s (inversion-adjusted irrep lookup not implemented)", e.Group)
}

// ProductTable is the irrep product operation of an initialized point group.
// Labels are 1-based and the operation is total on [1, NSyms].
type ProductTable interface {
	NSyms() int
	Product(a, b uint32) uint32
}

// abelianTable composes 1-based irreps by XOR of their 0-based forms, valid
// for D2h and every abelian subgroup.
type abelianTable struct {
	nSyms int
}

func (t abelianTable) NSyms() int { return t.nSyms }

func (t abelianTable) Product(a, b uint32) uint32 {
	return ((a - 1) ^ (b - 1)) + 1
}

// NewD2hTable returns the 8-irrep product table of D2h.
func NewD2hTable() ProductTable { return abelianTable{nSyms: 8} }

// NewTrivialTable returns the single-irrep table used when the run has no
// spatial symmetry.
func NewTrivialTable() ProductTable { return abelianTable{nSyms: 1} }

// NewAbelianTable returns an XOR product table covering at least nSyms
// irreps. The count is rounded up to a power of two so that the label set
// is closed under the product.
func NewAbelianTable(nSyms int) ProductTable {
	n := 1
	for n < nSyms {
		n <<= 1
	}
	return abelianTable{nSyms: n}
}

// Table is the read-only symmetry query surface for one run: the product
// table, the per-orbital irrep labels, and the set of orbitals carrying each
// irrep. Built once before the excitation queue; immutable afterwards, safe
// for concurrent readers.
type Table struct {
	group    PointGroup
	products ProductTable
	orbSym   []uint32
	byIrrep  []*roaring.Bitmap
}

// NewTable validates the point group and indexes orbitals by irrep.
// orbSym holds the 1-based irrep label of each spatial orbital.
func NewTable(group PointGroup, products ProductTable, orbSym []uint32) (*Table, error) {
	if group == Dooh {
		return nil, &ErrUnsupportedPointGroup{Group: group}
	}

	// Irreps are 1-based, so slot 0 stays empty.
	byIrrep := make([]*roaring.Bitmap, products.NSyms()+1)
	for i := range byIrrep {
		byIrrep[i] = roaring.New()
	}
	for orb, sym := range orbSym {
		if sym == 0 || int(sym) > products.NSyms() {
			return nil, fmt.Errorf("symmetry: orbital %d has irrep %d outside [1, %d]", orb, sym, products.NSyms())
		}
		byIrrep[sym].Add(uint32(orb))
	}

	return &Table{
		group:    group,
		products: products,
		orbSym:   append([]uint32(nil), orbSym...),
		byIrrep:  byIrrep,
	}, nil
}

// Group returns the point group the table was built for.
func (t *Table) Group() PointGroup { return t.group }

// NSyms returns the number of irreps.
func (t *Table) NSyms() int { return t.products.NSyms() }

// Product composes two irrep labels.
func (t *Table) Product(a, b uint32) uint32 { return t.products.Product(a, b) }

// OrbSym returns the irrep label of orbital orb.
func (t *Table) OrbSym(orb uint32) uint32 { return t.orbSym[orb] }

// NOrbs returns the number of spatial orbitals the table covers.
func (t *Table) NOrbs() uint32 { return uint32(len(t.orbSym)) }

// OrbitalsWithSym returns the ascending orbital indices carrying irrep sym.
func (t *Table) OrbitalsWithSym(sym uint32) []uint32 {
	if int(sym) >= len(t.byIrrep) {
		return nil
	}
	return t.byIrrep[sym].ToArray()
}
