// Package hamiltonian provides a sparse Hamiltonian-assembly collaborator
// for the response solver: matrix entries are evaluated between basis
// determinants and applied with a complex shift.
package hamiltonian

import (
	"context"

	"github.com/jl2922/msci/det"
	"github.com/jl2922/msci/hci"
	"github.com/jl2922/msci/parallel"
)

type entry struct {
	col int
	v   float64
}

// SparseMatrix materializes the Hamiltonian restricted to a determinant
// basis as per-row sparse entries and applies (H - z) to vectors. Rows are
// assembled and applied in parallel; each worker writes only its own rows.
type SparseMatrix struct {
	elem  hci.ElemFunc
	exec  *parallel.ExecContext
	rows  [][]entry
	shift complex128
}

// New returns an empty matrix over the given matrix-element evaluator.
func New(elem hci.ElemFunc, exec *parallel.ExecContext) *SparseMatrix {
	if exec == nil {
		exec = parallel.New()
	}
	return &SparseMatrix{elem: elem, exec: exec}
}

// Clear drops the assembled entries and the shift.
func (m *SparseMatrix) Clear() {
	m.rows = nil
	m.shift = 0
}

// Update materializes all nonzero entries between the given determinants.
func (m *SparseMatrix) Update(dets []det.Det) error {
	n := len(dets)
	m.rows = make([][]entry, n)
	return m.exec.For(context.Background(), n, func(i int) {
		var row []entry
		for j := 0; j < n; j++ {
			v := m.elem(dets[i], dets[j])
			if v != 0.0 {
				row = append(row, entry{col: j, v: v})
			}
		}
		m.rows[i] = row
	})
}

// SetShift fixes the complex shift z applied by MulVec.
func (m *SparseMatrix) SetShift(z complex128) {
	m.shift = z
}

// MulVec stores (H - z) x into dst.
func (m *SparseMatrix) MulVec(dst, x []complex128) {
	shift := m.shift
	_ = m.exec.For(context.Background(), len(m.rows), func(i int) {
		var sum complex128
		for _, e := range m.rows[i] {
			sum += complex(e.v, 0) * x[e.col]
		}
		dst[i] = sum - shift*x[i]
	})
}
