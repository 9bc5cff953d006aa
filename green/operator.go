package green

import (
	"github.com/jl2922/msci/det"
)

// Operator is the Hamiltonian-assembly collaborator: it materializes the
// operator restricted to a basis and applies the complex-shifted form
// (H - z) to solver vectors. The solver never assembles matrix entries
// itself.
type Operator interface {
	// Clear drops any previously assembled state.
	Clear()

	// Update materializes the operator for the given basis determinants.
	Update(dets []det.Det) error

	// SetShift fixes the complex shift z of subsequent MulVec calls.
	SetShift(z complex128)

	// MulVec stores (H - z) x into dst. len(dst) == len(x) == basis size.
	MulVec(dst, x []complex128)
}
