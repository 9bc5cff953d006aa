package green

import (
	"context"
	"fmt"
	"math/cmplx"
)

// ErrNoConvergence reports a conjugate-gradient solve that exhausted its
// iteration cap. The run cannot proceed with an unconverged response
// vector, so callers abort with these diagnostics.
type ErrNoConvergence struct {
	Orbital    int
	Shift      complex128
	Iterations int
	Residual   float64
}

func (e *ErrNoConvergence) Error() string {
	return fmt.Sprintf("conjugate gradient did not converge: orbital %d, shift %v, %d iterations, residual %g",
		e.Orbital, e.Shift, e.Iterations, e.Residual)
}

// conjugateGradient solves (H - z) x = b starting from x0. The shifted
// operator is complex symmetric, not Hermitian, so the recurrences use the
// unconjugated inner product. Convergence is judged on |<r,r>| of the
// updated residual without taking a square root, matching the magnitude
// semantics used by the enumeration windows.
func (s *Solver) conjugateGradient(ctx context.Context, op Operator, b, x0 []complex128) ([]complex128, error) {
	n := len(b)
	x := make([]complex128, n)
	copy(x, x0)
	r := make([]complex128, n)
	ap := make([]complex128, n)

	op.MulVec(ap, x0)
	if err := s.exec.For(ctx, n, func(i int) {
		r[i] = b[i] - ap[i]
	}); err != nil {
		return nil, err
	}
	p := make([]complex128, n)
	copy(p, r)

	rTr := s.exec.Dot(r, r)
	for iter := 1; ; iter++ {
		op.MulVec(ap, p)
		pTAp := s.exec.Dot(p, ap)
		alpha := rTr / pTAp
		if err := s.exec.For(ctx, n, func(i int) {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}); err != nil {
			return nil, err
		}
		rTrNew := s.exec.Dot(r, r)
		residual := cmplx.Abs(rTrNew)
		if residual <= s.tol {
			s.logger.Debug("conjugate gradient converged", "iterations", iter, "residual", residual)
			return x, nil
		}
		if iter >= s.maxIter {
			return nil, &ErrNoConvergence{Iterations: iter, Residual: residual}
		}
		beta := rTrNew / rTr
		if err := s.exec.For(ctx, n, func(i int) {
			p[i] = r[i] + beta*p[i]
		}); err != nil {
			return nil, err
		}
		rTr = rTrNew
		if iter%10 == 0 {
			s.logger.Debug("conjugate gradient progress", "iteration", iter, "residual", residual)
		}
	}
}
