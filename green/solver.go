package green

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/jl2922/msci/det"
	"github.com/jl2922/msci/parallel"
)

const (
	// DefaultTolerance bounds |<r,r>| of the running residual. The
	// comparison is against the squared-norm magnitude, not its root.
	DefaultTolerance = 1e-15

	// DefaultMaxIterations caps the conjugate-gradient loop. Exceeding it
	// aborts the evaluation; an unconverged response vector is not a valid
	// result.
	DefaultMaxIterations = 100
)

// Solver evaluates the response function for one (frequency, broadening)
// point.
type Solver struct {
	omega   float64
	eta     float64
	tol     float64
	maxIter int
	exec    *parallel.ExecContext
	logger  *slog.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithTolerance overrides the convergence tolerance on |<r,r>|.
func WithTolerance(tol float64) Option {
	return func(s *Solver) {
		if tol > 0 {
			s.tol = tol
		}
	}
}

// WithMaxIterations overrides the iteration cap.
func WithMaxIterations(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxIter = n
		}
	}
}

// WithExecContext sets the execution context for the parallel loops.
func WithExecContext(exec *parallel.ExecContext) Option {
	return func(s *Solver) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithLogger sets the solver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Solver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSolver returns a Solver for frequency omega and broadening eta.
func NewSolver(omega, eta float64, opts ...Option) *Solver {
	s := &Solver{
		omega:   omega,
		eta:     eta,
		tol:     DefaultTolerance,
		maxIter: DefaultMaxIterations,
		exec:    parallel.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run evaluates the response matrix for the given primary basis. eVar is the
// caller's reference energy; the shift is z = (omega + eVar) + i*eta. The
// extended basis is private to this call and discarded afterwards.
func (s *Solver) Run(ctx context.Context, primary []det.Det, coefs []float64, eVar float64, nOrbs uint32, op Operator) (*Response, error) {
	if len(primary) != len(coefs) {
		return nil, fmt.Errorf("green: %d primary determinants with %d coefficients", len(primary), len(coefs))
	}

	basis := ExtendBasis(primary, nOrbs)
	nPdets := basis.Size()
	if nPdets == 0 {
		return nil, fmt.Errorf("green: empty extended basis")
	}
	s.logger.Info("extended basis built", "n_dets", len(primary), "n_pdets", nPdets)

	shift := complex(s.omega+eVar, s.eta)
	op.Clear()
	if err := op.Update(basis.Dets()); err != nil {
		return nil, fmt.Errorf("green: assemble hamiltonian: %w", err)
	}
	op.SetShift(shift)

	nSpinOrbs := int(2 * nOrbs)
	bs := make([][]complex128, nSpinOrbs)
	for j := 0; j < nSpinOrbs; j++ {
		var err error
		if bs[j], err = s.constructB(ctx, basis, primary, coefs, nOrbs, uint32(j)); err != nil {
			return nil, err
		}
	}

	g := mat.NewCDense(nSpinOrbs, nSpinOrbs, nil)
	x0 := make([]complex128, nPdets)
	uniform := complex(math.Sqrt(1.0/float64(nPdets)), 0)
	for i := range x0 {
		x0[i] = uniform
	}

	for j := 0; j < nSpinOrbs; j++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.logger.Debug("solving response column", "orbital", j, "n_spin_orbs", nSpinOrbs)
		x, err := s.conjugateGradient(ctx, op, bs[j], x0)
		if err != nil {
			var nc *ErrNoConvergence
			if errors.As(err, &nc) {
				nc.Orbital = j
				nc.Shift = shift
			}
			return nil, fmt.Errorf("green: solve for spin-orbital %d: %w", j, err)
		}
		for i := 0; i < nSpinOrbs; i++ {
			g.Set(i, j, s.exec.Dot(bs[i], x))
		}
	}

	return &Response{
		nOrbs: nOrbs,
		omega: s.omega,
		eta:   s.eta,
		g:     g,
	}, nil
}

// constructB builds the right-hand side for spin-orbital j: the entry at the
// extended index of (primary det + electron in j) carries that primary
// determinant's coefficient. Writes are index-disjoint across primary
// determinants.
func (s *Solver) constructB(ctx context.Context, basis *Basis, primary []det.Det, coefs []float64, nOrbs uint32, j uint32) ([]complex128, error) {
	b := make([]complex128, basis.Size())
	err := s.exec.For(ctx, len(primary), func(i int) {
		work := primary[i].Clone()
		if j < nOrbs {
			if work.Up.Has(j) {
				return
			}
			work.Up.Set(j)
		} else {
			if work.Dn.Has(j - nOrbs) {
				return
			}
			work.Dn.Set(j - nOrbs)
		}
		id, ok := basis.Index(work)
		if !ok {
			// Every insertion-produced determinant is in the basis by
			// construction.
			panic(fmt.Sprintf("green: inserted determinant missing from extended basis (orbital %d)", j))
		}
		b[id] = complex(coefs[i], 0)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}
