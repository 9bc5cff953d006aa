package msci

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jl2922/msci/config"
	"github.com/jl2922/msci/det"
	"github.com/jl2922/msci/green"
	"github.com/jl2922/msci/hamiltonian"
	"github.com/jl2922/msci/hci"
	"github.com/jl2922/msci/integrals"
	"github.com/jl2922/msci/parallel"
	"github.com/jl2922/msci/symmetry"
)

// System ties the domain packages together for one run: it reads the
// configuration, replicates the integral table and excitation queue across
// ranks, and hands out the enumerator and Green's-function entry points.
//
// A System is not safe for concurrent mutation; Setup must complete before
// any other method is called. The read paths afterwards are safe for
// concurrent use.
type System struct {
	cfg     *config.Config
	logger  *Logger
	metrics MetricsCollector
	exec    *parallel.ExecContext

	nUp     uint32
	nDn     uint32
	timeSym bool
	zSign   int

	table *symmetry.Table
	ints  *integrals.Table
	queue *hci.Queue
	eval  *hci.Evaluator
	enum  *hci.Enumerator

	dets  []det.Det
	coefs []float64

	ready bool
}

// New creates a System over the given configuration. Call Setup before any
// other method.
func New(cfg *config.Config, optFns ...Option) *System {
	o := applyOptions(optFns)
	return &System{
		cfg:     cfg,
		logger:  o.logger,
		metrics: o.metricsCollector,
		exec:    o.exec,
	}
}

// Setup reads the run parameters, replicates the coordinator's state, and
// builds the excitation queue.
//
// On the coordinator rank ints must hold the loaded integral table; on every
// other rank ints is ignored (pass nil) and the table arrives over the
// execution context's transport. The queue is built once on the coordinator
// and broadcast the same way, so all ranks observe identical state.
func (s *System) Setup(ctx context.Context, ints *integrals.Table) error {
	nUp, err := config.Get[int](s.cfg, "n_up")
	if err != nil {
		return &ErrInvalidConfig{Key: "n_up", cause: err}
	}
	nDn, err := config.Get[int](s.cfg, "n_dn")
	if err != nil {
		return &ErrInvalidConfig{Key: "n_dn", cause: err}
	}
	timeSym, err := config.GetOr(s.cfg, "time_sym", false)
	if err != nil {
		return &ErrInvalidConfig{Key: "time_sym", cause: err}
	}
	zSign, err := config.GetOr(s.cfg, "z", 1)
	if err != nil {
		return &ErrInvalidConfig{Key: "z", cause: err}
	}
	if zSign != 1 && zSign != -1 {
		return &ErrInvalidConfig{Key: "z", cause: fmt.Errorf("want 1 or -1, got %d", zSign)}
	}
	groupName, err := config.GetOr(s.cfg, "chem.point_group", "none")
	if err != nil {
		return &ErrInvalidConfig{Key: "chem.point_group", cause: err}
	}

	s.nUp, s.nDn = uint32(nUp), uint32(nDn)
	s.timeSym = timeSym
	s.zSign = zSign
	s.logger = s.logger.WithRunID(uuid.NewString()).WithRank(s.exec.Rank())

	if err := s.replicateIntegrals(ctx, ints); err != nil {
		return err
	}
	if s.ints.NUp() != s.nUp || s.ints.NDn() != s.nDn {
		return fmt.Errorf("msci: config wants %d up / %d dn electrons, integral table has %d / %d",
			s.nUp, s.nDn, s.ints.NUp(), s.ints.NDn())
	}
	s.logger = s.logger.WithOrbitals(s.ints.NOrbs())

	group := symmetry.ParsePointGroup(groupName)
	s.table, err = symmetry.NewTable(group, productTableFor(group, s.ints.OrbSym()), s.ints.OrbSym())
	if err != nil {
		return err
	}

	if err := s.buildQueue(ctx); err != nil {
		return err
	}

	s.eval = hci.NewEvaluator(s.ints)
	s.enum = hci.NewEnumerator(s.table, s.queue, s.eval.Elem)
	s.dets = []det.Det{s.ints.HFDet()}
	s.coefs = []float64{1.0}
	s.ready = true
	return nil
}

// replicateIntegrals installs the integral table on every rank: the
// coordinator snapshots its table and broadcasts, the others restore from
// the received blob. Single-rank runs skip the snapshot entirely.
func (s *System) replicateIntegrals(ctx context.Context, ints *integrals.Table) error {
	if s.exec.IsCoordinator() && ints == nil {
		return ErrMissingIntegrals
	}
	if s.exec.NumRanks() == 1 {
		s.ints = ints
		return nil
	}

	var blob []byte
	if s.exec.IsCoordinator() {
		var err error
		if blob, err = ints.MarshalBinary(); err != nil {
			return err
		}
	}
	blob, err := s.broadcast(ctx, "integrals", blob)
	if err != nil {
		return err
	}
	if s.exec.IsCoordinator() {
		s.ints = ints
		return nil
	}
	s.ints = &integrals.Table{}
	return s.ints.UnmarshalBinary(blob)
}

// buildQueue builds the heat-bath queue on the coordinator and replicates
// it, mirroring replicateIntegrals.
func (s *System) buildQueue(ctx context.Context) error {
	if s.exec.IsCoordinator() {
		start := time.Now()
		q, err := hci.BuildQueue(s.table, s.ints)
		elapsed := time.Since(start)
		if err != nil {
			s.metrics.RecordQueueBuild(0, elapsed, err)
			s.logger.LogQueueBuild(ctx, 0, 0, elapsed, err)
			return err
		}
		s.metrics.RecordQueueBuild(q.NumEntries(), elapsed, nil)
		s.logger.LogQueueBuild(ctx, q.NumEntries(), q.MaxAbs(), elapsed, nil)
		s.queue = q
	}
	if s.exec.NumRanks() == 1 {
		return nil
	}

	var blob []byte
	if s.exec.IsCoordinator() {
		var err error
		if blob, err = s.queue.MarshalBinary(); err != nil {
			return err
		}
	}
	blob, err := s.broadcast(ctx, "queue", blob)
	if err != nil {
		return err
	}
	if s.exec.IsCoordinator() {
		return nil
	}
	s.queue = &hci.Queue{}
	return s.queue.UnmarshalBinary(blob)
}

func (s *System) broadcast(ctx context.Context, what string, blob []byte) ([]byte, error) {
	start := time.Now()
	out, err := s.exec.Broadcast(ctx, blob)
	s.metrics.RecordReplication(len(out), time.Since(start), err)
	s.logger.LogReplication(ctx, what, len(out), err)
	return out, err
}

// productTableFor picks the irrep product table for the parsed point group.
// Without spatial symmetry, orbital labels above 1 still compose through an
// abelian table wide enough to hold them.
func productTableFor(group symmetry.PointGroup, orbSym []uint32) symmetry.ProductTable {
	if group == symmetry.D2h {
		return symmetry.NewD2hTable()
	}
	maxSym := uint32(1)
	for _, sym := range orbSym {
		if sym > maxSym {
			maxSym = sym
		}
	}
	return symmetry.NewAbelianTable(int(maxSym))
}

// HFDet returns the Hartree-Fock reference determinant.
func (s *System) HFDet() det.Det { return s.ints.HFDet() }

// NOrbs returns the number of spatial orbitals.
func (s *System) NOrbs() uint32 { return s.ints.NOrbs() }

// Queue exposes the replicated excitation queue.
func (s *System) Queue() *hci.Queue { return s.queue }

// Elem returns the Hamiltonian matrix element between two determinants.
func (s *System) Elem(a, b det.Det) float64 { return s.eval.Elem(a, b) }

// ForEachConnected delivers every determinant connected to d whose matrix
// element magnitude lies in [epsMin, epsMax) to sink, applying the run's
// time-reversal settings.
func (s *System) ForEachConnected(d det.Det, epsMin, epsMax float64, sink hci.Sink) error {
	if !s.ready {
		return ErrNotSetup
	}
	s.enum.ForEachConnected(d, epsMin, epsMax, s.timeSym, s.zSign, sink)
	return nil
}

// SetPrimaryBasis installs the variational determinants and their
// coefficients used as the source space of the Green's-function run.
// The default after Setup is the Hartree-Fock determinant with weight 1.
func (s *System) SetPrimaryBasis(dets []det.Det, coefs []float64) error {
	if !s.ready {
		return ErrNotSetup
	}
	if len(dets) == 0 || len(dets) != len(coefs) {
		return fmt.Errorf("msci: primary basis needs matching non-empty determinants and coefficients, got %d and %d",
			len(dets), len(coefs))
	}
	s.dets = append([]det.Det(nil), dets...)
	s.coefs = append([]float64(nil), coefs...)
	return nil
}

// RunGreen solves the shifted linear systems over the extended basis and
// returns the response matrix at the configured frequency point. eVar is
// the variational energy entering the complex shift. A nil op uses the
// in-repo sparse Hamiltonian built from the run's matrix elements.
func (s *System) RunGreen(ctx context.Context, eVar float64, op green.Operator) (*green.Response, error) {
	if !s.ready {
		return nil, ErrNotSetup
	}
	omega, err := config.GetOr(s.cfg, "w_green", 1.0)
	if err != nil {
		return nil, &ErrInvalidConfig{Key: "w_green", cause: err}
	}
	eta, err := config.GetOr(s.cfg, "n_green", 1.0)
	if err != nil {
		return nil, &ErrInvalidConfig{Key: "n_green", cause: err}
	}
	if op == nil {
		op = hamiltonian.New(s.eval.Elem, s.exec)
	}

	solver := green.NewSolver(omega, eta,
		green.WithExecContext(s.exec),
		green.WithLogger(s.logger.Logger),
	)
	start := time.Now()
	resp, err := solver.Run(ctx, s.dets, s.coefs, eVar, s.ints.NOrbs(), op)
	elapsed := time.Since(start)
	s.metrics.RecordGreenSolve(elapsed, err)
	s.logger.LogGreenSolve(ctx, omega, eta, elapsed, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
