// Package parallel holds the explicit execution context shared by the
// compute loops: the process rank within a run, the number of ranks, the
// per-process worker thread count, and the transport used to replicate
// coordinator-built state to the other ranks.
//
// All loop parallelism is static partitioning over index ranges; callers
// guarantee the per-index work writes disjoint slots, so no locks are taken
// and a join at loop end is the only synchronization.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ExecContext carries the process/thread topology of one run. It replaces
// ambient global state: components that need rank or thread counts receive
// an ExecContext explicitly.
type ExecContext struct {
	rank      int
	nRanks    int
	nThreads  int
	transport Transport
}

// Option configures an ExecContext.
type Option func(*ExecContext)

// WithRank sets this process's rank and the total rank count.
func WithRank(rank, nRanks int) Option {
	return func(e *ExecContext) {
		e.rank = rank
		e.nRanks = nRanks
	}
}

// WithThreads sets the worker thread count for data-parallel loops.
func WithThreads(n int) Option {
	return func(e *ExecContext) {
		if n > 0 {
			e.nThreads = n
		}
	}
}

// WithTransport sets the rank replication transport.
func WithTransport(t Transport) Option {
	return func(e *ExecContext) {
		if t != nil {
			e.transport = t
		}
	}
}

// New returns an ExecContext. The default is a single rank with
// GOMAXPROCS worker threads and the loopback transport.
func New(opts ...Option) *ExecContext {
	e := &ExecContext{
		rank:      0,
		nRanks:    1,
		nThreads:  runtime.GOMAXPROCS(0),
		transport: Loopback{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rank returns this process's rank.
func (e *ExecContext) Rank() int { return e.rank }

// NumRanks returns the total number of ranks.
func (e *ExecContext) NumRanks() int { return e.nRanks }

// NumThreads returns the worker thread count.
func (e *ExecContext) NumThreads() int { return e.nThreads }

// IsCoordinator reports whether this process is the coordinating rank.
func (e *ExecContext) IsCoordinator() bool { return e.rank == 0 }

// Broadcast replicates data from the coordinator to every rank. The
// coordinator passes the payload and gets it back; other ranks pass nil and
// receive the coordinator's payload.
func (e *ExecContext) Broadcast(ctx context.Context, data []byte) ([]byte, error) {
	return e.transport.Broadcast(ctx, e.IsCoordinator(), data)
}

// For runs fn(i) for every i in [0, n), statically partitioned across the
// worker threads. fn must only write state owned by index i.
func (e *ExecContext) For(ctx context.Context, n int, fn func(i int)) error {
	workers := e.nThreads
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return ctx.Err()
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

// Dot returns the unconjugated complex dot product sum_i a[i]*b[i],
// reduced in parallel. The unconjugated form is what the complex-symmetric
// shifted solve requires.
func (e *ExecContext) Dot(a, b []complex128) complex128 {
	n := len(a)
	workers := e.nThreads
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		var sum complex128
		for i := 0; i < n; i++ {
			sum += a[i] * b[i]
		}
		return sum
	}

	partial := make([]complex128, workers)
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		w := w
		g.Go(func() error {
			var sum complex128
			for i := lo; i < hi; i++ {
				sum += a[i] * b[i]
			}
			partial[w] = sum
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	var sum complex128
	for _, p := range partial {
		sum += p
	}
	return sum
}
