package msci

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jl2922/msci/config"
	"github.com/jl2922/msci/det"
	"github.com/jl2922/msci/integrals"
	"github.com/jl2922/msci/parallel"
	"github.com/jl2922/msci/symmetry"
)

// twoOrbitalTable holds one up and one down electron in two orbitals. The
// symmetric integral storage makes (01|10) equal (01|01), so each of the
// three opposite-spin origin buckets gets one destination entry, and
// enumeration from the reference determinant sees a single double
// excitation.
func twoOrbitalTable() *integrals.Table {
	src := integrals.NewTable(2, []uint32{1, 1}, 1, 1)
	src.Set1B(0, 0, -1.0)
	src.Set1B(1, 1, -0.5)
	src.Set2B(0, 1, 0, 1, 0.3)
	src.Set2B(0, 0, 0, 0, 0.6)
	return src
}

func TestSystemSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		cfg := config.New(map[string]any{"n_up": 1, "n_dn": 1})
		sys := New(cfg)
		require.NoError(t, sys.Setup(ctx, twoOrbitalTable()))

		assert.Equal(t, uint32(2), sys.NOrbs())
		assert.Equal(t, []uint32{0}, sys.HFDet().Up.Occupied())
		assert.Equal(t, []uint32{0}, sys.HFDet().Dn.Occupied())
		assert.Equal(t, uint64(3), sys.Queue().NumEntries())
		assert.Len(t, sys.Queue().Bucket(0, 2), 1)
		assert.Len(t, sys.Queue().Bucket(0, 3), 1)
		assert.Len(t, sys.Queue().Bucket(1, 3), 1)
		assert.InDelta(t, 0.3, sys.Queue().MaxAbs(), 1e-12)
	})

	t.Run("MissingElectronCount", func(t *testing.T) {
		sys := New(config.New(map[string]any{"n_dn": 1}))
		err := sys.Setup(ctx, twoOrbitalTable())
		require.Error(t, err)

		var ic *ErrInvalidConfig
		require.True(t, errors.As(err, &ic))
		assert.Equal(t, "n_up", ic.Key)
	})

	t.Run("ElectronCountMismatch", func(t *testing.T) {
		sys := New(config.New(map[string]any{"n_up": 2, "n_dn": 1}))
		assert.Error(t, sys.Setup(ctx, twoOrbitalTable()))
	})

	t.Run("BadZ", func(t *testing.T) {
		sys := New(config.New(map[string]any{"n_up": 1, "n_dn": 1, "z": 0}))
		err := sys.Setup(ctx, twoOrbitalTable())
		require.Error(t, err)

		var ic *ErrInvalidConfig
		require.True(t, errors.As(err, &ic))
		assert.Equal(t, "z", ic.Key)
	})

	t.Run("MissingIntegralsOnCoordinator", func(t *testing.T) {
		sys := New(config.New(map[string]any{"n_up": 1, "n_dn": 1}))
		assert.ErrorIs(t, sys.Setup(ctx, nil), ErrMissingIntegrals)
	})

	t.Run("DoohRejected", func(t *testing.T) {
		cfg := config.New(map[string]any{
			"n_up": 1,
			"n_dn": 1,
			"chem": map[string]any{"point_group": "dooh"},
		})
		sys := New(cfg)
		err := sys.Setup(ctx, twoOrbitalTable())
		require.Error(t, err)

		var upg *symmetry.ErrUnsupportedPointGroup
		assert.True(t, errors.As(err, &upg))
	})

	t.Run("NotSetup", func(t *testing.T) {
		sys := New(config.New(map[string]any{"n_up": 1, "n_dn": 1}))
		assert.ErrorIs(t, sys.ForEachConnected(det.New(2), 0, 1, func(det.Det, float64) {}), ErrNotSetup)
		assert.ErrorIs(t, sys.SetPrimaryBasis(nil, nil), ErrNotSetup)
		_, err := sys.RunGreen(ctx, 0, nil)
		assert.ErrorIs(t, err, ErrNotSetup)
	})
}

func TestSystemForEachConnected(t *testing.T) {
	ctx := context.Background()
	sys := New(config.New(map[string]any{"n_up": 1, "n_dn": 1}))
	require.NoError(t, sys.Setup(ctx, twoOrbitalTable()))

	type conn struct {
		d    det.Det
		elem float64
	}
	var conns []conn
	require.NoError(t, sys.ForEachConnected(sys.HFDet(), 0.1, math.Inf(1), func(d det.Det, elem float64) {
		conns = append(conns, conn{d: d, elem: elem})
	}))

	require.Len(t, conns, 1)
	assert.Equal(t, []uint32{1}, conns[0].d.Up.Occupied())
	assert.Equal(t, []uint32{1}, conns[0].d.Dn.Occupied())
	assert.InDelta(t, 0.3, conns[0].elem, 1e-12)

	// Tightening the lower bound above the only coupling empties the window.
	var none int
	require.NoError(t, sys.ForEachConnected(sys.HFDet(), 0.4, math.Inf(1), func(det.Det, float64) {
		none++
	}))
	assert.Zero(t, none)
}

func TestSystemReplication(t *testing.T) {
	const nRanks = 3
	ctx := context.Background()
	group := parallel.NewGroup(nRanks)

	systems := make([]*System, nRanks)
	errs := make([]error, nRanks)
	var wg sync.WaitGroup
	for rank := 0; rank < nRanks; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			exec := parallel.New(
				parallel.WithRank(rank, nRanks),
				parallel.WithTransport(group[rank]),
			)
			sys := New(config.New(map[string]any{"n_up": 1, "n_dn": 1}), WithExecContext(exec))

			var src *integrals.Table
			if rank == 0 {
				src = twoOrbitalTable()
			}
			systems[rank] = sys
			errs[rank] = sys.Setup(ctx, src)
		}(rank)
	}
	wg.Wait()

	for rank, err := range errs {
		require.NoError(t, err, "rank %d", rank)
	}

	// Every rank observes the coordinator's state.
	want := systems[0]
	for rank := 1; rank < nRanks; rank++ {
		got := systems[rank]
		assert.True(t, got.HFDet().Equal(want.HFDet()), "rank %d", rank)
		assert.Equal(t, want.Queue().NumEntries(), got.Queue().NumEntries(), "rank %d", rank)
		assert.Equal(t, want.Queue().MaxAbs(), got.Queue().MaxAbs(), "rank %d", rank)
		assert.Equal(t, want.Queue().Bucket(0, 2), got.Queue().Bucket(0, 2), "rank %d", rank)
	}
}

func TestSystemRunGreen(t *testing.T) {
	ctx := context.Background()
	cfg := config.New(map[string]any{
		"n_up":    1,
		"n_dn":    1,
		"w_green": 0.7,
		"n_green": 0.1,
	})
	metrics := &BasicMetricsCollector{}
	sys := New(cfg, WithMetricsCollector(metrics))
	require.NoError(t, sys.Setup(ctx, twoOrbitalTable()))

	const eVar = -2.0
	resp, err := sys.RunGreen(ctx, eVar, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(2), resp.NOrbs())
	assert.Equal(t, "green_7.00e-01_1.00e-01i.csv", resp.Filename())

	// The extended basis decouples the two insertion determinants, so the
	// surviving diagonal entries have closed form 1 / (H_kk - z).
	z := complex(0.7+eVar, 0.1)
	upIns := det.NewWithOcc(2, []uint32{0, 1}, []uint32{0})
	wantUp := 1.0 / (complex(sys.Elem(upIns, upIns), 0) - z)
	assert.InDelta(t, real(wantUp), real(resp.At(1, 1)), 1e-6)
	assert.InDelta(t, imag(wantUp), imag(resp.At(1, 1)), 1e-6)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.QueueBuildCount)
	assert.Equal(t, int64(1), stats.GreenSolveCount)
	assert.Zero(t, stats.GreenSolveErrors)
}

// keyCapture records, per log message, the attribute keys the handler was
// bound with plus those on the record itself.
type keyCapture struct {
	shared *capturedKeys
	bound  []string
}

type capturedKeys struct {
	mu    sync.Mutex
	byMsg map[string][]string
}

func (h *keyCapture) Enabled(context.Context, slog.Level) bool { return true }

func (h *keyCapture) Handle(_ context.Context, r slog.Record) error {
	keys := append([]string(nil), h.bound...)
	r.Attrs(func(a slog.Attr) bool {
		keys = append(keys, a.Key)
		return true
	})
	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	h.shared.byMsg[r.Message] = keys
	return nil
}

func (h *keyCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := append([]string(nil), h.bound...)
	for _, a := range attrs {
		bound = append(bound, a.Key)
	}
	return &keyCapture{shared: h.shared, bound: bound}
}

func (h *keyCapture) WithGroup(string) slog.Handler { return h }

func TestSetupLoggerContext(t *testing.T) {
	shared := &capturedKeys{byMsg: map[string][]string{}}
	sys := New(
		config.New(map[string]any{"n_up": 1, "n_dn": 1}),
		WithLogger(NewLogger(&keyCapture{shared: shared})),
	)
	require.NoError(t, sys.Setup(context.Background(), twoOrbitalTable()))

	shared.mu.Lock()
	keys, ok := shared.byMsg["queue build completed"]
	shared.mu.Unlock()
	require.True(t, ok)
	assert.Contains(t, keys, "run_id")
	assert.Contains(t, keys, "rank")
	assert.Contains(t, keys, "n_orbs")
}
