package msci

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordQueueBuild is called after the excitation queue is built.
	// entries is the total number of queue entries, duration the build time.
	RecordQueueBuild(entries uint64, duration time.Duration, err error)

	// RecordReplication is called after a snapshot broadcast.
	// bytes is the compressed snapshot size.
	RecordReplication(bytes int, duration time.Duration, err error)

	// RecordGreenSolve is called after each Green's-function run.
	RecordGreenSolve(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordQueueBuild(uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordReplication(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordGreenSolve(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	QueueBuildCount      atomic.Int64
	QueueBuildErrors     atomic.Int64
	QueueEntries         atomic.Int64
	QueueBuildTotalNanos atomic.Int64
	ReplicationCount     atomic.Int64
	ReplicationErrors    atomic.Int64
	ReplicationBytes     atomic.Int64
	GreenSolveCount      atomic.Int64
	GreenSolveErrors     atomic.Int64
	GreenSolveTotalNanos atomic.Int64
}

// RecordQueueBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQueueBuild(entries uint64, duration time.Duration, err error) {
	b.QueueBuildCount.Add(1)
	b.QueueEntries.Add(int64(entries))
	b.QueueBuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueueBuildErrors.Add(1)
	}
}

// RecordReplication implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReplication(bytes int, duration time.Duration, err error) {
	b.ReplicationCount.Add(1)
	b.ReplicationBytes.Add(int64(bytes))
	if err != nil {
		b.ReplicationErrors.Add(1)
	}
}

// RecordGreenSolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGreenSolve(duration time.Duration, err error) {
	b.GreenSolveCount.Add(1)
	b.GreenSolveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GreenSolveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		QueueBuildCount:    b.QueueBuildCount.Load(),
		QueueBuildErrors:   b.QueueBuildErrors.Load(),
		QueueEntries:       b.QueueEntries.Load(),
		QueueBuildAvgNanos: avgNanos(&b.QueueBuildTotalNanos, &b.QueueBuildCount),
		ReplicationCount:   b.ReplicationCount.Load(),
		ReplicationErrors:  b.ReplicationErrors.Load(),
		ReplicationBytes:   b.ReplicationBytes.Load(),
		GreenSolveCount:    b.GreenSolveCount.Load(),
		GreenSolveErrors:   b.GreenSolveErrors.Load(),
		GreenSolveAvgNanos: avgNanos(&b.GreenSolveTotalNanos, &b.GreenSolveCount),
	}
}

func avgNanos(total, count *atomic.Int64) int64 {
	c := count.Load()
	if c == 0 {
		return 0
	}
	return total.Load() / c
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	QueueBuildCount    int64
	QueueBuildErrors   int64
	QueueEntries       int64
	QueueBuildAvgNanos int64
	ReplicationCount   int64
	ReplicationErrors  int64
	ReplicationBytes   int64
	GreenSolveCount    int64
	GreenSolveErrors   int64
	GreenSolveAvgNanos int64
}
