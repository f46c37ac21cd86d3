package analyzer

import (
	"sync"
	"sync/atomic"
)

// DetectionGate runs at most one detection at a time. A submission that finds
// a detection still in flight is dropped rather than queued.
type DetectionGate struct {
	busy atomic.Bool
	wg   sync.WaitGroup

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	skippedJobs   atomic.Int64
}

// GateStats is a snapshot of gate counters
type GateStats struct {
	TotalJobs     int64
	CompletedJobs int64
	SkippedJobs   int64
	Active        bool
}

// NewDetectionGate creates an idle gate
func NewDetectionGate() *DetectionGate {
	return &DetectionGate{}
}

// TrySubmit starts job in the background unless one is already running.
// It reports whether the job was started.
func (g *DetectionGate) TrySubmit(job func()) bool {
	if !g.busy.CompareAndSwap(false, true) {
		g.skippedJobs.Add(1)
		return false
	}

	g.totalJobs.Add(1)
	g.wg.Add(1)
	go func() {
		defer func() {
			g.completedJobs.Add(1)
			g.busy.Store(false)
			g.wg.Done()
		}()
		job()
	}()
	return true
}

// Busy reports whether a detection is in flight
func (g *DetectionGate) Busy() bool {
	return g.busy.Load()
}

// Wait blocks until the in-flight job, if any, has finished
func (g *DetectionGate) Wait() {
	g.wg.Wait()
}

// GetStats returns the current counters
func (g *DetectionGate) GetStats() GateStats {
	return GateStats{
		TotalJobs:     g.totalJobs.Load(),
		CompletedJobs: g.completedJobs.Load(),
		SkippedJobs:   g.skippedJobs.Load(),
		Active:        g.busy.Load(),
	}
}
