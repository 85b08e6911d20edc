// package profiler tracks frame rate and memory statistics for the engine
// loop. The profiler is ticked once per frame; it logs at a configurable
// interval and keeps the latest snapshot available for the Snapshot phase.
package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// FrameStats is one profiling snapshot. A fresh snapshot is produced each
// time the update interval elapses; between updates the previous snapshot
// stays current.
type FrameStats struct {
	// FPS is the average frame rate over the last interval.
	FPS float64

	// FrameTime is the average frame duration over the last interval.
	FrameTime time.Duration

	// HeapMB is the live heap size in megabytes.
	HeapMB float64

	// AllocRateMB is the heap allocation rate in megabytes per second.
	AllocRateMB float64

	// GCCount is the cumulative garbage collection count.
	GCCount uint32

	// LastGCPause and MaxGCPause are the most recent and the largest GC
	// pause observed since the previous snapshot.
	LastGCPause, MaxGCPause time.Duration

	// SysMB is the total memory obtained from the OS in megabytes.
	SysMB float64

	// CapturedAt is when the snapshot was taken.
	CapturedAt time.Time
}

// Profiler tracks frame rate and memory statistics for performance
// monitoring. Outputs stats to the log at a configurable interval and
// retains the latest snapshot. Safe for concurrent Stats reads while the
// frame goroutine ticks.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	logging bool
	latest  FrameStats
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second with logging enabled.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: time.Second,
		logging:        true,
	}
}

// SetLogging enables or disables the periodic log output. Snapshots are
// still captured when logging is off.
//
// Parameters:
//   - enabled: true to log each snapshot
func (p *Profiler) SetLogging(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logging = enabled
}

// Stats returns the latest captured snapshot. The zero value is returned
// before the first interval elapses.
//
// Returns:
//   - FrameStats: the latest snapshot
func (p *Profiler) Stats() FrameStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Tick should be called once per frame to track frame timing. Captures and
// optionally logs a snapshot when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause
// times, total memory.
//
// Returns:
//   - bool: true if a snapshot was captured this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap bytes. TotalAlloc: cumulative heap bytes (tracks
	// churn). Sys: memory obtained from the OS (process footprint).
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := time.Duration(p.memStats.PauseNs[i%256]); pause > maxPause {
				maxPause = pause
			}
		}
	}

	p.latest = FrameStats{
		FPS:         fps,
		FrameTime:   elapsed / time.Duration(max(p.frameCount, 1)),
		HeapMB:      allocMB,
		AllocRateMB: allocRateMB,
		GCCount:     gcCount,
		LastGCPause: lastPause,
		MaxGCPause:  maxPause,
		SysMB:       sysMB,
		CapturedAt:  currentTime,
	}

	if p.logging {
		log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			fps, allocMB, allocRateMB, gcCount, lastPause.Microseconds(), maxPause.Microseconds(), sysMB)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
