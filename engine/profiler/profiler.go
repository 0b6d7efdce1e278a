package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/veil/common"
	"github.com/sirupsen/logrus"
)

// Stats is one reporting window of the render loop.
type Stats struct {
	// FPS is render loop iterations per second, skipped frames included.
	FPS float64
	// Real counts frames that composited a newly arrived camera image.
	Real int
	// Interpolated counts frames shown with a blend factor below 1.
	Interpolated int
	// Skipped counts frames that drew nothing, such as while the surface is zero sized.
	Skipped int
	// Errors counts frames whose error or panic was contained.
	Errors int

	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks render rate, frame kinds and memory statistics for performance monitoring.
// Logs a summary at a configurable interval. Not safe for concurrent use; the render loop owns it.
type Profiler struct {
	frameCount     int
	real           int
	interpolated   int
	skipped        int
	errors         int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
	now            func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions to configure the Profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Frame records the outcome of one render loop iteration.
//
// Parameters:
//   - arrived: a new camera image was composited
//   - interpolated: the frame was shown blended with the previous image
//   - skipped: nothing was drawn
//   - failed: the frame's error or panic was contained
func (p *Profiler) Frame(arrived, interpolated, skipped, failed bool) {
	if arrived {
		p.real++
	}
	if interpolated {
		p.interpolated++
	}
	if skipped {
		p.skipped++
	}
	if failed {
		p.errors++
	}
}

// Tick should be called once per render loop iteration to track frame timing.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:          float64(p.frameCount) / elapsed.Seconds(),
		Real:         p.real,
		Interpolated: p.interpolated,
		Skipped:      p.skipped,
		Errors:       p.errors,
		HeapMB:       float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:        float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB:  float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:      p.memStats.NumGC,
	}

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().WithFields(logrus.Fields{
		"component":    "profiler",
		"fps":          round2(s.FPS),
		"real":         s.Real,
		"interpolated": s.Interpolated,
		"skipped":      s.Skipped,
		"errors":       s.Errors,
		"heap_mb":      round2(s.HeapMB),
		"alloc_mb_s":   round2(s.AllocRateMB),
		"gc":           s.GCCount,
		"gc_last_us":   s.LastPauseUs,
		"gc_max_us":    s.MaxPauseUs,
		"sys_mb":       round2(s.SysMB),
	}).Info("render stats")

	p.last = s
	p.frameCount = 0
	p.real, p.interpolated, p.skipped, p.errors = 0, 0, 0, 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently reported window.
//
// Returns:
//   - Stats: the last logged stats, zero before the first report
func (p *Profiler) Last() Stats {
	return p.last
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
