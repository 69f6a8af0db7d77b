package tick

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// section is a named timing bucket. spec.md §4.8 calls out tick, compress
// (delta streamer), and IO (accept/read/flush) as the three passes an
// operator needs separated; profiling is grounded on the Prometheus wiring
// in the pack's fight-club-go internal/api/observability.go (histogram per
// timed phase, scraped via promhttp), adapted from one HTTP-request
// histogram to the three named simulation passes.
type section struct {
	hist    prometheus.Histogram
	mu      sync.Mutex
	samples []time.Duration // ring of recent samples for min/avg/max/p95
	head    int
	filled  bool
}

const profileRingSize = 256

func newSection(name, help string) *section {
	return &section{
		hist: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worldserver_tick_" + name + "_seconds",
			Help:    help,
			Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.032, 0.064},
		}),
		samples: make([]time.Duration, profileRingSize),
	}
}

func (s *section) record(d time.Duration) {
	s.hist.Observe(d.Seconds())
	s.mu.Lock()
	s.samples[s.head] = d
	s.head = (s.head + 1) % profileRingSize
	if s.head == 0 {
		s.filled = true
	}
	s.mu.Unlock()
}

// Report is a snapshot of a section's recent timing distribution.
type Report struct {
	Min, Avg, Max, P95 time.Duration
	N                  int
}

func (s *section) report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.head
	if s.filled {
		n = profileRingSize
	}
	if n == 0 {
		return Report{}
	}
	buf := make([]time.Duration, n)
	copy(buf, s.samples[:n])

	// insertion sort: n is at most profileRingSize (256), and report() is
	// called from the admin/debug surface, not the hot tick path.
	for i := 1; i < len(buf); i++ {
		for j := i; j > 0 && buf[j] < buf[j-1]; j-- {
			buf[j], buf[j-1] = buf[j-1], buf[j]
		}
	}

	var sum time.Duration
	for _, d := range buf {
		sum += d
	}
	p95idx := (len(buf) * 95) / 100
	if p95idx >= len(buf) {
		p95idx = len(buf) - 1
	}
	return Report{
		Min: buf[0],
		Max: buf[len(buf)-1],
		Avg: sum / time.Duration(len(buf)),
		P95: buf[p95idx],
		N:   n,
	}
}

// Profiler tracks the three named simulation passes of spec.md §4.8:
// tick (systems), compress (delta streamer build), and io (accept/read/
// flush). Each pass's timings feed both a Prometheus histogram and a
// bounded in-memory ring for the admin /stats surface.
type Profiler struct {
	tick     *section
	compress *section
	io       *section
	sleep    *section
}

func NewProfiler() *Profiler {
	return &Profiler{
		tick:     newSection("tick", "time spent running phased systems"),
		compress: newSection("compress", "time spent building delta packets"),
		io:       newSection("io", "time spent on connection accept/read/flush"),
		sleep:    newSection("sleep", "time spent sleeping to the next tick boundary"),
	}
}

func (p *Profiler) RecordTick(d time.Duration)     { p.tick.record(d) }
func (p *Profiler) RecordCompress(d time.Duration) { p.compress.record(d) }
func (p *Profiler) RecordIO(d time.Duration)       { p.io.record(d) }
func (p *Profiler) RecordSleep(d time.Duration)    { p.sleep.record(d) }

func (p *Profiler) TickReport() Report     { return p.tick.report() }
func (p *Profiler) CompressReport() Report { return p.compress.report() }
func (p *Profiler) IOReport() Report       { return p.io.report() }
func (p *Profiler) SleepReport() Report    { return p.sleep.report() }
