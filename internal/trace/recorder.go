package trace

import (
	"sort"
	"sync"
	"time"

	"scrollwatch/internal/eventbus"
)

// Recorder collects the samples of one surface from SampleRecorded events
type Recorder struct {
	mu          sync.Mutex
	surface     string
	window      time.Duration
	start       time.Time
	points      []Point
	unsubscribe func()
}

// NewRecorder subscribes to bus and records every sample of surface
func NewRecorder(bus eventbus.EventBus, surface string, window time.Duration) *Recorder {
	r := &Recorder{
		surface: surface,
		window:  window,
	}
	r.unsubscribe = bus.Subscribe(eventbus.EventSampleRecorded, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.SampleRecordedEvent); ok && event.Surface == r.surface {
			r.add(event.State.Timestamp, event.State.Position.X, event.State.Position.Y)
		}
	})
	return r
}

func (r *Recorder) add(at time.Time, x, y float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.start.IsZero() || at.Before(r.start) {
		// Handlers run concurrently, so an earlier sample can arrive late.
		if !r.start.IsZero() {
			shift := r.start.Sub(at).Milliseconds()
			for i := range r.points {
				r.points[i].TMS += shift
			}
		}
		r.start = at
	}
	r.points = append(r.points, Point{TMS: at.Sub(r.start).Milliseconds(), X: x, Y: y})
}

// Len returns the number of recorded samples
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.points)
}

// Trace returns the recording so far, ordered by time
func (r *Recorder) Trace() *Trace {
	r.mu.Lock()
	defer r.mu.Unlock()

	points := make([]Point, len(r.points))
	copy(points, r.points)
	sort.SliceStable(points, func(i, j int) bool { return points[i].TMS < points[j].TMS })

	return &Trace{
		Surface:  r.surface,
		WindowMS: r.window.Milliseconds(),
		Samples:  points,
	}
}

// Stop unsubscribes from the bus
func (r *Recorder) Stop() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}
