package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"scrollwatch/internal/scroll"
)

// Point is one recorded position, timestamped in milliseconds from the trace start.
type Point struct {
	TMS int64   `yaml:"t_ms"`
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
}

// Trace is a recorded sequence of scroll positions
type Trace struct {
	Surface  string  `yaml:"surface,omitempty"`
	WindowMS int64   `yaml:"window_ms"`
	Samples  []Point `yaml:"samples"`
}

// Window returns the velocity window the trace should be replayed with
func (t *Trace) Window() time.Duration {
	return time.Duration(t.WindowMS) * time.Millisecond
}

// Validate checks that the trace can be replayed deterministically
func (t *Trace) Validate() error {
	if t.WindowMS <= 0 {
		return fmt.Errorf("window_ms must be positive, got %d", t.WindowMS)
	}
	for i := 1; i < len(t.Samples); i++ {
		if t.Samples[i].TMS < t.Samples[i-1].TMS {
			return fmt.Errorf("sample %d goes back in time (%d ms after %d ms)", i, t.Samples[i].TMS, t.Samples[i-1].TMS)
		}
	}
	return nil
}

// Decode reads a YAML trace from r
func Decode(r io.Reader) (*Trace, error) {
	var t Trace
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty trace")
		}
		return nil, fmt.Errorf("failed to parse trace: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trace: %w", err)
	}
	return &t, nil
}

// Encode writes t to w as YAML
func Encode(w io.Writer, t *Trace) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	return enc.Close()
}

// Load reads a trace file
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Save writes a trace file, creating its directory if needed
func Save(t *Trace, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write trace file: %w", err)
	}
	return nil
}

// Replay feeds every sample of t through the velocity computer, using the
// recorded timestamps as the clock, and returns the state after each sample.
func Replay(t *Trace) []scroll.VelocityState {
	var now time.Time
	compute := scroll.WithVelocity(t.Window(), scroll.Compute, scroll.WithClock(func() time.Time { return now }))

	results := make([]scroll.VelocityState, 0, len(t.Samples))
	var prev *scroll.VelocityState
	for _, p := range t.Samples {
		now = time.UnixMilli(p.TMS)
		next := compute(prev, scroll.Position{X: p.X, Y: p.Y})
		results = append(results, next)
		prev = &next
	}
	return results
}
