package ui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"

	"scrollwatch/internal/scroll"
	"scrollwatch/internal/trace"
)

// ShowInPager shows content in the ov pager, taking over the terminal until it exits
func ShowInPager(content string) error {
	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Don't write the pager contents back to the terminal on exit
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// PagerOps runs the pager from inside a running program
type PagerOps struct {
	program *tea.Program
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps(program *tea.Program) *PagerOps {
	return &PagerOps{program: program}
}

// Show releases the terminal, runs the pager and restores the terminal afterwards
func (p *PagerOps) Show(content string) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}

	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}
	defer func() {
		// Give ov time to leave the alternate screen before taking it back
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	return ShowInPager(content)
}

// renderHistory renders the carried history of a state, oldest first
func renderHistory(surface string, window time.Duration, state scroll.VelocityState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "History of %q (window %s, %d samples)\n\n", surface, window, len(state.History))
	if len(state.History) == 0 {
		b.WriteString("No samples yet.\n")
		return b.String()
	}

	start := state.History[0].Timestamp
	points := make([]trace.Point, len(state.History))
	results := make([]scroll.VelocityState, len(state.History))
	for i, h := range state.History {
		points[i] = trace.Point{TMS: h.Timestamp.Sub(start).Milliseconds(), X: h.Position.X, Y: h.Position.Y}
		results[i] = scroll.VelocityState{Sample: h, History: state.History[:i+1]}
	}

	t := &trace.Trace{Surface: surface, WindowMS: window.Milliseconds(), Samples: points}
	b.WriteString(trace.Table(t, results))
	b.WriteString("\n")
	return b.String()
}

// stateJSON renders a state for the clipboard, without its history
func stateJSON(surface string, state scroll.VelocityState) (string, error) {
	data, err := json.MarshalIndent(struct {
		Surface string `json:"surface"`
		scroll.Sample
		HistoryLen int `json:"history_len"`
	}{surface, state.Sample, len(state.History)}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	return string(data), nil
}
