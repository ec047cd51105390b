package domain

import (
	"time"

	"scrollwatch/internal/scroll"
)

// Chain is the caller-carried state of one observed scroll surface
type Chain struct {
	Surface   string
	State     scroll.VelocityState // last value returned by the computer
	Samples   int                  // number of samples taken since the chain started
	StartedAt time.Time
}

// Settings are the tracking parameters currently in effect
type Settings struct {
	Window         time.Duration
	SampleInterval time.Duration
	HistoryLimit   int // 0 means unbounded
}
