// Command scrollplay replays a recorded trace in real time through the tracker
// and serves the resulting states on the websocket feed, without a terminal UI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"scrollwatch/internal/config"
	"scrollwatch/internal/eventbus"
	"scrollwatch/internal/feed"
	"scrollwatch/internal/logic"
	"scrollwatch/internal/scroll"
	"scrollwatch/internal/trace"
	"scrollwatch/internal/tracker"
)

func main() {
	var (
		addr  string
		speed float64
		loop  bool
	)
	flag.StringVar(&addr, "addr", "", "Address to serve the feed on (default: feed.addr from the user config, else :8089)")
	flag.Float64Var(&speed, "speed", 1, "Playback speed multiplier")
	flag.BoolVar(&loop, "loop", false, "Restart the trace when it ends")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] TRACE.yaml\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	t, err := trace.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	configSvc := config.NewConfigService()
	cfg, err := configSvc.Load()
	if err != nil {
		log.Printf("Error loading config: %v", err)
		cfg = config.DefaultConfig()
	}
	if addr == "" {
		addr = cfg.Feed.Addr
	}
	if addr == "" {
		addr = ":8089"
	}

	// Set up logging
	logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}
	logger := slog.New(slog.NewTextHandler(log.Writer(), nil))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bus := eventbus.New()
	defer bus.Close()

	// The trace's own timestamps clock the tracker
	var (
		clockMu sync.Mutex
		now     time.Time
	)
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}

	surface := t.Surface
	if surface == "" {
		surface = "trace"
	}
	settings := cfg.Settings()
	settings.Window = t.Window()
	tr := tracker.New(bus, logic.NewMemoryChainStore(), settings, tracker.WithClock(clock))

	srv := feed.NewServer(logger, tr, feed.ServerConfig{})
	mux := http.NewServeMux()
	srv.Register(mux, cfg.Feed.Path)
	broadcaster := feed.NewBroadcaster(srv.Hub(), bus, feed.DefaultCoalesceWindow, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv.Hub().Run(gctx)
		return nil
	})
	g.Go(func() error {
		broadcaster.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return feed.ListenAndServe(gctx, addr, mux, logger)
	})
	g.Go(func() error {
		defer cancel()
		for {
			fmt.Printf("Playing %d samples of %q on ws://%s%s\n", len(t.Samples), surface, addr, cfg.Feed.Path)
			err := trace.Play(gctx, t, speed, func(at time.Time, p trace.Point) {
				clockMu.Lock()
				now = at
				clockMu.Unlock()
				tr.Record(surface, scroll.Position{X: p.X, Y: p.Y})
			})
			if err != nil || !loop {
				return err
			}
			tr.Reset(surface)
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
