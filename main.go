package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"scrollwatch/internal/config"
	"scrollwatch/internal/eventbus"
	"scrollwatch/internal/feed"
	"scrollwatch/internal/logic"
	"scrollwatch/internal/trace"
	"scrollwatch/internal/tracker"
	"scrollwatch/internal/ui"
)

func main() {
	var (
		configPath string
		replayPath string
		recordPath string
		serveAddr  string
		usePager   bool
	)
	flag.StringVar(&configPath, "config", config.FileName, "Path to the config file (created with defaults if missing)")
	flag.StringVar(&replayPath, "replay", "", "Replay a recorded trace file (or every trace in a directory) and print the computed states")
	flag.BoolVar(&usePager, "pager", false, "Show -replay output in the pager")
	flag.StringVar(&recordPath, "record", "", "Record the document's samples to a trace file on exit")
	flag.StringVar(&serveAddr, "serve", "", "Serve the live state feed on this address (overrides feed.addr)")
	flag.Parse()

	if replayPath != "" {
		if err := runReplay(replayPath, usePager); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Create event bus
	bus := eventbus.New()
	defer bus.Close()

	configSvc := config.NewConfigServiceWithBus(bus)
	cfg, existed, err := config.LoadOrCreate(configSvc, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if serveAddr != "" {
		cfg.Feed.Addr = serveAddr
	}

	// Set up logging
	var logOut io.Writer = io.Discard
	if logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
		fmt.Fprintf(os.Stderr, "Could not open log file: %v\n", err)
	} else {
		defer logFile.Close()
		logOut = logFile
	}
	log.SetOutput(logOut)
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	// Create context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := logic.NewMemoryChainStore()
	tr := tracker.New(bus, store, cfg.Settings())

	var recorder *trace.Recorder
	if recordPath != "" {
		recorder = trace.NewRecorder(bus, ui.Surface, cfg.Window())
		defer recorder.Stop()
	}

	uiModel := ui.NewModel(bus, tr, cfg)
	p := tea.NewProgram(uiModel, tea.WithAltScreen(), tea.WithMouseCellMotion())
	uiModel.SetProgram(p)

	// Forward the events the UI shows to the program
	forward := func(e eventbus.DomainEvent) { p.Send(ui.EventMsg{Event: e}) }
	bus.Subscribe(eventbus.EventConfigChanged, forward)
	bus.Subscribe(eventbus.EventError, forward)
	bus.Subscribe(eventbus.EventError, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.ErrorEvent); ok {
			log.Printf("Error: %s: %v", event.Message, event.Err)
		}
	})

	bus.Subscribe(eventbus.EventAppReady, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.AppReadyEvent); ok {
			log.Printf("App ready (existing config: %v, feed: %q)", event.HasExistingConfig, cfg.Feed.Addr)
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	watcher := config.NewWatcher(configSvc, bus, configPath, func(c *config.Config) {
		tr.Reconfigure(c.Settings())
	})
	g.Go(func() error {
		return watcher.Run(gctx)
	})

	if cfg.Feed.Addr != "" {
		srv := feed.NewServer(logger, tr, feed.ServerConfig{})
		mux := http.NewServeMux()
		srv.Register(mux, cfg.Feed.Path)
		broadcaster := feed.NewBroadcaster(srv.Hub(), bus, feed.DefaultCoalesceWindow, logger)

		g.Go(func() error {
			srv.Hub().Run(gctx)
			return nil
		})
		g.Go(func() error {
			broadcaster.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return feed.ListenAndServe(gctx, cfg.Feed.Addr, mux, logger)
		})
	}

	g.Go(func() error {
		// Quit the UI when another component fails or a signal arrives
		<-gctx.Done()
		p.Quit()
		return nil
	})

	bus.Publish(eventbus.AppReadyEvent{HasExistingConfig: existed})

	log.Printf("Starting UI...")
	_, runErr := p.Run()
	log.Printf("UI exited")
	cancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Background task failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if runErr != nil {
		log.Printf("Error running program: %v", runErr)
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", runErr)
		os.Exit(1)
	}

	if recorder != nil {
		// Deliver the samples still queued on the bus before saving
		bus.Close()
		if err := trace.Save(recorder.Trace(), recordPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving trace: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Recorded %d samples to %s\n", recorder.Len(), recordPath)
	}
}

// runReplay prints the states computed for a recorded trace, or for every trace
// found when path is a directory
func runReplay(path string, usePager bool) error {
	files, err := trace.Discover(context.Background(), path)
	if err != nil {
		return fmt.Errorf("failed to find traces: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no trace files in %s", path)
	}

	var out strings.Builder
	for i, file := range files {
		t, err := trace.Load(file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if len(files) > 1 {
			if i > 0 {
				out.WriteString("\n")
			}
			fmt.Fprintf(&out, "%s\n", file)
		}
		out.WriteString(trace.Table(t, trace.Replay(t)))
		out.WriteString("\n")
	}

	if usePager {
		return ui.ShowInPager(out.String())
	}
	fmt.Print(out.String())
	return nil
}
