package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"scrollwatch/internal/domain"
)

// StateSource provides the snapshot sent to a client when it connects
type StateSource interface {
	Settings() domain.Settings
	Chains() []domain.Chain
}

// Server serves the live scroll state feed over websocket
type Server struct {
	logger *slog.Logger
	hub    *Hub
	source StateSource
}

// ServerConfig configures NewServer
type ServerConfig struct {
	Hub HubConfig
}

// NewServer constructs the feed server. Call Register on a mux, start Hub().Run(ctx)
// and a Broadcaster.
func NewServer(logger *slog.Logger, source StateSource, cfg ServerConfig) *Server {
	return &Server{
		logger: logger,
		hub:    NewHub(logger, cfg.Hub),
		source: source,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Register registers the websocket handler on mux
func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleFeed)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("feed upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)

	// Queue the snapshot before registering so it is the first frame the client sees.
	if s.source != nil {
		msg, err := marshal(outboundEvent{Type: TypeStateInit, Data: s.snapshot()})
		if err != nil {
			s.logger.Warn("feed snapshot marshal failed", "error", err)
		} else {
			client.send <- msg
		}
	}

	s.hub.register <- client

	// The pumps outlive the request; the hub and connection errors end them.
	go client.writePump(context.Background())
	go client.readPump(context.Background())
}

func (s *Server) snapshot() StateInitData {
	chains := s.source.Chains()
	data := StateInitData{
		WindowMS: s.source.Settings().Window.Milliseconds(),
		Surfaces: make([]SampleData, 0, len(chains)),
	}
	for _, c := range chains {
		sd := sampleData(c.Surface, c.State)
		sd.Samples = c.Samples
		data.Surfaces = append(data.Surfaces, sd)
	}
	return data
}

// ListenAndServe serves handler on addr until ctx is canceled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	logger.Info("feed server listening", "addr", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("feed server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("feed server shutdown: %w", err)
		}
		<-errCh
		return nil

	case err := <-errCh:
		return err
	}
}
