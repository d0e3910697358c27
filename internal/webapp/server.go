package webapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"rfidmusic/internal/config"
	"rfidmusic/internal/logging"
	"rfidmusic/internal/store"
)

// PlaybackService triggers playback on the remote host. A nil service means
// playback is disabled and scans only resolve mappings.
type PlaybackService interface {
	Play(ctx context.Context, rfid, musicDir string) error
}

// Server is the mapping web service: it accepts scans from the listener,
// owns the RFID-to-directory mappings, and exposes a JSON API for
// assignment. Only one instance may run per database; a file lock enforces
// that.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	playback PlaybackService
	logger   *slog.Logger

	lockPath string
	lock     *flock.Flock

	server   *http.Server
	listener net.Listener
	stopOnce sync.Once

	mu      sync.Mutex
	pending []string
}

// New constructs the web service.
func New(cfg *config.Config, st *store.Store, playback PlaybackService, logger *slog.Logger) (*Server, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("webapp requires config and store")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "rfidmusic-web.lock")
	s := &Server{
		cfg:      cfg,
		store:    st,
		playback: playback,
		logger:   logging.NewComponentLogger(logger, "webapp"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/scan", s.handleScan)
	mux.HandleFunc("/api/mappings", s.handleMappings)
	mux.HandleFunc("/api/mappings/", s.handleMappingItem)
	mux.HandleFunc("/api/directories", s.handleDirectories)
	mux.HandleFunc("/api/pending", s.handlePending)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Start acquires the instance lock and begins serving. Shutdown is tied to
// ctx cancellation.
func (s *Server) Start(ctx context.Context) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire web lock: %w", err)
	}
	if !ok {
		return errors.New("another rfidmusic web instance is already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Paths.WebBind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("web listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("web service listening",
		logging.String("address", listener.Addr().String()),
		logging.String("database", s.store.Path()),
	)
	return nil
}

// Stop shuts the server down and releases the instance lock. Safe to call
// more than once; only the first call does the work.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		if s.listener != nil {
			_ = s.listener.Close()
		}
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release web lock", logging.Error(err))
		}
	})
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler exposes the route mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) pushPending(rfid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, rfid)
}

func (s *Server) popPending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return ""
	}
	rfid := s.pending[0]
	s.pending = s.pending[1:]
	return rfid
}
