package listener

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
	"unicode"

	"github.com/google/uuid"

	"rfidmusic/internal/config"
	"rfidmusic/internal/device"
	"rfidmusic/internal/evdev"
	"rfidmusic/internal/logging"
	"rfidmusic/internal/scan"
	"rfidmusic/internal/services"
	"rfidmusic/internal/services/mapper"
)

// Deliverer hands validated identifiers to the mapping web service.
type Deliverer interface {
	WaitReady(ctx context.Context) error
	Submit(ctx context.Context, rfid string) (*mapper.ScanResult, error)
}

// Listener owns the acquisition pipeline: it selects a scan source at
// startup, assembles keystrokes into identifiers, validates them, and
// delivers accepted scans to the mapping web service.
type Listener struct {
	cfg       *config.Config
	deliverer Deliverer
	logger    *slog.Logger
	validator *scan.Validator

	// Test seams. Defaults read the real device registry and stdin.
	locate     func() (*device.Descriptor, bool)
	probe      func(path string, timeout time.Duration) (bool, error)
	openDevice func(path string) (io.ReadCloser, error)
	stdin      io.Reader
	newWatcher func() (*device.HotplugWatcher, error)
}

// New builds a listener from configuration. The deliverer is required.
func New(cfg *config.Config, deliverer Deliverer, logger *slog.Logger) (*Listener, error) {
	if cfg == nil || deliverer == nil {
		return nil, errors.New("listener requires config and deliverer")
	}

	componentLogger := logging.NewComponentLogger(logger, "listener")
	locator, err := device.NewLocator(cfg.Reader.Patterns, cfg.Reader.EnumerateMax, componentLogger)
	if err != nil {
		return nil, fmt.Errorf("build locator: %w", err)
	}

	l := &Listener{
		cfg:       cfg,
		deliverer: deliverer,
		logger:    componentLogger,
		validator: scan.NewValidator(cfg.Scan.MinLength, cfg.Scan.MaxLength, cfg.Scan.DedupWindow(), componentLogger),
		locate:    locator.Locate,
		probe:     device.Probe,
		openDevice: func(path string) (io.ReadCloser, error) {
			return os.Open(path)
		},
		stdin: os.Stdin,
		newWatcher: func() (*device.HotplugWatcher, error) {
			return device.NewHotplugWatcher(cfg.Reader.Patterns, componentLogger)
		},
	}
	return l, nil
}

// Run blocks until ctx is cancelled or the scan source becomes permanently
// unreadable. It waits for the mapping web service before reading anything
// so early scans are not lost to a consumer that is still starting.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.deliverer.WaitReady(ctx); err != nil {
		return fmt.Errorf("wait for consumer: %w", err)
	}

	sel := l.selector().selectStrategy()
	runCtx := services.WithStrategy(ctx, string(sel.Strategy))

	assembler := scan.NewAssembler(l.cfg.Scan.Debounce(), func(candidate string) {
		l.handleCandidate(runCtx, candidate)
	})
	defer assembler.Stop()

	if sel.Strategy == StrategyStdin && l.cfg.Reader.HotplugWatch {
		if watcher, err := l.newWatcher(); err != nil {
			l.logger.Warn("hotplug watcher unavailable", logging.Error(err))
		} else {
			watcher.Start(ctx)
			defer watcher.Stop()
		}
	}

	switch sel.Strategy {
	case StrategyDevice:
		return l.deviceLoop(runCtx, assembler, sel.Device.Path)
	default:
		return l.stdinLoop(runCtx, assembler)
	}
}

func (l *Listener) selector() *selector {
	return &selector{
		forced:       l.cfg.Reader.Device,
		probeTimeout: time.Duration(l.cfg.Reader.ProbeTimeout) * time.Second,
		locate:       l.locate,
		probe:        l.probe,
		logger:       l.logger,
	}
}

// deviceLoop reads fixed-size input events from the reader. Short reads are
// discarded without buffering; only key presses that translate through the
// keycode table reach the assembler.
func (l *Listener) deviceLoop(ctx context.Context, assembler *scan.Assembler, path string) error {
	source, err := l.openDevice(path)
	if err != nil {
		return fmt.Errorf("open reader device: %w", err)
	}
	defer source.Close()

	// Closing the source is the only way to unblock a pending read. The
	// derived context releases the closer goroutine when the loop exits on
	// its own, not just on cancellation.
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-loopCtx.Done()
		source.Close()
	}()

	buf := make([]byte, evdev.EventSize)
	for {
		n, err := source.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reader device unreadable: %w", err)
		}
		event, ok := evdev.Decode(buf[:n])
		if !ok {
			continue
		}
		if token, ok := evdev.Translate(event); ok {
			assembler.Push(token)
		}
	}
}

// stdinLoop reads characters one at a time, treating newline and carriage
// return as terminators. EOF means the source is gone for good.
func (l *Listener) stdinLoop(ctx context.Context, assembler *scan.Assembler) error {
	type input struct {
		ch  rune
		err error
	}
	inputs := make(chan input)
	go func() {
		reader := bufio.NewReader(l.stdin)
		for {
			ch, _, err := reader.ReadRune()
			select {
			case inputs <- input{ch: ch, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case in := <-inputs:
			if in.err != nil {
				if errors.Is(in.err, io.EOF) {
					return errors.New("stdin closed")
				}
				return fmt.Errorf("stdin unreadable: %w", in.err)
			}
			switch {
			case in.ch == '\n' || in.ch == '\r':
				assembler.PushTerminator()
			case unicode.IsControl(in.ch):
				// Other control characters never occur in identifiers.
			default:
				assembler.PushChar(in.ch)
			}
		}
	}
}

// handleCandidate validates an assembled identifier and delivers it. Delivery
// failures are logged and dropped; the next scan is a natural retry.
func (l *Listener) handleCandidate(ctx context.Context, candidate string) {
	validated, ok := l.validator.Validate(candidate)
	if !ok {
		return
	}

	scanID := uuid.NewString()
	scanLogger := l.logger.With(
		logging.String(logging.FieldScanID, scanID),
		logging.String(logging.FieldRFID, validated.RFID),
	)
	result, err := l.deliverer.Submit(services.WithScanID(ctx, scanID), validated.RFID)
	if err != nil {
		scanLogger.Warn("scan delivery failed, dropping",
			logging.Error(err),
			logging.String(logging.FieldImpact, "scan lost, rescan the tag once the service recovers"),
		)
		return
	}
	if result.Mapped {
		scanLogger.Info("scan delivered",
			logging.String("music_dir", result.MusicDir),
			logging.Bool("playback_triggered", result.PlaybackTriggered),
		)
		return
	}
	scanLogger.Info("scan delivered but unmapped, awaiting assignment",
		logging.String("message", result.Message),
	)
}
