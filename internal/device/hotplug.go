package device

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"rfidmusic/internal/logging"
)

// HotplugWatcher listens for udev netlink add events on the input subsystem
// and logs when a device matching the reader signatures appears. Strategy
// re-selection is deliberately not attempted; the log tells the operator a
// restart will pick the device up.
type HotplugWatcher struct {
	patterns []*regexp.Regexp
	logger   *slog.Logger

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewHotplugWatcher compiles the signature patterns case-insensitively.
func NewHotplugWatcher(patterns []string, logger *slog.Logger) (*HotplugWatcher, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &HotplugWatcher{
		patterns: compiled,
		logger:   logging.NewComponentLogger(logger, "hotplug"),
	}, nil
}

// Start begins listening for udev events. A netlink connection failure is
// non-fatal: the listener works without hotplug awareness.
func (w *HotplugWatcher) Start(ctx context.Context) {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		w.logger.Warn("cannot connect to netlink socket",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldImpact, "reader attach events will not be reported"),
		)
		return
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true

	quit := w.quit
	go w.watch(ctx, quit)

	w.logger.Debug("hotplug watcher started")
}

// Stop shuts down the watcher.
func (w *HotplugWatcher) Stop() {
	if w == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false
}

func (w *HotplugWatcher) watch(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, w.buildMatcher())
	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(uevent)
		case err := <-errs:
			w.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

func (w *HotplugWatcher) buildMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "input",
		},
	})
	return rules
}

func (w *HotplugWatcher) handleEvent(uevent netlink.UEvent) {
	var sb strings.Builder
	for key, value := range uevent.Env {
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(value)
		sb.WriteByte('\n')
	}
	metadata := sb.String()

	for _, re := range w.patterns {
		if re.MatchString(metadata) {
			w.logger.Info("matching reader attached",
				logging.String(logging.FieldEventType, "reader_attached"),
				logging.String(logging.FieldDevice, uevent.Env["DEVNAME"]),
				logging.String(logging.FieldErrorHint, "restart the listener to switch to device input"),
			)
			return
		}
	}
}
