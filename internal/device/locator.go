package device

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"rfidmusic/internal/logging"
)

// Descriptor identifies a located input device for one acquisition attempt.
type Descriptor struct {
	Path string
	Name string
}

var handlerPattern = regexp.MustCompile(`H: Handlers=.*?(event\d+)`)
var namePattern = regexp.MustCompile(`N: Name="([^"]*)"`)

// Locator discovers the reader's event device by matching known hardware
// signatures against the kernel's input device registry, falling back to the
// stable by-id symlinks, and finally enumerating candidate paths for the
// operator without selecting one.
type Locator struct {
	patterns     []*regexp.Regexp
	enumerateMax int
	logger       *slog.Logger

	// Overridable for tests.
	registryPath string
	byIDDir      string
	devDir       string
}

// NewLocator compiles the signature patterns case-insensitively. The pattern
// list is data, not logic: supporting a new reader means adding an entry.
func NewLocator(patterns []string, enumerateMax int, logger *slog.Logger) (*Locator, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("compile reader pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return &Locator{
		patterns:     compiled,
		enumerateMax: enumerateMax,
		logger:       logging.NewComponentLogger(logger, "locator"),
		registryPath: "/proc/bus/input/devices",
		byIDDir:      "/dev/input/by-id",
		devDir:       "/dev/input",
	}, nil
}

// Locate returns zero or one descriptor. Each layer is independent and tried
// in order; a miss on every layer is not an error.
func (l *Locator) Locate() (*Descriptor, bool) {
	if desc, ok := l.fromRegistry(); ok {
		return desc, true
	}
	if desc, ok := l.fromByID(); ok {
		return desc, true
	}
	l.enumerateCandidates()
	return nil, false
}

// fromRegistry scans the textual device registry, one blank-line-separated
// block per device, for a signature match and extracts its event handler.
func (l *Locator) fromRegistry() (*Descriptor, bool) {
	content, err := os.ReadFile(l.registryPath)
	if err != nil {
		l.logger.Warn("cannot read input device registry",
			logging.Error(err),
			logging.String("path", l.registryPath),
		)
		return nil, false
	}

	for _, block := range strings.Split(string(content), "\n\n") {
		if !l.matchesAny(block) {
			continue
		}
		handler := handlerPattern.FindStringSubmatch(block)
		if handler == nil {
			continue
		}
		path := filepath.Join(l.devDir, handler[1])
		if _, err := os.Stat(path); err != nil {
			continue
		}
		desc := &Descriptor{Path: path}
		if name := namePattern.FindStringSubmatch(block); name != nil {
			desc.Name = name[1]
		}
		l.logger.Info("reader found in device registry",
			logging.String(logging.FieldDevice, desc.Path),
			logging.String("name", desc.Name),
		)
		return desc, true
	}
	return nil, false
}

// fromByID scans the stable-identity symlink directory and resolves a match
// to its real device path.
func (l *Locator) fromByID() (*Descriptor, bool) {
	entries, err := os.ReadDir(l.byIDDir)
	if err != nil {
		return nil, false
	}
	for _, entry := range entries {
		if !l.matchesAny(entry.Name()) {
			continue
		}
		link := filepath.Join(l.byIDDir, entry.Name())
		real, err := filepath.EvalSymlinks(link)
		if err != nil {
			l.logger.Warn("cannot resolve by-id entry",
				logging.Error(err),
				logging.String("path", link),
			)
			continue
		}
		l.logger.Info("reader found via by-id",
			logging.String(logging.FieldDevice, real),
			logging.String("entry", entry.Name()),
		)
		return &Descriptor{Path: real, Name: entry.Name()}, true
	}
	return nil, false
}

// enumerateCandidates logs existing event devices for operator inspection.
// Nothing is selected automatically.
func (l *Locator) enumerateCandidates() {
	l.logger.Warn("reader auto-detection failed, listing candidate devices",
		logging.String(logging.FieldEventType, "locator_miss"),
		logging.String(logging.FieldErrorHint, "identify the reader with evtest and set reader.device in the config"),
	)
	for i := 0; i < l.enumerateMax; i++ {
		path := filepath.Join(l.devDir, fmt.Sprintf("event%d", i))
		if _, err := os.Stat(path); err == nil {
			l.logger.Info("candidate device", logging.String(logging.FieldDevice, path))
		}
	}
}

func (l *Locator) matchesAny(text string) bool {
	for _, re := range l.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
