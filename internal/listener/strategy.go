package listener

import (
	"errors"
	"log/slog"
	"time"

	"rfidmusic/internal/device"
	"rfidmusic/internal/logging"
)

// Strategy names an acquisition source. It is chosen once at startup and
// never changes for the life of the process.
type Strategy string

const (
	// StrategyDevice reads raw input events from the located reader.
	StrategyDevice Strategy = "device"
	// StrategyStdin reads characters from standard input, for readers that
	// present as plain keyboards or when no device is usable.
	StrategyStdin Strategy = "stdin"
)

// Selection records the chosen strategy and, for device reads, the reader.
type Selection struct {
	Strategy Strategy
	Device   *device.Descriptor
	Reason   string
}

type selector struct {
	forced       string
	probeTimeout time.Duration
	locate       func() (*device.Descriptor, bool)
	probe        func(path string, timeout time.Duration) (bool, error)
	logger       *slog.Logger
}

// selectStrategy picks the acquisition source. A located or forced device is
// probed for liveness; anything short of a confirmed readable device falls
// back to stdin. The probe never runs when no device was found.
func (s *selector) selectStrategy() Selection {
	desc, found := s.locateDevice()
	if !found {
		s.logger.Info("no reader located, falling back to stdin",
			logging.String(logging.FieldStrategy, string(StrategyStdin)),
		)
		return Selection{Strategy: StrategyStdin, Reason: "no reader located"}
	}

	alive, err := s.probe(desc.Path, s.probeTimeout)
	if err != nil {
		if errors.Is(err, device.ErrPermission) {
			s.logger.Warn("no permission to read reader device, falling back to stdin",
				logging.Error(err),
				logging.String(logging.FieldDevice, desc.Path),
				logging.String(logging.FieldErrorHint, "add the user to the input group or run with elevated privileges"),
			)
			return Selection{Strategy: StrategyStdin, Device: desc, Reason: "permission denied"}
		}
		s.logger.Warn("reader probe failed, falling back to stdin",
			logging.Error(err),
			logging.String(logging.FieldDevice, desc.Path),
		)
		return Selection{Strategy: StrategyStdin, Device: desc, Reason: "probe failed"}
	}
	if !alive {
		s.logger.Warn("reader produced no events during probe, falling back to stdin",
			logging.String(logging.FieldDevice, desc.Path),
			logging.String(logging.FieldErrorHint, "scan a tag while probing to confirm the device, or check the reader mode"),
		)
		return Selection{Strategy: StrategyStdin, Device: desc, Reason: "probe timed out"}
	}

	s.logger.Info("reading scans from device",
		logging.String(logging.FieldStrategy, string(StrategyDevice)),
		logging.String(logging.FieldDevice, desc.Path),
		logging.String("device_name", desc.Name),
	)
	return Selection{Strategy: StrategyDevice, Device: desc}
}

func (s *selector) locateDevice() (*device.Descriptor, bool) {
	if s.forced != "" {
		s.logger.Info("using configured reader device, skipping discovery",
			logging.String(logging.FieldDevice, s.forced),
		)
		return &device.Descriptor{Path: s.forced, Name: "configured"}, true
	}
	return s.locate()
}
