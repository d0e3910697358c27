package device

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"rfidmusic/internal/evdev"
)

// ErrPermission marks a probe failure the caller should surface with an
// access remediation rather than treat as an idle device.
var ErrPermission = errors.New("permission denied opening device")

// Probe verifies a located device actually emits events. It opens the path
// and waits up to timeout for readability using poll(2), then consumes one
// record to confirm. That consumed record is a one-time cost of probing.
//
// A quiet device inside the timeout reports (false, nil): the reader may
// simply have nothing in front of it. Only open and read failures are errors.
func Probe(path string, timeout time.Duration) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return false, fmt.Errorf("%w: %s", ErrPermission, path)
		}
		return false, fmt.Errorf("open device: %w", err)
	}
	defer file.Close()

	ready, err := waitReadable(int(file.Fd()), timeout)
	if err != nil {
		return false, fmt.Errorf("poll device: %w", err)
	}
	if !ready {
		return false, nil
	}

	buf := make([]byte, evdev.EventSize)
	if _, err := file.Read(buf); err != nil {
		return false, fmt.Errorf("read device: %w", err)
	}
	return true, nil
}

// waitReadable polls the descriptor for input, retrying on EINTR with the
// remaining budget so the probe duration stays bounded.
func waitReadable(fd int, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, int(remaining.Milliseconds())+1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return false, err
		}
		if n == 0 {
			return false, nil
		}
		return fds[0].Revents&unix.POLLIN != 0, nil
	}
}
