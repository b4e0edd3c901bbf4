package monitor

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// PollWaiter blocks until one of its descriptors is readable or the
// timeout passes, whichever comes first. Timeouts are capped at a
// maximum so that a terminal in canonical mode, which only reports
// readiness per line, is still probed regularly.
type PollWaiter struct {
	fds     []int
	maxIdle time.Duration
}

// NewPollWaiter watches fds for input, waiting at most maxIdle per call.
func NewPollWaiter(maxIdle time.Duration, fds ...int) *PollWaiter {
	return &PollWaiter{fds: fds, maxIdle: maxIdle}
}

// Wait implements Waiter.
func (w *PollWaiter) Wait(timeout time.Duration) error {
	if timeout > w.maxIdle {
		timeout = w.maxIdle
	}
	if timeout < 0 {
		timeout = 0
	}
	ms := int(timeout / time.Millisecond)
	if ms == 0 && timeout > 0 {
		ms = 1
	}

	pfds := make([]unix.PollFd, len(w.fds))
	for i, fd := range w.fds {
		pfds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}

	n, err := unix.Poll(pfds, ms)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return nil
	}
	for _, p := range pfds {
		if p.Revents&unix.POLLIN != 0 {
			return nil
		}
	}
	// Only hang-up or error conditions: they stay set and would make
	// every poll return at once.
	time.Sleep(timeout)
	return nil
}
