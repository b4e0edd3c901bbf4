// Package console detects single key presses on a terminal without
// leaving it in raw mode.
//
// Each KeyAvailable call switches the terminal to non-canonical,
// non-echoing, non-blocking input, tries to read one byte and puts the
// previous mode back before returning. A byte found this way is held
// back so that the following ConsumeKey returns it.
package console

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNotTerminal is returned by Open when fd does not refer to a terminal.
var ErrNotTerminal = errors.New("console is not a terminal")

// Console probes one terminal file descriptor, normally stdin.
// It is not safe for concurrent use.
type Console struct {
	fd      int
	pending []byte
	read    func(fd int, p []byte) (int, error)
}

// Open wraps fd. The descriptor stays owned by the caller.
func Open(fd int) (*Console, error) {
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%w: fd %d", ErrNotTerminal, fd)
	}
	return &Console{fd: fd, read: unix.Read}, nil
}

// Fd returns the wrapped descriptor for readiness polling.
func (c *Console) Fd() int { return c.fd }

// KeyAvailable reports whether a key press is waiting. The terminal
// mode in effect on entry is restored on every return path.
func (c *Console) KeyAvailable() (ok bool, err error) {
	if len(c.pending) > 0 {
		return true, nil
	}

	restore, err := c.makeRaw()
	if err != nil {
		return false, err
	}
	defer func() {
		if rerr := restore(); rerr != nil && err == nil {
			ok, err = false, rerr
		}
	}()

	var b [1]byte
	n, err := c.read(c.fd, b[:])
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, fmt.Errorf("read console: %w", err)
	}
	if n <= 0 {
		return false, nil
	}
	c.pending = append(c.pending, b[0])
	return true, nil
}

// ConsumeKey returns the key found by KeyAvailable. Without a pending
// key it performs an ordinary blocking read in the current mode.
func (c *Console) ConsumeKey() (byte, error) {
	if len(c.pending) > 0 {
		b := c.pending[0]
		c.pending = c.pending[1:]
		return b, nil
	}

	var b [1]byte
	for {
		n, err := c.read(c.fd, b[:])
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read console: %w", err)
		}
		if n <= 0 {
			return 0, io.EOF
		}
		return b[0], nil
	}
}

// makeRaw puts the terminal into polling mode and returns the function
// that undoes it.
func (c *Console) makeRaw() (func() error, error) {
	saved, err := unix.IoctlGetTermios(c.fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("get termios: %w", err)
	}
	flags, err := unix.FcntlInt(uintptr(c.fd), unix.F_GETFL, 0)
	if err != nil {
		return nil, fmt.Errorf("get flags: %w", err)
	}

	restore := func() error {
		var errs []error
		if err := unix.IoctlSetTermios(c.fd, unix.TCSETS, saved); err != nil {
			errs = append(errs, fmt.Errorf("restore termios: %w", err))
		}
		if _, err := unix.FcntlInt(uintptr(c.fd), unix.F_SETFL, flags); err != nil {
			errs = append(errs, fmt.Errorf("restore flags: %w", err))
		}
		return errors.Join(errs...)
	}

	raw := *saved
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(c.fd, unix.TCSETS, &raw); err != nil {
		restore()
		return nil, fmt.Errorf("set termios: %w", err)
	}
	if _, err := unix.FcntlInt(uintptr(c.fd), unix.F_SETFL, flags|unix.O_NONBLOCK); err != nil {
		restore()
		return nil, fmt.Errorf("set flags: %w", err)
	}
	return restore, nil
}
