package serial

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	// ErrCannotOpen is returned by Open when the device cannot be opened
	// or configured.
	ErrCannotOpen = errors.New("cannot open serial device")
	// ErrInvalidBaud is returned for a baud rate outside SupportedBaudRates.
	ErrInvalidBaud = errors.New("invalid baud rate")
	// ErrIO wraps read and write failures other than "no data available".
	ErrIO = errors.New("serial i/o failure")
	// ErrClosed is returned by Read and Write after Close.
	ErrClosed = errors.New("serial session closed")
)

// Config holds configuration parameters for opening a serial port.
// Zero DataBits means 8; the zero values of the other framing fields
// are one stop bit, no parity and no hardware flow control.
type Config struct {
	Device              string
	BaudRate            int
	DataBits            DataBits
	StopBits            StopBits
	Parity              Parity
	HardwareFlowControl bool
}

// Session is an open, non-blocking serial device. It restores the
// device's original attributes when closed.
//
// A Session is meant to be driven from a single goroutine; only Close
// is safe to call concurrently.
type Session struct {
	fd        int
	config    Config
	original  *unix.Termios
	done      chan struct{}
	closeOnce sync.Once
}

// Open opens cfg.Device for non-blocking read-write access without
// making it the controlling terminal, snapshots its attributes and
// applies the requested framing in a single attribute write.
func Open(cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	termios, err := termiosFor(cfg)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCannotOpen, cfg.Device, err)
	}

	original, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s: get termios: %v", ErrCannotOpen, cfg.Device, err)
	}

	if err := configure(fd, termios); err != nil {
		// Put back whatever we may have changed before giving up.
		unix.IoctlSetTermios(fd, unix.TCSETS, original)
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s: %v", ErrCannotOpen, cfg.Device, err)
	}

	return &Session{
		fd:       fd,
		config:   cfg,
		original: original,
		done:     make(chan struct{}),
	}, nil
}

// configure discards stale bytes on both sides of the attribute write
// and leaves fd non-blocking.
func configure(fd int, termios *unix.Termios) error {
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("set nonblock: %w", err)
	}
	return nil
}

// Device returns the path the session was opened with.
func (s *Session) Device() string { return s.config.Device }

// Config returns the framing applied at open time.
func (s *Session) Config() Config { return s.config }

// Fd returns the underlying file descriptor for readiness polling.
// It must not be read, written or closed directly.
func (s *Session) Fd() int { return s.fd }

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Read reads up to len(p) bytes. It returns 0 and a nil error when no
// data is currently available.
func (s *Session) Read(p []byte) (int, error) {
	if s.closed() {
		return 0, ErrClosed
	}
	n, err := unix.Read(s.fd, p)
	if err != nil {
		if wouldBlock(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: read %s: %v", ErrIO, s.config.Device, err)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// Write writes up to len(p) bytes and returns how many were accepted.
// A short count, including 0 when the device is momentarily unwritable,
// is not an error; the caller decides whether to resend the remainder.
func (s *Session) Write(p []byte) (int, error) {
	if s.closed() {
		return 0, ErrClosed
	}
	n, err := unix.Write(s.fd, p)
	if err != nil {
		if wouldBlock(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: write %s: %v", ErrIO, s.config.Device, err)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// Close restores the attributes captured at open and releases the
// device. Safe to call multiple times; subsequent calls are no-ops.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if rerr := unix.IoctlSetTermios(s.fd, unix.TCSETS, s.original); rerr != nil {
			err = fmt.Errorf("restore termios: %w", rerr)
		}
		if cerr := unix.Close(s.fd); cerr != nil && err == nil {
			err = fmt.Errorf("close: %w", cerr)
		}
	})
	return err
}

func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
}
