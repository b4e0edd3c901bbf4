// Package monitor runs the interactive serial monitor loop.
//
// A single goroutine services three sources in turn on every iteration:
// inbound device bytes, the keep-alive timer and the keyboard. None of
// them blocks; between iterations the loop may park in a Waiter until
// one of the descriptors becomes readable or the timer is due.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultInterval is the keep-alive period.
	DefaultInterval = 5 * time.Second
	// DefaultReadSize bounds the bytes drained from the device per iteration.
	DefaultReadSize = 95
	// ExitKey is the default key that ends the loop (ESC).
	ExitKey byte = 0x1b
)

// DefaultKeepAlive is the message sent on every timer tick.
var DefaultKeepAlive = []byte("AT\r")

// State is the loop state.
type State int

const (
	Running State = iota
	Exiting
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Exiting:
		return "exiting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Port is the serial device. Read and Write return 0 with a nil error
// when nothing can be transferred right now.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Keyboard is the operator's key source.
type Keyboard interface {
	KeyAvailable() (bool, error)
	ConsumeKey() (byte, error)
}

// Waiter parks the loop between iterations for at most timeout.
type Waiter interface {
	Wait(timeout time.Duration) error
}

// Config holds the loop parameters. Zero values select the defaults.
type Config struct {
	// Interval is the keep-alive period.
	Interval time.Duration
	// KeepAlive is written to the device on every timer tick.
	KeepAlive []byte
	// ExitKey ends the loop. Zero means ESC.
	ExitKey byte
	// Commands maps other keys to outbound payloads.
	Commands CommandTable
	// ReadSize bounds a single device read.
	ReadSize int
	// OnReceive is called once per inbound byte, in arrival order.
	OnReceive func(b byte)
	// Clock drives the keep-alive timer.
	Clock Clock
	// Idle parks the loop between iterations. Nil means no wait.
	Idle   Waiter
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.KeepAlive == nil {
		c.KeepAlive = DefaultKeepAlive
	}
	if c.ExitKey == 0 {
		c.ExitKey = ExitKey
	}
	if c.Commands == nil {
		c.Commands = DefaultCommands()
	}
	if c.ReadSize <= 0 {
		c.ReadSize = DefaultReadSize
	}
	if c.OnReceive == nil {
		c.OnReceive = func(byte) {}
	}
	if c.Clock == nil {
		c.Clock = RealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Monitor owns a Port for the duration of Run and closes it on exit.
type Monitor struct {
	port   Port
	keys   Keyboard
	config Config
	logger *slog.Logger

	timer *Timer
	state State
	buf   []byte

	readFailures int
}

// New creates a Monitor in the Running state. The keep-alive period
// starts now.
func New(port Port, keys Keyboard, cfg Config) *Monitor {
	cfg = cfg.withDefaults()
	return &Monitor{
		port:   port,
		keys:   keys,
		config: cfg,
		logger: cfg.Logger,
		timer:  NewTimer(cfg.Clock, cfg.Interval),
		state:  Running,
		buf:    make([]byte, cfg.ReadSize),
	}
}

// State returns the current loop state.
func (m *Monitor) State() State { return m.state }

// Run services the device, the timer and the keyboard until the exit
// key is pressed or ctx is cancelled, then closes the port. I/O errors
// inside the loop are logged and do not stop it.
func (m *Monitor) Run(ctx context.Context) error {
	for m.state == Running {
		if err := ctx.Err(); err != nil {
			m.logger.Info("monitor cancelled", "reason", err)
			m.state = Exiting
			break
		}

		m.step()

		if m.state == Running && m.config.Idle != nil {
			if err := m.config.Idle.Wait(m.timer.Remaining()); err != nil {
				m.logger.Error("idle wait failed", "error", err)
			}
		}
	}

	if err := m.port.Close(); err != nil {
		return fmt.Errorf("close port: %w", err)
	}
	return nil
}

// step runs one iteration: device, timer, keyboard.
func (m *Monitor) step() {
	m.pollDevice()
	m.pollTimer()
	m.pollKeyboard()
}

func (m *Monitor) pollDevice() {
	n, err := m.port.Read(m.buf)
	if err != nil {
		// Log the first failure of a run loudly; a dead device would
		// otherwise repeat it on every iteration.
		if m.readFailures == 0 {
			m.logger.Error("read failed", "error", err)
		} else {
			m.logger.Debug("read failed", "error", err, "consecutive", m.readFailures+1)
		}
		m.readFailures++
		return
	}
	if m.readFailures > 0 && n > 0 {
		m.logger.Info("device readable again", "failures", m.readFailures)
		m.readFailures = 0
	}
	for _, b := range m.buf[:n] {
		m.config.OnReceive(b)
	}
}

func (m *Monitor) pollTimer() {
	if !m.timer.Check() {
		return
	}
	m.send("keepalive", m.config.KeepAlive)
}

func (m *Monitor) pollKeyboard() {
	ok, err := m.keys.KeyAvailable()
	if err != nil {
		m.logger.Error("keyboard probe failed", "error", err)
		return
	}
	if !ok {
		return
	}

	key, err := m.keys.ConsumeKey()
	if err != nil {
		m.logger.Error("keyboard read failed", "error", err)
		return
	}

	if key == m.config.ExitKey {
		m.logger.Debug("exit key pressed")
		m.state = Exiting
		return
	}

	payload, ok := m.config.Commands.Lookup(key)
	if !ok {
		return
	}
	m.send(fmt.Sprintf("key %q", key), payload)
}

// send writes payload once. A short write is reported, not retried.
func (m *Monitor) send(source string, payload []byte) {
	n, err := m.port.Write(payload)
	switch {
	case err != nil:
		m.logger.Error("write failed", "source", source, "error", err)
	case n < len(payload):
		m.logger.Warn("short write", "source", source, "written", n, "requested", len(payload))
	default:
		m.logger.Info("sent", "source", source, "bytes", n)
	}
}
