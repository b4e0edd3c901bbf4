package monitor_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	serial "github.com/luhtfiimanal/serialmon"
	"github.com/luhtfiimanal/serialmon/monitor"
)

// scriptedKeys presses the exit key once ready reports true.
type scriptedKeys struct {
	ready   func() bool
	pressed bool
}

func (k *scriptedKeys) KeyAvailable() (bool, error) {
	return !k.pressed && k.ready(), nil
}

func (k *scriptedKeys) ConsumeKey() (byte, error) {
	k.pressed = true
	return monitor.ExitKey, nil
}

func TestMonitor_SessionEndToEnd(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	before, err := unix.IoctlGetTermios(int(slave.Fd()), unix.TCGETS)
	require.NoError(t, err)

	session, err := serial.Open(serial.Config{
		Device:   slave.Name(),
		BaudRate: 9600,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	})
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	var events []string
	keys := &scriptedKeys{ready: func() bool { return len(events) >= 2 }}

	m := monitor.New(session, keys, monitor.Config{
		OnReceive: func(b byte) { events = append(events, fmt.Sprintf("0x%02x", b)) },
		Idle:      monitor.NewPollWaiter(10*time.Millisecond, session.Fd()),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err = master.Write([]byte{0x41, 0x42})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for monitor to exit")
	}

	require.Equal(t, []string{"0x41", "0x42"}, events)
	require.Equal(t, monitor.Exiting, m.State())

	_, err = session.Read(make([]byte, 1))
	require.ErrorIs(t, err, serial.ErrClosed)

	after, err := unix.IoctlGetTermios(int(slave.Fd()), unix.TCGETS)
	require.NoError(t, err)
	require.Equal(t, *before, *after)
}

func TestMonitor_KeepAliveReachesDevice(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	session, err := serial.Open(serial.Config{Device: slave.Name(), BaudRate: 115200})
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	received := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 16)
		n, err := master.Read(buf)
		if err != nil {
			return
		}
		received <- buf[:n]
	}()

	var stop atomic.Bool
	keys := &scriptedKeys{ready: stop.Load}
	m := monitor.New(session, keys, monitor.Config{
		Interval: 20 * time.Millisecond,
		Idle:     monitor.NewPollWaiter(5*time.Millisecond, session.Fd()),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case b := <-received:
		require.Equal(t, "AT\r", string(b))
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for keep-alive")
	}

	stop.Store(true)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for monitor to exit")
	}
}
