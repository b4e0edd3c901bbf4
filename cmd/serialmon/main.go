// serialmon is an interactive monitor for a serial link.
//
//	serialmon [flags] <tty port> <baud>
//
// It prints every received byte, writes a keep-alive message every five
// seconds and sends a fixed message for each bound key (a and b by
// default). ESC closes the port, restoring its original settings, and
// exits. Any startup failure exits with status 1.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	serial "github.com/luhtfiimanal/serialmon"
	"github.com/luhtfiimanal/serialmon/console"
	"github.com/luhtfiimanal/serialmon/monitor"
)

// maxIdle bounds one idle wait; a cooked-mode terminal only reports
// readiness per line, so keys are probed at least this often.
const maxIdle = 50 * time.Millisecond

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stdout io.Writer, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	if opts.help {
		return nil
	}
	if opts.list {
		return listPorts(stdout)
	}

	logger := newLogger(stderr, opts.logLevel)

	keys, err := console.Open(int(stdin.Fd()))
	if err != nil {
		return err
	}

	session, err := serial.Open(opts.serial)
	if err != nil {
		return err
	}
	logger.Debug("serial port open",
		"device", opts.serial.Device,
		"baud", opts.serial.BaudRate,
		"data_bits", opts.serial.DataBits,
		"stop_bits", int(opts.serial.StopBits)+1,
		"parity", opts.serial.Parity,
		"hw_flow", opts.serial.HardwareFlowControl,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := monitor.New(session, keys, monitor.Config{
		Interval:  opts.interval,
		KeepAlive: opts.keepAlive,
		ExitKey:   opts.exitKey,
		Commands:  opts.commands,
		OnReceive: byteReporter(stdout),
		Idle:      monitor.NewPollWaiter(maxIdle, session.Fd(), keys.Fd()),
		Logger:    logger,
	})

	fmt.Fprintf(stdout, "\nwaiting for serial data on %s at %d baud, press %s to exit....\n\n",
		opts.serial.Device, opts.serial.BaudRate, keyName(opts.exitKey))

	err = m.Run(ctx)
	fmt.Fprintf(stdout, "\nexiting program\n\n")
	return err
}

func keyName(key byte) string {
	if key == monitor.ExitKey {
		return "ESC"
	}
	return strconv.QuoteRuneToASCII(rune(key))
}
