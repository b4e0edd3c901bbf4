package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	serial "github.com/luhtfiimanal/serialmon"
	"github.com/luhtfiimanal/serialmon/monitor"
)

var errUsage = errors.New("usage: serialmon [flags] <tty port> <baud>")

// options is the fully resolved invocation: defaults, then the profile
// file, then flags given on the command line.
type options struct {
	serial    serial.Config
	interval  time.Duration
	keepAlive []byte
	exitKey   byte
	commands  monitor.CommandTable
	logLevel  slog.Level
	list      bool
	help      bool
}

// flagValues holds the settings a profile may provide when the
// matching flag was not given.
type flagValues struct {
	dataBits  int
	stopBits  int
	parity    string
	hwFlow    bool
	interval  time.Duration
	keepAlive []byte
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	var (
		fv         flagValues
		keepAlive  string
		configPath string
		logLevel   string
		list       bool
	)

	flagSet := pflag.NewFlagSet("serialmon", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.IntVar(&fv.dataBits, "data-bits", 8, "data bits (5-8)")
	flagSet.IntVar(&fv.stopBits, "stop-bits", 1, "stop bits (1 or 2)")
	flagSet.StringVar(&fv.parity, "parity", "none", "parity: none, odd or even")
	flagSet.BoolVar(&fv.hwFlow, "hw-flow", false, "enable RTS/CTS hardware flow control")
	flagSet.DurationVar(&fv.interval, "interval", monitor.DefaultInterval, "keep-alive period")
	flagSet.StringVar(&keepAlive, "keepalive", strconv.Quote(string(monitor.DefaultKeepAlive)), "keep-alive payload, Go string escapes allowed")
	flagSet.StringVar(&configPath, "config", "", "YAML profile with framing, keep-alive and key bindings")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flagSet.BoolVar(&list, "list", false, "list serial ports and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "%v\n\nBaud rates: %v\n\nFlags:\n", errUsage, serial.SupportedBaudRates())
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return &options{help: true}, nil
		}
		return nil, err
	}

	opts := &options{list: list}
	if err := opts.logLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	if list {
		return opts, nil
	}

	if flagSet.NArg() != 2 {
		return nil, errUsage
	}
	baud, err := serial.ParseBaudRate(flagSet.Arg(1))
	if err != nil {
		return nil, err
	}

	payload, err := unescape(keepAlive)
	if err != nil {
		return nil, fmt.Errorf("--keepalive: %w", err)
	}
	fv.keepAlive = []byte(payload)
	opts.exitKey = monitor.ExitKey
	opts.commands = monitor.DefaultCommands()

	if configPath != "" {
		profile, err := loadProfile(configPath)
		if err != nil {
			return nil, err
		}
		if err := profile.apply(flagSet, &fv, opts); err != nil {
			return nil, fmt.Errorf("%s: %w", configPath, err)
		}
	}

	if fv.dataBits < 5 || fv.dataBits > 8 {
		return nil, fmt.Errorf("unsupported data bits %d", fv.dataBits)
	}
	stop, err := serial.ParseStopBits(fv.stopBits)
	if err != nil {
		return nil, err
	}
	par, err := serial.ParseParity(fv.parity)
	if err != nil {
		return nil, err
	}
	if fv.interval <= 0 {
		return nil, fmt.Errorf("keep-alive interval must be positive, got %v", fv.interval)
	}
	if len(fv.keepAlive) == 0 {
		return nil, fmt.Errorf("keep-alive payload must not be empty")
	}
	opts.interval = fv.interval
	opts.keepAlive = fv.keepAlive

	opts.serial = serial.Config{
		Device:              flagSet.Arg(0),
		BaudRate:            baud,
		DataBits:            serial.DataBits(fv.dataBits),
		StopBits:            stop,
		Parity:              par,
		HardwareFlowControl: fv.hwFlow,
	}
	return opts, nil
}

// unescape interprets Go string escapes such as \r or \x02. A value
// already in double quotes is taken as a Go string literal.
func unescape(s string) (string, error) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strconv.Unquote(s)
	}
	return strconv.Unquote(`"` + s + `"`)
}
