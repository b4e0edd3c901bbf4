package serial

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// DataBits is the character size of the link.
type DataBits int

// StopBits selects one or two stop bits.
type StopBits int

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

// Parity selects the parity mode of the link.
type Parity int

const (
	NoParity Parity = iota
	OddParity
	EvenParity
)

func (p Parity) String() string {
	switch p {
	case NoParity:
		return "none"
	case OddParity:
		return "odd"
	case EvenParity:
		return "even"
	default:
		return "Parity(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseParity accepts "none", "odd" or "even" (case-insensitive).
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(s) {
	case "none", "n":
		return NoParity, nil
	case "odd", "o":
		return OddParity, nil
	case "even", "e":
		return EvenParity, nil
	}
	return 0, fmt.Errorf("unknown parity %q", s)
}

// ParseStopBits accepts 1 or 2.
func ParseStopBits(n int) (StopBits, error) {
	switch n {
	case 1:
		return OneStopBit, nil
	case 2:
		return TwoStopBits, nil
	}
	return 0, fmt.Errorf("unsupported stop bits %d", n)
}

var baudRates = map[int]uint32{
	50:     unix.B50,
	110:    unix.B110,
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// SupportedBaudRates returns the accepted baud rates in ascending order.
func SupportedBaudRates() []int {
	rates := make([]int, 0, len(baudRates))
	for r := range baudRates {
		rates = append(rates, r)
	}
	sort.Ints(rates)
	return rates
}

// ParseBaudRate converts a decimal baud argument into a supported rate.
func ParseBaudRate(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBaud, s)
	}
	if _, ok := baudRates[n]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBaud, n)
	}
	return n, nil
}

func baudToUnix(baud int) (uint32, error) {
	b, ok := baudRates[baud]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBaud, baud)
	}
	return b, nil
}

func dataBitsToUnix(bits DataBits) (uint32, error) {
	switch bits {
	case 5:
		return unix.CS5, nil
	case 6:
		return unix.CS6, nil
	case 7:
		return unix.CS7, nil
	case 8:
		return unix.CS8, nil
	}
	return 0, fmt.Errorf("unsupported data bits %d", bits)
}

// withDefaults fills zero framing fields with 8N1.
func (c Config) withDefaults() Config {
	if c.DataBits == 0 {
		c.DataBits = 8
	}
	return c
}

// termiosFor builds the complete attribute structure for cfg. Every field
// not named here is left zero: no input, output or local processing.
func termiosFor(cfg Config) (*unix.Termios, error) {
	baud, err := baudToUnix(cfg.BaudRate)
	if err != nil {
		return nil, err
	}
	size, err := dataBitsToUnix(cfg.DataBits)
	if err != nil {
		return nil, err
	}

	t := &unix.Termios{}
	t.Cflag = baud | size | unix.CLOCAL | unix.CREAD

	switch cfg.StopBits {
	case OneStopBit:
	case TwoStopBits:
		t.Cflag |= unix.CSTOPB
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", cfg.StopBits)
	}

	switch cfg.Parity {
	case NoParity:
	case OddParity:
		t.Cflag |= unix.PARENB | unix.PARODD
	case EvenParity:
		t.Cflag |= unix.PARENB
	default:
		return nil, fmt.Errorf("unsupported parity %v", cfg.Parity)
	}

	if cfg.HardwareFlowControl {
		t.Cflag |= unix.CRTSCTS
	}

	// Return as soon as one byte is available.
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
	return t, nil
}
