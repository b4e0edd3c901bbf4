// Package serial provides a minimal, Linux-only serial session for
// interactive monitoring of a point-to-point link.
//
// A Session opens the device non-blocking, snapshots its attributes,
// applies the requested framing in one attribute write and restores the
// snapshot when closed. Reads and writes never block: "nothing to read"
// and "cannot write right now" are reported as a zero count with a nil
// error, so a session can be polled next to other event sources.
//
// Features:
//   - Raw syscall-based serial I/O on Linux, no buffering
//   - Baud rates 50 to 115200, 5-8 data bits, 1 or 2 stop bits,
//     none/odd/even parity, optional RTS/CTS flow control
//   - Idempotent Close that puts the original attributes back
//   - PTY-based tests for reliability
//
// This package does **not** support Windows.
//
// Example usage:
//
//	s, err := serial.Open(serial.Config{
//	    Device:   "/dev/ttyUSB0",
//	    BaudRate: 9600,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	buf := make([]byte, 95)
//	n, err := s.Read(buf)
//	if err != nil {
//	    log.Println("Read error:", err)
//	}
//	for _, b := range buf[:n] {
//	    fmt.Printf("0x%02x\n", b)
//	}
//
// The monitor subpackage drives a Session together with a keep-alive
// timer and keyboard commands.
package serial
