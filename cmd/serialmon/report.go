package main

import (
	"fmt"
	"io"
	"strconv"
)

// byteReporter prints every received byte as hex and as a quoted character.
func byteReporter(w io.Writer) func(b byte) {
	return func(b byte) {
		fmt.Fprintf(w, "Receiving data : 0x%02x %s\n", b, strconv.QuoteRuneToASCII(rune(b)))
	}
}
