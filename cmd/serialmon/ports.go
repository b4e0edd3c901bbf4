package main

import (
	"fmt"
	"io"

	goserial "go.bug.st/serial"
)

func listPorts(w io.Writer) error {
	ports, err := goserial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found")
		return nil
	}
	for _, port := range ports {
		fmt.Fprintf(w, "Found port: %v\n", port)
	}
	return nil
}
