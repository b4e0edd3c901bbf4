package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/luhtfiimanal/serialmon/monitor"
)

// profile is the on-disk YAML configuration. Every field is optional;
// flags given on the command line win over the profile.
//
//	data_bits: 7
//	stop_bits: 1
//	parity: even
//	hardware_flow_control: false
//	keepalive:
//	  interval: 10s
//	  payload: "AT+PING\r"
//	exit_key: "q"
//	commands:
//	  s: "STATUS\r\n"
//	  a: ""          # unbind a default key
type profile struct {
	DataBits            *int    `yaml:"data_bits"`
	StopBits            *int    `yaml:"stop_bits"`
	Parity              *string `yaml:"parity"`
	HardwareFlowControl *bool   `yaml:"hardware_flow_control"`
	KeepAlive           struct {
		Interval *time.Duration `yaml:"interval"`
		Payload  *string        `yaml:"payload"`
	} `yaml:"keepalive"`
	ExitKey  string            `yaml:"exit_key"`
	Commands map[string]string `yaml:"commands"`
}

func loadProfile(path string) (*profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p profile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		// An empty file decodes to io.EOF; treat it as "no settings".
		if len(bytes.TrimSpace(data)) == 0 {
			return &p, nil
		}
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &p, nil
}

// apply copies profile settings into fv for every flag the user did not
// set, and merges the key bindings into opts.
func (p *profile) apply(flagSet *pflag.FlagSet, fv *flagValues, opts *options) error {
	if p.DataBits != nil && !flagSet.Changed("data-bits") {
		fv.dataBits = *p.DataBits
	}
	if p.StopBits != nil && !flagSet.Changed("stop-bits") {
		fv.stopBits = *p.StopBits
	}
	if p.Parity != nil && !flagSet.Changed("parity") {
		fv.parity = *p.Parity
	}
	if p.HardwareFlowControl != nil && !flagSet.Changed("hw-flow") {
		fv.hwFlow = *p.HardwareFlowControl
	}
	if p.KeepAlive.Interval != nil && !flagSet.Changed("interval") {
		fv.interval = *p.KeepAlive.Interval
	}
	if p.KeepAlive.Payload != nil && !flagSet.Changed("keepalive") {
		fv.keepAlive = []byte(*p.KeepAlive.Payload)
	}

	if p.ExitKey != "" {
		if len(p.ExitKey) != 1 {
			return fmt.Errorf("exit_key must be a single byte, got %q", p.ExitKey)
		}
		if p.ExitKey[0] == 0 {
			return fmt.Errorf("exit_key must not be NUL")
		}
		opts.exitKey = p.ExitKey[0]
	}

	bindings := make(monitor.CommandTable, len(p.Commands))
	for key, payload := range p.Commands {
		if len(key) != 1 {
			return fmt.Errorf("command key must be a single byte, got %q", key)
		}
		bindings[key[0]] = []byte(payload)
	}
	opts.commands = opts.commands.Merge(bindings)
	if _, ok := opts.commands.Lookup(opts.exitKey); ok {
		return fmt.Errorf("exit key %q is also bound to a command", opts.exitKey)
	}
	return nil
}
