// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package console

import (
	"bytes"
	"time"
)

const (
	DefaultPrompt        = '>'
	DefaultTerminator    = "\r"
	DefaultPromptTimeout = 2 * time.Second
)

// Status tells whether the device answered with its prompt.
type Status int

const (
	StatusAck Status = iota
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusAck:
		return "ACK"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Fault is the device's textual complaint about a command, printed before
// the prompt.
type Fault int

const (
	FaultNone Fault = iota
	FaultInvalidArgument
	FaultFailed
	FaultUnknownCommand
)

// Firmware messages, as printed by the console before the prompt.
var faultMessages = []struct {
	fault Fault
	text  []byte
}{
	{FaultInvalidArgument, []byte("Incorrect arg!")},
	{FaultFailed, []byte("Failed!")},
	{FaultUnknownCommand, []byte("CMD not found!")},
}

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultInvalidArgument:
		return "invalid argument"
	case FaultFailed:
		return "failed"
	case FaultUnknownCommand:
		return "unknown command"
	default:
		return "unknown"
	}
}

func classifyFault(response []byte) Fault {
	for _, m := range faultMessages {
		if bytes.Contains(response, m.text) {
			return m.fault
		}
	}
	return FaultNone
}

// Result is the outcome of one command exchange.
type Result struct {
	Command  string
	Status   Status
	Fault    Fault
	Response []byte
	Elapsed  time.Duration
}

// OK reports whether the prompt came back without a device fault.
func (r Result) OK() bool {
	return r.Status == StatusAck && r.Fault == FaultNone
}
