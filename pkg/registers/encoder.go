// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registers

import (
	"errors"
	"fmt"

	"github.com/Thermoquad/thermoprof/pkg/console"
	"github.com/rs/zerolog"
)

// Commander sends one console line and waits for the device prompt.
// *console.Console and *Recorder implement it.
type Commander interface {
	SendCommand(line string) (console.Result, error)
}

// Write describes one register write and its outcome.
type Write struct {
	Address Address
	Value   uint16
	Result  console.Result
}

// WriteHook observes every register write.
type WriteHook func(Write)

// Encoder translates typed values into register write commands.
// Each register is written with one `wr <addr> <value>` command and
// synchronized on the device prompt before the next one is sent.
type Encoder struct {
	cmd    Commander
	strict bool
	hook   WriteHook
	log    zerolog.Logger
}

// Option is a functional option for configuring the Encoder.
type Option func(*Encoder)

// WithStrict makes timeouts and device faults fail the write with *AckError.
// By default they are reported to the hook and logging only.
func WithStrict(strict bool) Option {
	return func(e *Encoder) {
		e.strict = strict
	}
}

// WithWriteHook sets a function called after every register write.
func WithWriteHook(hook WriteHook) Option {
	return func(e *Encoder) {
		e.hook = hook
	}
}

// WithLogger sets the logger for register writes.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Encoder) {
		e.log = logger
	}
}

// NewEncoder creates an Encoder writing through cmd.
func NewEncoder(cmd Commander, opts ...Option) *Encoder {
	if cmd == nil {
		panic("registers: commander cannot be nil")
	}
	e := &Encoder{
		cmd: cmd,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FormatWrite returns the console line that writes value to addr.
func FormatWrite(addr Address, value uint16) string {
	return fmt.Sprintf("wr %d %d", addr, value)
}

// WriteU16 writes a 16-bit value into a single register.
func (e *Encoder) WriteU16(addr Address, value int64) error {
	if err := checkAddress(addr, 1); err != nil {
		return err
	}
	if value < 0 || value > MaxU16Value {
		return &RangeError{Kind: KindU16, Address: addr, Value: value, Max: MaxU16Value}
	}
	return e.write(addr, uint16(value))
}

// WriteU32 writes a value into two consecutive registers: the low 16 bits
// at addr and value>>8 at addr+1.
//
// The 8-bit shift for the high register is what the device firmware
// expects. It is not the conventional >>16; keep it as is.
func (e *Encoder) WriteU32(addr Address, value int64) error {
	if err := checkAddress(addr, 2); err != nil {
		return err
	}
	if value < 0 || value > MaxU32Value {
		return &RangeError{Kind: KindU32, Address: addr, Value: value, Max: MaxU32Value}
	}

	lo, hi := SplitU32(uint32(value))
	if err := e.write(addr, lo); err != nil {
		return err
	}
	return e.write(addr+1, uint16(hi))
}

// WriteString packs text two bytes per register and writes ceil(len/2)
// registers starting at addr. Padding to the field width is the caller's
// job; text is never truncated.
func (e *Encoder) WriteString(addr Address, text string) error {
	regs, n, err := PackString(text)
	if err != nil {
		var rangeErr *RangeError
		if errors.As(err, &rangeErr) {
			rangeErr.Address = addr
		}
		return err
	}
	if err := checkAddress(addr, n); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		if err := e.write(addr+Address(i), regs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Command writes c to the command register and returns the raw result.
// Strict mode does not apply: a reboot, for one, never answers.
func (e *Encoder) Command(c DeviceCommand) (console.Result, error) {
	line := FormatWrite(CommandRegister, uint16(c))
	e.log.Info().Str("command", c.String()).Str("line", line).Msg("device command")

	res, err := e.cmd.SendCommand(line)
	if err != nil {
		return res, fmt.Errorf("command %s: %w", c, err)
	}
	return res, nil
}

func (e *Encoder) write(addr Address, value uint16) error {
	res, err := e.cmd.SendCommand(FormatWrite(addr, value))
	if err != nil {
		return fmt.Errorf("write register %d: %w", addr, err)
	}

	e.log.Debug().
		Uint32("addr", uint32(addr)).
		Uint16("value", value).
		Str("status", res.Status.String()).
		Msg("register write")

	if e.hook != nil {
		e.hook(Write{Address: addr, Value: value, Result: res})
	}
	if e.strict && !res.OK() {
		return &AckError{Address: addr, Value: value, Result: res}
	}
	return nil
}

// checkAddress verifies that count registers starting at addr are writable.
func checkAddress(addr Address, count int) error {
	last := int64(addr) + int64(count) - 1
	if addr < CommandRegister {
		return &RangeError{Kind: KindAddress, Value: int64(addr), Min: int64(CommandRegister), Max: int64(MaxAddress)}
	}
	if last > int64(MaxAddress) {
		return &RangeError{Kind: KindAddress, Value: last, Min: int64(CommandRegister), Max: int64(MaxAddress)}
	}
	return nil
}
