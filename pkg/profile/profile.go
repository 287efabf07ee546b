// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/thermoprof/pkg/registers"
)

// Layout constants
const (
	NameSize      = registers.StringBytes
	StagesPerSlot = 3
	MaxProfiles   = 10

	NameRegisters    = registers.StringRegisters
	StageRegisters   = 6
	ProfileRegisters = NameRegisters + StageRegisters*StagesPerSlot
)

// Stage is one phase of a thermal profile.
type Stage struct {
	TemperatureC    uint16 `yaml:"temperature_c"`
	DurationS       uint32 `yaml:"duration_s"`
	FanPeriodS      uint32 `yaml:"fan_period_s"`
	FanDutyCyclePct uint16 `yaml:"fan_duty_cycle_pct"`
}

// IsZero reports whether the stage is unused.
func (s Stage) IsZero() bool {
	return s == Stage{}
}

// Profile is a named thermal process definition.
type Profile struct {
	Name   string               `yaml:"name"`
	Stages [StagesPerSlot]Stage `yaml:"stages"`
}

// RegisterWriter is the subset of *registers.Encoder the layout needs.
type RegisterWriter interface {
	WriteU16(addr registers.Address, value int64) error
	WriteU32(addr registers.Address, value int64) error
	WriteString(addr registers.Address, text string) error
}

// PadName NUL-pads name to the fixed name width.
func PadName(name string) (string, error) {
	if len(name) > NameSize {
		return "", fmt.Errorf("name %q is %d bytes, max %d", name, len(name), NameSize)
	}
	return name + strings.Repeat("\x00", NameSize-len(name)), nil
}

// Write encodes the profile at addr: the padded name, then each stage as
// temperature (u16), duration (u32), fan period (u32), fan duty (u16).
// The returned address is always addr + ProfileRegisters.
func (p Profile) Write(w RegisterWriter, addr registers.Address) (registers.Address, error) {
	name, err := PadName(p.Name)
	if err != nil {
		return addr, err
	}
	if err := w.WriteString(addr, name); err != nil {
		return addr, fmt.Errorf("name: %w", err)
	}
	addr += NameRegisters

	for i, s := range p.Stages {
		if err := s.write(w, addr); err != nil {
			return addr, fmt.Errorf("stage %d: %w", i, err)
		}
		addr += StageRegisters
	}
	return addr, nil
}

func (s Stage) write(w RegisterWriter, addr registers.Address) error {
	if err := w.WriteU16(addr, int64(s.TemperatureC)); err != nil {
		return fmt.Errorf("temperature: %w", err)
	}
	if err := w.WriteU32(addr+1, int64(s.DurationS)); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	if err := w.WriteU32(addr+3, int64(s.FanPeriodS)); err != nil {
		return fmt.Errorf("fan period: %w", err)
	}
	if err := w.WriteU16(addr+5, int64(s.FanDutyCyclePct)); err != nil {
		return fmt.Errorf("fan duty cycle: %w", err)
	}
	return nil
}

// WriteAll writes profiles back to back starting at base and returns the
// address following the last one.
func WriteAll(w RegisterWriter, base registers.Address, profiles []Profile) (registers.Address, error) {
	addr := base
	for i, p := range profiles {
		next, err := p.Write(w, addr)
		if err != nil {
			return addr, fmt.Errorf("profile %d (%q): %w", i, p.Name, err)
		}
		addr = next
	}
	return addr, nil
}

// stageFields names the registers of a stage in layout order.
var stageFields = [StageRegisters]string{
	"temperature_c",
	"duration_s.lo",
	"duration_s.hi",
	"fan_period_s.lo",
	"fan_period_s.hi",
	"fan_duty_cycle_pct",
}

// FieldName names the register at offset within a profile,
// e.g. "name[3]" or "stage[1].fan_period_s.hi".
func FieldName(offset int) string {
	switch {
	case offset < 0 || offset >= ProfileRegisters:
		return ""
	case offset < NameRegisters:
		return fmt.Sprintf("name[%d]", offset)
	default:
		offset -= NameRegisters
		return fmt.Sprintf("stage[%d].%s", offset/StageRegisters, stageFields[offset%StageRegisters])
	}
}
