// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/Thermoquad/thermoprof/pkg/registers"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTable []byte

// Table is the set of profiles written to a device.
type Table struct {
	Profiles []Profile `yaml:"profiles"`
}

// Registers returns the number of registers the table occupies.
func (t *Table) Registers() int {
	return len(t.Profiles) * ProfileRegisters
}

// Parse decodes a YAML profile table and validates it.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse profile table: %w", err)
	}
	if err := Validate(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads and validates a YAML profile table from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile table: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in profile table.
func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("profile: embedded table invalid: %v", err))
	}
	return t
}

// Validate checks that every profile can be encoded.
// It does not modify the table.
func Validate(t *Table) error {
	if len(t.Profiles) > MaxProfiles {
		return fmt.Errorf("%d profiles defined, device holds at most %d", len(t.Profiles), MaxProfiles)
	}

	for i, p := range t.Profiles {
		if len(p.Name) > NameSize {
			return fmt.Errorf("profile %d (%q): name is %d bytes, max %d", i, p.Name, len(p.Name), NameSize)
		}
		if strings.IndexByte(p.Name, 0) >= 0 {
			return fmt.Errorf("profile %d (%q): name must not contain NUL bytes", i, p.Name)
		}

		for j, s := range p.Stages {
			if s.DurationS > registers.MaxU32Value {
				return fmt.Errorf("profile %d (%q) stage %d: duration_s %d exceeds %d",
					i, p.Name, j, s.DurationS, registers.MaxU32Value)
			}
			if s.FanPeriodS > registers.MaxU32Value {
				return fmt.Errorf("profile %d (%q) stage %d: fan_period_s %d exceeds %d",
					i, p.Name, j, s.FanPeriodS, registers.MaxU32Value)
			}
			if s.FanDutyCyclePct > 100 {
				return fmt.Errorf("profile %d (%q) stage %d: fan_duty_cycle_pct %d exceeds 100",
					i, p.Name, j, s.FanDutyCyclePct)
			}
		}
	}
	return nil
}
