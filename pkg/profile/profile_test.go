// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Thermoquad/thermoprof/pkg/registers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dryingWater = Profile{
	Name: "drying_water",
	Stages: [StagesPerSlot]Stage{
		{TemperatureC: 60, DurationS: 240, FanPeriodS: 60, FanDutyCyclePct: 50},
	},
}

func TestProfileWrite_DryingWater(t *testing.T) {
	rec := &registers.Recorder{}
	next, err := dryingWater.Write(registers.NewEncoder(rec), registers.ProfilesBase)
	require.NoError(t, err)
	assert.Equal(t, registers.Address(35), next)

	want := []string{
		// "drying_water" padded to 18 bytes, 9 registers
		"wr 8 29284",
		"wr 9 27001",
		"wr 10 26478",
		"wr 11 30559",
		"wr 12 29793",
		"wr 13 29285",
		"wr 14 0",
		"wr 15 0",
		"wr 16 0",
		// stage 1
		"wr 17 60",
		"wr 18 240",
		"wr 19 0", // 240>>8
		"wr 20 60",
		"wr 21 0", // 60>>8
		"wr 22 50",
	}
	// stages 2 and 3 are empty
	for addr := 23; addr <= 34; addr++ {
		want = append(want, fmt.Sprintf("wr %d 0", addr))
	}

	assert.Equal(t, want, rec.Lines)
}

func TestProfileWrite_StrideIsFixed(t *testing.T) {
	profiles := []Profile{
		{},
		dryingWater,
		{Name: "x"},
		{Name: "eighteen_bytes_max", Stages: [StagesPerSlot]Stage{
			{TemperatureC: 0xFFFF, DurationS: registers.MaxU32Value, FanPeriodS: registers.MaxU32Value, FanDutyCyclePct: 100},
			{TemperatureC: 0xFFFF, DurationS: registers.MaxU32Value, FanPeriodS: registers.MaxU32Value, FanDutyCyclePct: 100},
			{TemperatureC: 0xFFFF, DurationS: registers.MaxU32Value, FanPeriodS: registers.MaxU32Value, FanDutyCyclePct: 100},
		}},
	}

	for _, p := range profiles {
		t.Run(fmt.Sprintf("%q", p.Name), func(t *testing.T) {
			rec := &registers.Recorder{}
			next, err := p.Write(registers.NewEncoder(rec), 100)
			require.NoError(t, err)
			assert.Equal(t, registers.Address(100+ProfileRegisters), next)
			assert.Len(t, rec.Lines, ProfileRegisters)
			assert.Equal(t, 27, ProfileRegisters)
		})
	}
}

func TestProfileWrite_NameTooLong(t *testing.T) {
	rec := &registers.Recorder{}
	_, err := Profile{Name: "this_name_is_too_long"}.Write(registers.NewEncoder(rec), 8)
	require.Error(t, err)
	assert.Empty(t, rec.Lines)
}

func TestWriteAll(t *testing.T) {
	rec := &registers.Recorder{}
	table := Default()

	end, err := WriteAll(registers.NewEncoder(rec), registers.ProfilesBase, table.Profiles)
	require.NoError(t, err)
	assert.Equal(t, registers.ProfilesBase+registers.Address(4*ProfileRegisters), end)
	assert.Len(t, rec.Lines, table.Registers())

	// mask_begin stage 1 duration: 300 -> lo 300, hi 300>>8
	assert.Equal(t, "wr 45 300", rec.Lines[37])
	assert.Equal(t, "wr 46 1", rec.Lines[38])
}

func TestWriteAll_ErrorNamesProfile(t *testing.T) {
	rec := &registers.Recorder{}
	profiles := []Profile{dryingWater, {Name: "bad", Stages: [StagesPerSlot]Stage{{DurationS: registers.MaxU32Value + 1}}}}

	end, err := WriteAll(registers.NewEncoder(rec), registers.ProfilesBase, profiles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `profile 1 ("bad")`)
	assert.Contains(t, err.Error(), "stage 0: duration")
	assert.Equal(t, registers.Address(35), end)
}

func TestPadName(t *testing.T) {
	padded, err := PadName("mask_end")
	require.NoError(t, err)
	assert.Len(t, padded, NameSize)
	assert.Equal(t, "mask_end\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00", padded)

	padded, err = PadName("")
	require.NoError(t, err)
	assert.Len(t, padded, NameSize)

	_, err = PadName("nineteen_characters")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	table := Default()
	require.Len(t, table.Profiles, 4)

	assert.Equal(t, dryingWater, table.Profiles[0])
	assert.Equal(t, "mask_begin", table.Profiles[1].Name)
	assert.Equal(t, Stage{TemperatureC: 70, DurationS: 600, FanPeriodS: 120, FanDutyCyclePct: 10}, table.Profiles[1].Stages[1])
	assert.Equal(t, "mask_end", table.Profiles[2].Name)
	assert.Equal(t, "", table.Profiles[3].Name)
	for _, s := range table.Profiles[3].Stages {
		assert.True(t, s.IsZero())
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid",
			yaml: `
profiles:
  - name: bake
    stages:
      - {temperature_c: 120, duration_s: 900, fan_period_s: 30, fan_duty_cycle_pct: 20}
      - {}
      - {}
`,
		},
		{
			name: "wrong stage count",
			yaml: `
profiles:
  - name: bake
    stages:
      - {temperature_c: 120}
`,
			wantErr: "parse profile table",
		},
		{
			name: "temperature overflows u16",
			yaml: `
profiles:
  - name: bake
    stages: [{temperature_c: 70000}, {}, {}]
`,
			wantErr: "parse profile table",
		},
		{
			name: "duration not representable",
			yaml: `
profiles:
  - name: bake
    stages: [{duration_s: 16777216}, {}, {}]
`,
			wantErr: "duration_s 16777216 exceeds",
		},
		{
			name: "fan period not representable",
			yaml: `
profiles:
  - name: bake
    stages: [{}, {fan_period_s: 20000000}, {}]
`,
			wantErr: "stage 1: fan_period_s",
		},
		{
			name: "duty above 100",
			yaml: `
profiles:
  - name: bake
    stages: [{}, {}, {fan_duty_cycle_pct: 101}]
`,
			wantErr: "fan_duty_cycle_pct 101",
		},
		{
			name: "name too long",
			yaml: `
profiles:
  - name: nineteen_characters
`,
			wantErr: "name is 19 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse([]byte(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, table.Profiles, 1)
			assert.Equal(t, uint32(900), table.Profiles[0].Stages[0].DurationS)
		})
	}
}

func TestValidate_TooManyProfiles(t *testing.T) {
	table := &Table{Profiles: make([]Profile, MaxProfiles+1)}
	err := Validate(table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 10")

	table.Profiles = table.Profiles[:MaxProfiles]
	assert.NoError(t, Validate(table))
}

func TestValidate_NulInName(t *testing.T) {
	err := Validate(&Table{Profiles: []Profile{{Name: "a\x00b"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NUL")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, defaultTable, 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), table)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFieldName(t *testing.T) {
	tests := []struct {
		offset int
		want   string
	}{
		{0, "name[0]"},
		{8, "name[8]"},
		{9, "stage[0].temperature_c"},
		{10, "stage[0].duration_s.lo"},
		{11, "stage[0].duration_s.hi"},
		{14, "stage[0].fan_duty_cycle_pct"},
		{18, "stage[1].fan_period_s.lo"},
		{26, "stage[2].fan_duty_cycle_pct"},
		{27, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FieldName(tt.offset), "offset %d", tt.offset)
	}
}
