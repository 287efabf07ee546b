// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/thermoprof/pkg/console"
	"github.com/Thermoquad/thermoprof/pkg/profile"
	"github.com/Thermoquad/thermoprof/pkg/provision"
	"github.com/Thermoquad/thermoprof/pkg/registers"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeviceCommand(t *testing.T) {
	tests := []struct {
		name string
		want registers.DeviceCommand
	}{
		{"nop", registers.CmdNop},
		{"reboot", registers.CmdReboot},
		{"ERASE", registers.CmdEraseFlash},
		{"crc", registers.CmdUpdateCRC},
	}
	for _, tt := range tests {
		c, err := parseDeviceCommand(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, c)
	}

	_, err := parseDeviceCommand("format")
	assert.Error(t, err)
}

func TestPlanLines(t *testing.T) {
	table := profile.Default()

	lines, err := planLines(table, registers.ProfilesBase)
	require.NoError(t, err)
	require.Len(t, lines, table.Registers()+4)
	assert.Equal(t, []string{"", "wr 7 2", "wr 8 29284"}, lines[:3])
	assert.Equal(t, []string{"wr 7 3", "wr 7 1"}, lines[len(lines)-2:])

	_, err = planLines(table, registers.MaxAddress)
	var rangeErr *registers.RangeError
	assert.True(t, errors.As(err, &rangeErr))
}

func TestDescribeLine(t *testing.T) {
	table := profile.Default()
	base := registers.ProfilesBase

	tests := []struct {
		line string
		want string
	}{
		{"", "wake"},
		{"wr 7 2", "ERASE_FLASH"},
		{"wr 7 1", "REBOOT"},
		{"wr 8 29284", `profile 0 "drying_water" name[0]`},
		{"wr 19 0", `profile 0 "drying_water" stage[0].duration_s.hi`},
		{"wr 45 300", `profile 1 "mask_begin" stage[0].duration_s.lo`},
		{"wr 115 0", `profile 3 "" stage[2].fan_duty_cycle_pct`},
		{"wr 116 0", ""},
		{"rd 8", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describeLine(tt.line, table, base), "line %q", tt.line)
	}
}

func TestFormatResult(t *testing.T) {
	out := formatResult(console.Result{
		Command:  "wr 600 1",
		Status:   console.StatusAck,
		Fault:    console.FaultInvalidArgument,
		Response: []byte("wr 600 1\r\nIncorrect arg!\r\n\r\n"),
		Elapsed:  12 * time.Millisecond,
	})

	assert.Contains(t, out, "> wr 600 1\n")
	assert.Contains(t, out, "status: ACK (12ms), device error: invalid argument")
	assert.Contains(t, out, "| Incorrect arg!")
	assert.NotContains(t, out, "| wr 600 1")
}

func TestRenderTable(t *testing.T) {
	out := renderTable(profile.Default(), "built-in", registers.ProfilesBase)

	assert.Contains(t, out, "drying_water")
	assert.Contains(t, out, "mask_end")
	assert.Contains(t, out, "(empty)")
	assert.Contains(t, out, "8..34")
	assert.Contains(t, out, "89..115")
	assert.Contains(t, out, "4m0s")
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug"))
	assert.NoError(t, setupLogging("warn"))
	assert.Error(t, setupLogging("loud"))
}

func TestLogRelay_DropsWhenFull(t *testing.T) {
	relay := newLogRelay()
	for i := 0; i < cap(relay.lines)+10; i++ {
		n, err := relay.Write([]byte("line\n"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	}
	assert.Len(t, relay.lines, cap(relay.lines))
	assert.Equal(t, logLineMsg("line"), relay.listen()())
}

func TestIsWarningLine(t *testing.T) {
	assert.True(t, isWarningLine("12:00:00 WRN no prompt cmd=\"wr 8 1\""))
	assert.True(t, isWarningLine("12:00:00 ERR failed"))
	assert.False(t, isWarningLine("12:00:00 INF writing profile"))
}

func TestProvisionModel(t *testing.T) {
	cancelled := false
	m := initialProvisionModel("Serial: test", profile.Default(), func() { cancelled = true }, newLogRelay())

	next, _ := m.Update(provisionProgressMsg(provision.Progress{
		Phase:          provision.PhaseWriting,
		Profile:        1,
		Register:       30,
		TotalRegisters: 108,
		Percentage:     28.6,
	}))
	m = next.(provisionModel)
	assert.Contains(t, m.View(), `1 "mask_begin"`)
	assert.Contains(t, m.View(), "30/108")

	// Quitting before the run is done cancels it instead
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(provisionModel)
	assert.True(t, cancelled)
	assert.Nil(t, cmd)
	assert.False(t, m.quitting)

	next, _ = m.Update(provisionDoneMsg{err: context.Canceled})
	m = next.(provisionModel)
	assert.True(t, m.done)
	assert.Contains(t, m.View(), "Provisioning failed")

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(provisionModel)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.True(t, strings.TrimSpace(m.View()) == "")
}

func TestLineWriter(t *testing.T) {
	var out strings.Builder
	stamp := time.Date(2025, 1, 1, 12, 30, 15, 250e6, time.UTC)
	lw := &lineWriter{out: &out, now: func() time.Time { return stamp }}

	lw.Write([]byte("wr 8 2"))
	lw.Write([]byte("9284\r\n\r\n>"))
	assert.Equal(t, "[12:30:15.250] wr 8 29284\n[12:30:15.250] \n", out.String())

	lw.Flush()
	assert.Equal(t, "[12:30:15.250] wr 8 29284\n[12:30:15.250] \n[12:30:15.250] >\n", out.String())

	lw.Flush()
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
}
