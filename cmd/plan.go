// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	"github.com/Thermoquad/thermoprof/pkg/profile"
	"github.com/Thermoquad/thermoprof/pkg/provision"
	"github.com/Thermoquad/thermoprof/pkg/registers"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the console commands a provisioning run would send",
	Long: `Dry run of "provision": validates the profile table and prints every
console line in order, annotated with the register it writes.

No connection is opened.

Exit codes:
  0 - Table is valid and fits the register space
  1 - Table is invalid`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addTableFlags(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	table, source, err := loadTable()
	if err != nil {
		return err
	}

	base := registers.Address(baseAddress)
	lines, err := planLines(table, base)
	if err != nil {
		return err
	}

	fmt.Printf("Thermoprof - Provisioning Plan\n")
	fmt.Printf("Profiles: %d (%s), %d registers from address %d\n\n",
		len(table.Profiles), source, table.Registers(), base)

	for i, line := range lines {
		shown := line
		if shown == "" {
			shown = "<CR>"
		}
		fmt.Printf("%4d  %-18s %s\n", i+1, shown, describeLine(line, table, base))
	}
	return nil
}

// planLines records the lines of a provisioning run without a device.
func planLines(table *profile.Table, base registers.Address) ([]string, error) {
	rec := &registers.Recorder{}
	seq := provision.New(rec,
		provision.WithBaseAddress(base),
		provision.WithSettleDelay(0),
	)
	if _, err := seq.Run(context.Background(), table.Profiles); err != nil {
		return nil, err
	}
	return rec.Lines, nil
}

// describeLine annotates a planned console line.
func describeLine(line string, table *profile.Table, base registers.Address) string {
	if line == "" {
		return "wake"
	}

	var addr registers.Address
	var value uint16
	if _, err := fmt.Sscanf(line, "wr %d %d", &addr, &value); err != nil {
		return ""
	}
	if addr == registers.CommandRegister {
		return registers.DeviceCommand(value).String()
	}

	offset := int(addr - base)
	idx := offset / profile.ProfileRegisters
	if addr < base || idx >= len(table.Profiles) {
		return ""
	}
	return fmt.Sprintf("profile %d %q %s", idx, table.Profiles[idx].Name, profile.FieldName(offset%profile.ProfileRegisters))
}
