// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/thermoprof/pkg/console"
	"github.com/Thermoquad/thermoprof/pkg/registers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var controlCmd = &cobra.Command{
	Use:   "control <nop|reboot|erase|crc>",
	Short: "Write a single command to the device command register",
	Long: `Write one value to the command register (register 7).

Commands:
  nop     - 0, no operation (useful to check the console answers)
  reboot  - 1, restart the device (no prompt is expected)
  erase   - 2, erase the profile flash
  crc     - 3, recompute and store the flash CRC

Exit codes:
  0 - Command acknowledged (or reboot sent)
  1 - Command not acknowledged, rejected, or connection error`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"nop", "reboot", "erase", "crc"},
	RunE:      runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// parseDeviceCommand maps a command name to its register value
func parseDeviceCommand(name string) (registers.DeviceCommand, error) {
	switch strings.ToLower(name) {
	case "nop":
		return registers.CmdNop, nil
	case "reboot":
		return registers.CmdReboot, nil
	case "erase":
		return registers.CmdEraseFlash, nil
	case "crc":
		return registers.CmdUpdateCRC, nil
	default:
		return 0, fmt.Errorf("unknown command %q (use nop, reboot, erase or crc)", name)
	}
}

func runControl(cmd *cobra.Command, args []string) error {
	c, err := parseDeviceCommand(args[0])
	if err != nil {
		return err
	}

	con, connInfo, err := openConsole()
	if err != nil {
		return err
	}
	defer con.Close()

	fmt.Printf("Thermoprof - Device Command\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	if _, err := con.SendCommand(""); err != nil {
		return fmt.Errorf("wake: %w", err)
	}

	enc := registers.NewEncoder(con, registers.WithLogger(log.Logger))
	res, err := enc.Command(c)
	if err != nil {
		return err
	}
	fmt.Print(formatResult(res))

	if c == registers.CmdReboot {
		fmt.Printf("\nReboot sent\n")
		return nil
	}
	if !res.OK() {
		return &registers.AckError{Address: registers.CommandRegister, Value: uint16(c), Result: res}
	}

	fmt.Printf("\n%s acknowledged\n", c)
	return nil
}

// Compile-time check that the console satisfies the encoder transport
var _ registers.Commander = (*console.Console)(nil)
