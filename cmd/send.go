// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/thermoprof/pkg/console"
	"github.com/spf13/cobra"
)

var sendWake bool

var sendCmd = &cobra.Command{
	Use:   "send <line>...",
	Short: "Send raw console lines and print the device responses",
	Long: `Send each argument as one console line, waiting for the prompt after each.

Useful for poking single registers by hand:
  thermoprof send -p /dev/ttyUSB0 "wr 8 29284" "wr 9 27001"

Each line is reported with its status (ACK or TIMEOUT), any device error
message and the text printed before the prompt.

Exit codes:
  0 - All lines sent (timeouts and device errors are reported, not fatal)
  1 - Connection error`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().BoolVar(&sendWake, "wake", true, "Send an empty line first to get a fresh prompt")
}

func runSend(cmd *cobra.Command, args []string) error {
	con, connInfo, err := openConsole()
	if err != nil {
		return err
	}
	defer con.Close()

	fmt.Printf("Thermoprof - Console\n")
	fmt.Printf("Connection: %s\n\n", connInfo)

	if sendWake {
		if _, err := con.SendCommand(""); err != nil {
			return fmt.Errorf("wake: %w", err)
		}
	}

	for _, line := range args {
		res, err := con.SendCommand(line)
		if err != nil {
			return err
		}
		fmt.Print(formatResult(res))
	}

	stats := con.Stats()
	fmt.Printf("\n%d commands: %d acknowledged, %d timeouts, %d device errors\n",
		stats.Commands, stats.Acks, stats.Timeouts, stats.Faults)
	return nil
}

// formatResult renders one exchange for the terminal
func formatResult(res console.Result) string {
	var s strings.Builder
	fmt.Fprintf(&s, "> %s\n", res.Command)
	fmt.Fprintf(&s, "  status: %s (%s)", res.Status, res.Elapsed.Round(time.Millisecond))
	if res.Fault != console.FaultNone {
		fmt.Fprintf(&s, ", device error: %s", res.Fault)
	}
	s.WriteString("\n")

	for _, l := range strings.Split(string(res.Response), "\n") {
		l = strings.TrimSpace(l)
		if l == "" || l == res.Command {
			continue
		}
		fmt.Fprintf(&s, "  | %s\n", l)
	}
	return s.String()
}
