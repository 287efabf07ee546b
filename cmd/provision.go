// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Thermoquad/thermoprof/pkg/profile"
	"github.com/Thermoquad/thermoprof/pkg/provision"
	"github.com/Thermoquad/thermoprof/pkg/registers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	profilesPath    string
	baseAddress     uint32
	settleDelay     time.Duration
	strictProvision bool
	provisionTUI    bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Write the profile table to the device and commit it to flash",
	Long: `Write every thermal profile to the device over its console.

Sequence:
  1. Wake the console with an empty line
  2. Erase the profile flash (wr 7 2)
  3. Write each profile, one register per command, from --base
  4. Update the flash CRC (wr 7 3)
  5. Reboot the device (wr 7 1)

The table is validated before anything is sent. Each command is sent once; a
missing prompt is logged and counted but does not stop the run unless --strict
is given. The reboot normally produces no prompt.

Without --profiles the built-in reference table is written.

Exit codes:
  0 - Provisioning completed
  1 - Provisioning failed or was interrupted`,
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	addTableFlags(provisionCmd)
	provisionCmd.Flags().DurationVar(&settleDelay, "settle", provision.DefaultSettleDelay, "Pause around flash erase, CRC update and reboot")
	provisionCmd.Flags().BoolVar(&strictProvision, "strict", false, "Abort on the first write without a prompt or with a device error")
	provisionCmd.Flags().BoolVar(&provisionTUI, "tui", false, "Show an interactive progress display")
}

// addTableFlags registers the flags selecting the profile table and where it
// is written.
func addTableFlags(c *cobra.Command) {
	c.Flags().StringVar(&profilesPath, "profiles", "", "Profile table YAML file (default: built-in table)")
	c.Flags().Uint32Var(&baseAddress, "base", uint32(registers.ProfilesBase), "Register address of the first profile")
}

// loadTable returns the table named by --profiles, or the built-in one.
func loadTable() (*profile.Table, string, error) {
	if profilesPath == "" {
		return profile.Default(), "built-in", nil
	}
	table, err := profile.Load(profilesPath)
	if err != nil {
		return nil, "", err
	}
	return table, profilesPath, nil
}

func runProvision(cmd *cobra.Command, args []string) error {
	table, source, err := loadTable()
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen; route them into the TUI
	var relay *logRelay
	if provisionTUI {
		relay = newLogRelay()
		log.Logger = log.Logger.Output(zerolog.ConsoleWriter{
			Out:          relay,
			NoColor:      true,
			PartsExclude: []string{zerolog.TimestampFieldName},
		})
	}

	con, connInfo, err := openConsole()
	if err != nil {
		return err
	}
	defer con.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []provision.Option{
		provision.WithBaseAddress(registers.Address(baseAddress)),
		provision.WithSettleDelay(settleDelay),
		provision.WithStrict(strictProvision),
	}

	if provisionTUI {
		return runProvisionTUI(ctx, con, connInfo, table, relay, opts)
	}

	fmt.Printf("Thermoprof - Provisioning\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Profiles: %d (%s), %d registers from address %d\n\n",
		len(table.Profiles), source, table.Registers(), baseAddress)

	lastPhase := ""
	opts = append(opts,
		provision.WithLogger(log.Logger),
		provision.WithProgressCallback(func(p provision.Progress) {
			if p.Phase != lastPhase {
				lastPhase = p.Phase
				fmt.Printf("[%5.1f%%] %s\n", p.Percentage, phaseTitle(p.Phase))
			}
		}),
	)

	report, err := provision.New(con, opts...).Run(ctx, table.Profiles)
	if err != nil {
		return fmt.Errorf("provisioning failed after %d registers: %w", report.Registers, err)
	}

	printReport(report)
	log.Debug().Str("console", con.Stats().String()).Msg("console statistics")
	return nil
}

func printReport(r provision.Report) {
	if r.Registers == 0 {
		fmt.Printf("\nNo profiles written, flash erased and committed in %s\n", r.Elapsed.Round(time.Millisecond))
		return
	}
	fmt.Printf("\nWrote %d profiles (%d registers, addresses %d..%d) in %s\n",
		r.Profiles, r.Registers, uint32(baseAddress), uint32(r.EndAddress)-1, r.Elapsed.Round(time.Millisecond))
	if r.Timeouts > 0 || r.Faults > 0 {
		fmt.Printf("Warning: %d writes without prompt, %d rejected by the device\n", r.Timeouts, r.Faults)
	}
}

// phaseTitle returns a human-readable phase description
func phaseTitle(phase string) string {
	switch phase {
	case provision.PhaseWaking:
		return "Waking console"
	case provision.PhaseErasing:
		return "Erasing profile flash"
	case provision.PhaseWriting:
		return "Writing profiles"
	case provision.PhaseUpdatingCRC:
		return "Updating flash CRC"
	case provision.PhaseRebooting:
		return "Rebooting device"
	case provision.PhaseComplete:
		return "Complete"
	default:
		return phase
	}
}
