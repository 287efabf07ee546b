// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/thermoprof/pkg/profile"
	"github.com/Thermoquad/thermoprof/pkg/registers"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Validate and display the profile table",
	Long: `Load the profile table (from --profiles or the built-in one), validate it and
print each profile with its register range.

Exit codes:
  0 - Table is valid
  1 - Table is invalid`,
	RunE: runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	addTableFlags(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	table, source, err := loadTable()
	if err != nil {
		return err
	}

	// Also rejects tables that do not fit above --base
	base := registers.Address(baseAddress)
	if _, err := planLines(table, base); err != nil {
		return err
	}

	fmt.Print(renderTable(table, source, base))
	return nil
}

// renderTable formats the profile table with lipgloss styles
func renderTable(table *profile.Table, source string, base registers.Address) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render(fmt.Sprintf("Profile table (%s)", source)))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%d of %d slots, %d registers",
		len(table.Profiles), profile.MaxProfiles, table.Registers())))
	s.WriteString("\n")

	for i, p := range table.Profiles {
		start := base + registers.Address(i*profile.ProfileRegisters)
		name := p.Name
		if name == "" {
			name = "(empty)"
		}

		var body strings.Builder
		body.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render(fmt.Sprintf("#%d", i)), valueStyle.Render(name),
			labelStyle.Render("Registers:"), headerStyle.Render(fmt.Sprintf("%d..%d", start, start+profile.ProfileRegisters-1)),
		))

		for j, st := range p.Stages {
			if st.IsZero() {
				body.WriteString(headerStyle.Render(fmt.Sprintf("  stage %d: unused", j)))
			} else {
				body.WriteString(fmt.Sprintf("  stage %d: %s for %s, fan %d%% every %s",
					j,
					valueStyle.Render(fmt.Sprintf("%d°C", st.TemperatureC)),
					valueStyle.Render((time.Duration(st.DurationS) * time.Second).String()),
					st.FanDutyCyclePct,
					(time.Duration(st.FanPeriodS) * time.Second).String(),
				))
			}
			if j < len(p.Stages)-1 {
				body.WriteString("\n")
			}
		}

		s.WriteString(boxStyle.Render(body.String()))
		s.WriteString("\n")
	}

	return s.String()
}
