// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package provision

import (
	"time"

	"github.com/Thermoquad/thermoprof/pkg/registers"
)

// Phases of a provisioning run, in order.
const (
	PhaseWaking      = "waking"
	PhaseErasing     = "erasing"
	PhaseWriting     = "writing"
	PhaseUpdatingCRC = "updating_crc"
	PhaseRebooting   = "rebooting"
	PhaseComplete    = "complete"
)

// Progress contains information about a provisioning run.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// Profile is the index of the profile being written (writing phase only)
	Profile int

	// Register is the number of profile registers written so far
	Register int

	// TotalRegisters is the number of profile registers in the run
	TotalRegisters int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// Timeouts counts profile writes that got no prompt
	Timeouts int

	// ElapsedTime is the time since the run started
	ElapsedTime time.Duration
}

// ProgressCallback is called as the run advances. It runs on the
// provisioning goroutine and should return quickly.
type ProgressCallback func(Progress)

// Report summarizes a finished run.
type Report struct {
	Profiles   int
	Registers  int
	Timeouts   int
	Faults     int
	EndAddress registers.Address
	Elapsed    time.Duration
}
