// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/thermoprof/pkg/console"
	"github.com/Thermoquad/thermoprof/pkg/profile"
	"github.com/Thermoquad/thermoprof/pkg/registers"
	"github.com/rs/zerolog"
)

// Sequencer writes a profile table to a device and commits it to flash.
type Sequencer struct {
	cmd    registers.Commander
	config Config
	log    zerolog.Logger
}

// New creates a Sequencer sending commands through cmd.
//
// Example:
//
//	con := console.New(port)
//	seq := provision.New(con, provision.WithSettleDelay(2*time.Second))
//	report, err := seq.Run(ctx, profile.Default().Profiles)
func New(cmd registers.Commander, opts ...Option) *Sequencer {
	if cmd == nil {
		panic("provision: commander cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Sequencer{
		cmd:    cmd,
		config: cfg,
		log:    cfg.Logger.With().Str("component", "provision").Logger(),
	}
}

// Run performs the provisioning sequence:
//  1. Validate the table and its address range (nothing is sent on failure)
//  2. Wake the console with an empty line
//  3. Erase the profile flash, then settle
//  4. Write every profile from the base address
//  5. Settle, update the flash CRC, settle
//  6. Reboot the device
//
// Every command is sent once. Prompt timeouts are counted in the report and
// only abort the run in strict mode. The context is checked between steps
// and interrupts settle delays.
func (s *Sequencer) Run(ctx context.Context, profiles []profile.Profile) (Report, error) {
	start := time.Now()
	report := Report{Profiles: len(profiles)}
	total := len(profiles) * profile.ProfileRegisters

	if err := profile.Validate(&profile.Table{Profiles: profiles}); err != nil {
		return report, fmt.Errorf("invalid profile table: %w", err)
	}
	if err := s.checkRange(total); err != nil {
		return report, err
	}

	progress := Progress{TotalRegisters: total}
	emit := func(phase string, pct float64) {
		progress.Phase = phase
		progress.Percentage = pct
		progress.Timeouts = report.Timeouts
		progress.ElapsedTime = time.Since(start)
		if s.config.ProgressCallback != nil {
			s.config.ProgressCallback(progress)
		}
	}

	// Phase 1: wake
	emit(PhaseWaking, 0)
	res, err := s.cmd.SendCommand("")
	if err != nil {
		return report, fmt.Errorf("wake: %w", err)
	}
	if res.Status == console.StatusTimeout {
		s.log.Warn().Msg("no prompt after wake-up line, continuing")
	}

	enc := registers.NewEncoder(s.cmd,
		registers.WithStrict(s.config.Strict),
		registers.WithLogger(s.log),
		registers.WithWriteHook(func(w registers.Write) {
			report.Registers++
			if w.Result.Status == console.StatusTimeout {
				report.Timeouts++
			} else if w.Result.Fault != console.FaultNone {
				report.Faults++
			}
			progress.Register = report.Registers
			progress.Profile = (report.Registers - 1) / profile.ProfileRegisters
			emit(PhaseWriting, 5+85*float64(report.Registers)/float64(total))
		}),
	)

	// Phase 2: erase
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("cancelled: %w", err)
	}
	emit(PhaseErasing, 2)
	if err := s.deviceCommand(enc, registers.CmdEraseFlash); err != nil {
		return report, err
	}
	if err := s.settle(ctx); err != nil {
		return report, err
	}

	// Phase 3: profiles
	addr := s.config.BaseAddress
	for i, p := range profiles {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("cancelled: %w", err)
		}

		s.log.Info().
			Int("profile", i).
			Str("name", p.Name).
			Uint32("addr", uint32(addr)).
			Msg("writing profile")

		next, err := p.Write(enc, addr)
		if err != nil {
			return report, fmt.Errorf("write profile %d (%q): %w", i, p.Name, err)
		}
		addr = next
	}
	report.EndAddress = addr

	// Phase 4: CRC
	if err := s.settle(ctx); err != nil {
		return report, err
	}
	emit(PhaseUpdatingCRC, 92)
	if err := s.deviceCommand(enc, registers.CmdUpdateCRC); err != nil {
		return report, err
	}
	if err := s.settle(ctx); err != nil {
		return report, err
	}

	// Phase 5: reboot. The device restarts before printing a prompt, so a
	// timeout here is the normal outcome.
	emit(PhaseRebooting, 96)
	if _, err := enc.Command(registers.CmdReboot); err != nil {
		return report, err
	}

	report.Elapsed = time.Since(start)
	emit(PhaseComplete, 100)

	s.log.Info().
		Int("registers", report.Registers).
		Int("timeouts", report.Timeouts).
		Int("faults", report.Faults).
		Dur("elapsed", report.Elapsed).
		Msg("provisioning complete")

	return report, nil
}

// deviceCommand sends a command-register write. A missing prompt is logged
// and tolerated unless the sequencer is strict.
func (s *Sequencer) deviceCommand(enc *registers.Encoder, c registers.DeviceCommand) error {
	res, err := enc.Command(c)
	if err != nil {
		return err
	}
	if res.OK() {
		return nil
	}

	s.log.Warn().
		Str("command", c.String()).
		Str("status", res.Status.String()).
		Str("fault", res.Fault.String()).
		Msg("device command not acknowledged")

	if s.config.Strict {
		return &registers.AckError{Address: registers.CommandRegister, Value: uint16(c), Result: res}
	}
	return nil
}

// checkRange rejects tables that would run off the register space or land
// on the command register.
func (s *Sequencer) checkRange(total int) error {
	base := s.config.BaseAddress
	if base < registers.ProfilesBase {
		return &registers.RangeError{
			Kind:  registers.KindAddress,
			Value: int64(base),
			Min:   int64(registers.ProfilesBase),
			Max:   int64(registers.MaxAddress),
		}
	}
	if last := int64(base) + int64(total) - 1; total > 0 && last > int64(registers.MaxAddress) {
		return &registers.RangeError{
			Kind:  registers.KindAddress,
			Value: last,
			Min:   int64(registers.ProfilesBase),
			Max:   int64(registers.MaxAddress),
		}
	}
	return nil
}

func (s *Sequencer) settle(ctx context.Context) error {
	if s.config.SettleDelay <= 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
		return nil
	}

	s.log.Debug().Dur("delay", s.config.SettleDelay).Msg("settling")

	timer := time.NewTimer(s.config.SettleDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
