// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package provision

import (
	"time"

	"github.com/Thermoquad/thermoprof/pkg/registers"
	"github.com/rs/zerolog"
)

// DefaultSettleDelay is the pause after erase, before CRC update and before
// reboot, giving the device time to finish flash work.
const DefaultSettleDelay = 2 * time.Second

// Config holds the sequencer configuration.
type Config struct {
	// BaseAddress is the register of the first profile
	BaseAddress registers.Address

	// SettleDelay is the pause inserted around flash operations
	SettleDelay time.Duration

	// Strict aborts the run on the first write that times out or is rejected
	Strict bool

	// ProgressCallback is called as the run advances (optional)
	ProgressCallback ProgressCallback

	// Logger receives run diagnostics (default: disabled)
	Logger zerolog.Logger
}

func defaultConfig() Config {
	return Config{
		BaseAddress: registers.ProfilesBase,
		SettleDelay: DefaultSettleDelay,
		Logger:      zerolog.Nop(),
	}
}

// Option is a functional option for configuring the Sequencer.
type Option func(*Config)

// WithBaseAddress sets the register of the first profile.
func WithBaseAddress(addr registers.Address) Option {
	return func(c *Config) {
		c.BaseAddress = addr
	}
}

// WithSettleDelay sets the pause around flash operations.
// Negative values are ignored.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SettleDelay = d
		}
	}
}

// WithStrict makes any unacknowledged profile write abort the run.
func WithStrict(strict bool) Option {
	return func(c *Config) {
		c.Strict = strict
	}
}

// WithProgressCallback sets a callback to track provisioning progress.
//
// Example:
//
//	seq := provision.New(con,
//	    provision.WithProgressCallback(func(p provision.Progress) {
//	        fmt.Printf("[%s] %.0f%%\n", p.Phase, p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets the logger for the run.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
