// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package console

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds the console configuration.
type Config struct {
	// PromptTimeout bounds every wait for the prompt byte
	PromptTimeout time.Duration

	// Prompt is the byte the device prints when it is ready for input
	Prompt byte

	// Terminator is appended to every command line
	Terminator string

	// Logger receives per-command diagnostics (default: disabled)
	Logger zerolog.Logger
}

func defaultConfig() Config {
	return Config{
		PromptTimeout: DefaultPromptTimeout,
		Prompt:        DefaultPrompt,
		Terminator:    DefaultTerminator,
		Logger:        zerolog.Nop(),
	}
}

// Option is a functional option for configuring the Console.
type Option func(*Config)

// WithPromptTimeout sets the bound on each prompt wait.
// Non-positive values are ignored; the console never waits unbounded.
func WithPromptTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.PromptTimeout = timeout
		}
	}
}

// WithPrompt overrides the prompt byte.
func WithPrompt(prompt byte) Option {
	return func(c *Config) {
		c.Prompt = prompt
	}
}

// WithTerminator overrides the line terminator.
func WithTerminator(terminator string) Option {
	return func(c *Config) {
		c.Terminator = terminator
	}
}

// WithLogger sets the logger used for command diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
