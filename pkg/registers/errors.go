// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registers

import (
	"fmt"
	"time"

	"github.com/Thermoquad/thermoprof/pkg/console"
)

// Value kinds reported by RangeError.
const (
	KindU16     = "u16"
	KindU32     = "u32"
	KindString  = "string"
	KindAddress = "address"
)

// RangeError indicates a value or address that cannot be encoded.
// It is returned before any command is sent.
type RangeError struct {
	Kind    string
	Address Address
	Value   int64
	Min     int64
	Max     int64
}

func (e *RangeError) Error() string {
	if e.Kind == KindAddress {
		return fmt.Sprintf("register address %d out of range: valid range is %d-%d",
			e.Value, e.Min, e.Max)
	}
	return fmt.Sprintf("%s value %d at register %d out of range: valid range is %d-%d",
		e.Kind, e.Value, e.Address, e.Min, e.Max)
}

// AckError indicates that a write was not acknowledged cleanly.
// Only returned when the encoder runs in strict mode.
type AckError struct {
	Address Address
	Value   uint16
	Result  console.Result
}

func (e *AckError) Error() string {
	if e.Result.Status == console.StatusTimeout {
		return fmt.Sprintf("write %d to register %d: no prompt within %v",
			e.Value, e.Address, e.Result.Elapsed.Round(time.Millisecond))
	}
	return fmt.Sprintf("write %d to register %d: device reported %s",
		e.Value, e.Address, e.Result.Fault)
}
