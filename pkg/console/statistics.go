// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package console

import (
	"fmt"
	"time"
)

// Statistics tracks command outcomes on a console
type Statistics struct {
	StartTime time.Time

	// Counters
	Commands     uint64
	Acks         uint64
	Timeouts     uint64
	Faults       uint64
	BytesWritten uint64
	BytesRead    uint64
}

func newStatistics() Statistics {
	return Statistics{StartTime: time.Now()}
}

// Update records the outcome of one command exchange
func (s *Statistics) Update(r Result) {
	s.Commands++

	if r.Status == StatusTimeout {
		s.Timeouts++
		return
	}

	s.Acks++
	if r.Fault != FaultNone {
		s.Faults++
	}
}

// String returns a one-line summary
func (s Statistics) String() string {
	return fmt.Sprintf("commands=%d acks=%d timeouts=%d faults=%d tx=%dB rx=%dB elapsed=%v",
		s.Commands, s.Acks, s.Timeouts, s.Faults, s.BytesWritten, s.BytesRead,
		time.Since(s.StartTime).Round(time.Millisecond))
}
