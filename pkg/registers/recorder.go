// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package registers

import (
	"github.com/Thermoquad/thermoprof/pkg/console"
)

// Recorder is a Commander that records every line and acknowledges it
// without talking to a device. Useful for dry runs.
type Recorder struct {
	Lines []string

	// Respond, when set, produces the result for each line
	Respond func(line string) console.Result
}

// SendCommand implements Commander.
func (r *Recorder) SendCommand(line string) (console.Result, error) {
	r.Lines = append(r.Lines, line)
	if r.Respond != nil {
		res := r.Respond(line)
		res.Command = line
		return res, nil
	}
	return console.Result{Command: line, Status: console.StatusAck}, nil
}

// Reset forgets recorded lines.
func (r *Recorder) Reset() {
	r.Lines = r.Lines[:0]
}
