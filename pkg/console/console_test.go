// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package console

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice emulates the firmware console: it collects bytes until a
// carriage return and answers each completed line through respond.
type fakeDevice struct {
	mu        sync.Mutex
	lines     []string
	partial   []byte
	out       chan []byte
	respond   func(line string) []string
	closeOnce sync.Once
}

func newFakeDevice(respond func(line string) []string) *fakeDevice {
	return &fakeDevice{
		out:     make(chan []byte, 16),
		respond: respond,
	}
}

// echoPrompt answers like the real firmware: echo, blank lines, prompt.
func echoPrompt(line string) []string {
	return []string{line + "\r\n\r\n>"}
}

func silent(string) []string { return nil }

func (d *fakeDevice) Read(p []byte) (int, error) {
	chunk, ok := <-d.out
	if !ok {
		return 0, io.EOF
	}
	return copy(p, chunk), nil
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range p {
		if b != '\r' {
			d.partial = append(d.partial, b)
			continue
		}
		line := string(d.partial)
		d.partial = d.partial[:0]
		d.lines = append(d.lines, line)
		for _, chunk := range d.respond(line) {
			d.out <- []byte(chunk)
		}
	}
	return len(p), nil
}

func (d *fakeDevice) Close() error {
	d.closeOnce.Do(func() { close(d.out) })
	return nil
}

func (d *fakeDevice) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

type brokenStream struct {
	readErr  error
	writeErr error
}

func (b *brokenStream) Read(p []byte) (int, error)  { return 0, b.readErr }
func (b *brokenStream) Write(p []byte) (int, error) { return 0, b.writeErr }

func TestSendCommand_Ack(t *testing.T) {
	dev := newFakeDevice(echoPrompt)
	con := New(dev, WithPromptTimeout(time.Second))
	defer con.Close()

	res, err := con.SendCommand("wr 8 29284")
	require.NoError(t, err)

	assert.Equal(t, StatusAck, res.Status)
	assert.Equal(t, FaultNone, res.Fault)
	assert.True(t, res.OK())
	assert.Equal(t, "wr 8 29284", res.Command)
	assert.Equal(t, "wr 8 29284\r\n\r\n", string(res.Response))
	assert.Equal(t, []string{"wr 8 29284"}, dev.Lines())
}

func TestSendCommand_PromptSplitAcrossReads(t *testing.T) {
	dev := newFakeDevice(func(line string) []string {
		return []string{"partial ", "response\r\n", "\r\n>"}
	})
	con := New(dev, WithPromptTimeout(time.Second))
	defer con.Close()

	res, err := con.SendCommand("wr 7 0")
	require.NoError(t, err)
	assert.Equal(t, StatusAck, res.Status)
	assert.Equal(t, "partial response\r\n\r\n", string(res.Response))
}

func TestSendCommand_TimeoutIsNotAnError(t *testing.T) {
	timeout := 50 * time.Millisecond
	dev := newFakeDevice(silent)
	con := New(dev, WithPromptTimeout(timeout))
	defer con.Close()

	start := time.Now()
	res, err := con.SendCommand("wr 7 1")
	require.NoError(t, err)

	assert.Equal(t, StatusTimeout, res.Status)
	assert.False(t, res.OK())
	assert.GreaterOrEqual(t, res.Elapsed, timeout)
	assert.Less(t, time.Since(start), 10*timeout)

	stats := con.Stats()
	assert.Equal(t, uint64(1), stats.Commands)
	assert.Equal(t, uint64(1), stats.Timeouts)
	assert.Equal(t, uint64(0), stats.Acks)
}

func TestSendCommand_TimeoutIsPerCommand(t *testing.T) {
	timeout := 40 * time.Millisecond
	dev := newFakeDevice(silent)
	con := New(dev, WithPromptTimeout(timeout))
	defer con.Close()

	for i := 0; i < 3; i++ {
		res, err := con.SendCommand("wr 8 0")
		require.NoError(t, err)
		assert.Equal(t, StatusTimeout, res.Status)
		assert.Less(t, res.Elapsed, 5*timeout)
	}
	assert.Len(t, dev.Lines(), 3)
}

func TestSendCommand_Faults(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Fault
	}{
		{"invalid argument", "wr 999 1\r\nIncorrect arg!\r\n\r\n>", FaultInvalidArgument},
		{"failed", "wr 8 1\r\nFailed!\r\n\r\n>", FaultFailed},
		{"unknown command", "xx\r\nCMD not found!\r\n\r\n>", FaultUnknownCommand},
		{"clean", "wr 8 1\r\n\r\n>", FaultNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice(func(string) []string { return []string{tt.response} })
			con := New(dev, WithPromptTimeout(time.Second))
			defer con.Close()

			res, err := con.SendCommand("wr 8 1")
			require.NoError(t, err)
			assert.Equal(t, StatusAck, res.Status)
			assert.Equal(t, tt.want, res.Fault)
			assert.Equal(t, tt.want == FaultNone, res.OK())
		})
	}
}

func TestSendCommand_DiscardsStaleInput(t *testing.T) {
	dev := newFakeDevice(func(line string) []string {
		return []string{"fresh>"}
	})
	con := New(dev, WithPromptTimeout(time.Second))
	defer con.Close()

	// A late prompt from an earlier, timed-out command.
	dev.out <- []byte("stale>")
	require.Eventually(t, func() bool { return len(con.chunks) == 1 }, time.Second, time.Millisecond)

	res, err := con.SendCommand("wr 8 1")
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(res.Response))
}

func TestSendCommand_CustomPrompt(t *testing.T) {
	dev := newFakeDevice(func(line string) []string { return []string{"ok#"} })
	con := New(dev, WithPrompt('#'), WithPromptTimeout(time.Second))
	defer con.Close()

	res, err := con.SendCommand("wr 8 1")
	require.NoError(t, err)
	assert.Equal(t, StatusAck, res.Status)
	assert.Equal(t, "ok", string(res.Response))
}

func TestSendCommand_WriteError(t *testing.T) {
	con := New(&brokenStream{readErr: io.EOF, writeErr: errors.New("port unplugged")})

	_, err := con.SendCommand("wr 8 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port unplugged")
}

func TestWaitPrompt_ReadError(t *testing.T) {
	con := New(&brokenStream{readErr: errors.New("device reset")})

	_, err := con.WaitPrompt()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device reset")
}

func TestWaitPrompt_Closed(t *testing.T) {
	dev := newFakeDevice(silent)
	con := New(dev, WithPromptTimeout(time.Second))
	require.NoError(t, con.Close())
	require.NoError(t, con.Close())

	_, err := con.WaitPrompt()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStatistics_Update(t *testing.T) {
	s := newStatistics()
	s.Update(Result{Status: StatusAck})
	s.Update(Result{Status: StatusAck, Fault: FaultFailed})
	s.Update(Result{Status: StatusTimeout})

	assert.Equal(t, uint64(3), s.Commands)
	assert.Equal(t, uint64(2), s.Acks)
	assert.Equal(t, uint64(1), s.Faults)
	assert.Equal(t, uint64(1), s.Timeouts)
	assert.Contains(t, s.String(), "timeouts=1")
}

func TestWithPromptTimeout_IgnoresNonPositive(t *testing.T) {
	cfg := defaultConfig()
	WithPromptTimeout(0)(&cfg)
	WithPromptTimeout(-time.Second)(&cfg)
	assert.Equal(t, DefaultPromptTimeout, cfg.PromptTimeout)
}
