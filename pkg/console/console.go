// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrClosed is returned when the console stream has been closed.
var ErrClosed = errors.New("console closed")

// Console is a synchronous command/response unit over a character stream.
//
// Every command is written with a terminator and then the console blocks
// until the device prompt reappears or the prompt timeout elapses. A single
// reader goroutine owns the stream's Read side, so each wait is bounded by
// its own timer even when the underlying reader blocks forever.
type Console struct {
	rw     io.ReadWriter
	config Config
	log    zerolog.Logger

	chunks  chan []byte
	done    chan struct{}
	pending []byte
	readErr error

	stats     Statistics
	closeOnce sync.Once
}

// New creates a Console owning the given stream.
//
// Example:
//
//	conn, _ := serial.Open("/dev/ttyACM0", mode)
//	con := console.New(conn, console.WithPromptTimeout(2*time.Second))
//	defer con.Close()
func New(rw io.ReadWriter, opts ...Option) *Console {
	if rw == nil {
		panic("console: stream cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Console{
		rw:     rw,
		config: cfg,
		log:    cfg.Logger.With().Str("component", "console").Logger(),
		chunks: make(chan []byte, 64),
		done:   make(chan struct{}),
		stats:  newStatistics(),
	}
	go c.pump()
	return c
}

// pump copies everything the device sends into the chunk channel until the
// stream fails or the console is closed. The error is published before the
// channel is closed.
func (c *Console) pump() {
	defer close(c.chunks)

	buf := make([]byte, 256)
	for {
		n, err := c.rw.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case c.chunks <- data:
			case <-c.done:
				return
			}
		}
		if err != nil {
			c.readErr = err
			return
		}
	}
}

// SendCommand writes line followed by the terminator and waits for the
// prompt. A prompt timeout is reported through Result.Status, not as an
// error; errors are reserved for stream failures.
func (c *Console) SendCommand(line string) (Result, error) {
	c.discardStale()

	frame := line + c.config.Terminator
	if _, err := c.rw.Write([]byte(frame)); err != nil {
		return Result{Command: line}, fmt.Errorf("write %q: %w", line, err)
	}
	c.stats.BytesWritten += uint64(len(frame))

	res, err := c.WaitPrompt()
	res.Command = line
	if err != nil {
		return res, err
	}

	c.stats.Update(res)
	switch {
	case res.Status == StatusTimeout:
		c.log.Warn().
			Str("cmd", line).
			Dur("timeout", c.config.PromptTimeout).
			Msg("prompt not received")
	case res.Fault != FaultNone:
		c.log.Warn().
			Str("cmd", line).
			Str("fault", res.Fault.String()).
			Msg("device rejected command")
	default:
		c.log.Debug().
			Str("cmd", line).
			Dur("elapsed", res.Elapsed).
			Msg("ack")
	}
	return res, nil
}

// WaitPrompt reads from the device until the prompt byte is seen or the
// prompt timeout elapses. Bytes before the prompt are returned as the
// response; bytes after it are kept for the next wait.
func (c *Console) WaitPrompt() (Result, error) {
	start := time.Now()
	timer := time.NewTimer(c.config.PromptTimeout)
	defer timer.Stop()

	var response []byte
	for {
		if i := bytes.IndexByte(c.pending, c.config.Prompt); i >= 0 {
			response = append(response, c.pending[:i]...)
			c.pending = c.pending[i+1:]
			return Result{
				Status:   StatusAck,
				Fault:    classifyFault(response),
				Response: response,
				Elapsed:  time.Since(start),
			}, nil
		}
		response = append(response, c.pending...)
		c.pending = nil

		select {
		case chunk, ok := <-c.chunks:
			if !ok {
				return Result{Response: response, Elapsed: time.Since(start)}, c.streamError()
			}
			c.stats.BytesRead += uint64(len(chunk))
			c.pending = chunk

		case <-c.done:
			return Result{Response: response, Elapsed: time.Since(start)}, ErrClosed

		case <-timer.C:
			return Result{
				Status:   StatusTimeout,
				Response: response,
				Elapsed:  time.Since(start),
			}, nil
		}
	}
}

// discardStale drops bytes that arrived outside of a command exchange, such
// as a late prompt from a command that previously timed out.
func (c *Console) discardStale() {
	dropped := len(c.pending)
	c.pending = nil
	for {
		select {
		case chunk, ok := <-c.chunks:
			if !ok {
				return
			}
			c.stats.BytesRead += uint64(len(chunk))
			dropped += len(chunk)
		default:
			if dropped > 0 {
				c.log.Debug().Int("bytes", dropped).Msg("discarded stale input")
			}
			return
		}
	}
}

func (c *Console) streamError() error {
	if c.readErr == nil || errors.Is(c.readErr, io.EOF) {
		return ErrClosed
	}
	return fmt.Errorf("read: %w", c.readErr)
}

// Stats returns a snapshot of the console counters.
func (c *Console) Stats() Statistics {
	return c.stats
}

// Close closes the underlying stream when it implements io.Closer.
func (c *Console) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}
