// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var monitorDuration time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print raw console output from the device",
	Long: `Print everything the device writes to its console, one timestamped line at a
time, without sending anything.

Useful to watch a reboot after provisioning or to check that a WebSocket
bridge forwards console traffic.

Exit codes:
  0 - Monitoring ended (duration elapsed, Ctrl+C or connection closed)
  1 - Connection error`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorDuration, "duration", 0, "Stop after this long (0 = until Ctrl+C)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Thermoprof - Console Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	// Reader goroutine
	readChan := make(chan []byte, 100)
	errChan := make(chan error, 1)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				readChan <- data
			}
			if err != nil {
				errChan <- err
				return
			}
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	var deadline <-chan time.Time
	if monitorDuration > 0 {
		deadline = time.After(monitorDuration)
	}

	lw := &lineWriter{out: os.Stdout, now: time.Now}
	bytesReceived := 0

	for {
		select {
		case data := <-readChan:
			bytesReceived += len(data)
			lw.Write(data)

		case err := <-errChan:
			lw.Flush()
			if err == io.EOF || err == ErrConnectionClosed {
				fmt.Printf("\nConnection closed (%d bytes received)\n", bytesReceived)
				return nil
			}
			return fmt.Errorf("read: %w", err)

		case <-deadline:
			lw.Flush()
			fmt.Printf("\n%d bytes received in %s\n", bytesReceived, monitorDuration)
			return nil

		case <-interrupt:
			lw.Flush()
			fmt.Printf("\n%d bytes received\n", bytesReceived)
			return nil
		}
	}
}

// lineWriter prefixes each complete console line with a timestamp. The
// console ends lines with "\r\n"; a bare prompt stays pending until Flush.
type lineWriter struct {
	out     io.Writer
	now     func() time.Time
	pending []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.pending = append(w.pending, p...)
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		w.emit(w.pending[:i])
		w.pending = w.pending[i+1:]
	}
	return len(p), nil
}

// Flush prints a partial line, if any.
func (w *lineWriter) Flush() {
	if len(w.pending) > 0 {
		w.emit(w.pending)
		w.pending = nil
	}
}

func (w *lineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	fmt.Fprintf(w.out, "[%s] %s\n", w.now().Format("15:04:05.000"), line)
}
