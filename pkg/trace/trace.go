// Package trace writes the simulator's per-cycle register-file and
// pipeline-state snapshots and the aggregate performance-metrics file. The
// final data memory dumps are not written here (see mem.DMEM.Dump). It knows the
// file mechanics (create, append, flush, close); the cores decide what the
// content looks like.
package trace

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rv32lockstep/sim/pkg/rf"
)

// DashRuleWidth is the length of the dash rule that opens every state
// snapshot block (and precedes the five-stage core's RF header).
const DashRuleWidth = 70

// DashRule returns the 70-dash separator line used throughout the trace
// format.
func DashRule() string {
	return strings.Repeat("-", DashRuleWidth)
}

// RFWriter appends register-file snapshot blocks to SS_RFResult.txt or
// FS_RFResult.txt. The file is created once (truncating any prior run) and
// kept open for the life of the core's run, so every cycle's block simply
// appends to the same handle instead of reopening in 'w'/'a' mode per
// cycle.
type RFWriter struct {
	f  *os.File
	bw *bufio.Writer
}

// CreateRFWriter creates (or truncates) the RF result file at path.
func CreateRFWriter(path string) (*RFWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: creating %s: %w", path, err)
	}
	return &RFWriter{f: f, bw: bufio.NewWriter(f)}, nil
}

// WriteBlock appends one RF snapshot: an optional dash rule (the five-stage
// format), the header line, then the 32-register binary dump.
func (w *RFWriter) WriteBlock(dashRule bool, header string, r *rf.RF) error {
	if dashRule {
		if _, err := fmt.Fprintln(w.bw, DashRule()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w.bw, header); err != nil {
		return err
	}
	return r.Dump(w.bw)
}

// Close flushes and closes the underlying file.
func (w *RFWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// StateWriter appends pipeline-state snapshot blocks to StateResult_SS.txt
// or StateResult_FS.txt.
type StateWriter struct {
	f  *os.File
	bw *bufio.Writer
}

// CreateStateWriter creates (or truncates) the state result file at path.
func CreateStateWriter(path string) (*StateWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("trace: creating %s: %w", path, err)
	}
	return &StateWriter{f: f, bw: bufio.NewWriter(f)}, nil
}

// WriteBlock appends a dash rule, the header line, and then the caller's
// pre-formatted field lines for this cycle.
func (w *StateWriter) WriteBlock(header string, lines []string) error {
	if _, err := fmt.Fprintln(w.bw, DashRule()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w.bw, header); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w.bw, l); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *StateWriter) Close() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// Metrics summarizes one core's run for PerformanceMetrics.txt.
type Metrics struct {
	Cycles       int
	Instructions int
}

// CPI returns cycles-per-instruction, 0 if Instructions is 0.
func (m Metrics) CPI() float64 {
	if m.Instructions == 0 {
		return 0
	}
	return float64(m.Cycles) / float64(m.Instructions)
}

// IPC returns instructions-per-cycle, 0 if Cycles is 0.
func (m Metrics) IPC() float64 {
	if m.Cycles == 0 {
		return 0
	}
	return float64(m.Instructions) / float64(m.Cycles)
}

// formatFloat renders a float the way Python's str() would for a float:
// always at least one digit after the decimal point.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// WriteMetrics writes the two-block PerformanceMetrics.txt file (single
// stage, then five stage).
func WriteMetrics(path string, ss, fsm Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: creating %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	writeBlock := func(title string, m Metrics) error {
		if _, err := fmt.Fprintf(bw, "%s-----------------------------\n", title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "#Cycles -> %d\n", m.Cycles); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "#Instructions -> %d\n", m.Instructions); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "CPI -> %s\n", formatFloat(m.CPI())); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "IPC -> %s\n", formatFloat(m.IPC())); err != nil {
			return err
		}
		return nil
	}

	if err := writeBlock("Single Stage Core Performance Metrics", ss); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw); err != nil {
		return err
	}
	if err := writeBlock("Five Stage Core Performance Metrics", fsm); err != nil {
		return err
	}
	return bw.Flush()
}
