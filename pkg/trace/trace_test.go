package trace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rv32lockstep/sim/pkg/rf"
)

func TestDashRuleIs70Dashes(t *testing.T) {
	if got := DashRule(); got != strings.Repeat("-", 70) {
		t.Errorf("DashRule() length = %d, want 70", len(got))
	}
}

func TestRFWriterBlockFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "RFResult.txt")
	w, err := CreateRFWriter(path)
	if err != nil {
		t.Fatalf("CreateRFWriter: %v", err)
	}
	r := rf.New()
	r.Write(1, 1)
	if err := w.WriteBlock(true, "State of RF after executing cycle:1", r); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if lines[0] != DashRule() {
		t.Errorf("line 0 = %q, want dash rule", lines[0])
	}
	if lines[1] != "State of RF after executing cycle:1" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if len(lines) != 2+rf.NumRegs {
		t.Errorf("got %d lines, want %d", len(lines), 2+rf.NumRegs)
	}
}

func TestStateWriterAlwaysEmitsDashRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "StateResult.txt")
	w, err := CreateStateWriter(path)
	if err != nil {
		t.Fatalf("CreateStateWriter: %v", err)
	}
	if err := w.WriteBlock("State after executing cycle: 1", []string{"IF.PC: 4", "IF.nop: False"}); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	want := []string{DashRule(), "State after executing cycle: 1", "IF.PC: 4", "IF.nop: False"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestMetricsCPIAndIPC(t *testing.T) {
	m := Metrics{Cycles: 10, Instructions: 4}
	if got := m.CPI(); got != 2.5 {
		t.Errorf("CPI() = %v, want 2.5", got)
	}
	if got := m.IPC(); got != 0.4 {
		t.Errorf("IPC() = %v, want 0.4", got)
	}
}

func TestMetricsZeroInstructionsOrCycles(t *testing.T) {
	m := Metrics{Cycles: 0, Instructions: 0}
	if got := m.CPI(); got != 0 {
		t.Errorf("CPI() = %v, want 0", got)
	}
	if got := m.IPC(); got != 0 {
		t.Errorf("IPC() = %v, want 0", got)
	}
}

func TestFormatFloatAlwaysHasDecimalPoint(t *testing.T) {
	if got := formatFloat(2); got != "2.0" {
		t.Errorf("formatFloat(2) = %q, want 2.0", got)
	}
	if got := formatFloat(2.5); got != "2.5" {
		t.Errorf("formatFloat(2.5) = %q, want 2.5", got)
	}
}

func TestWriteMetricsBothBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PerformanceMetrics.txt")
	ss := Metrics{Cycles: 5, Instructions: 5}
	fsm := Metrics{Cycles: 9, Instructions: 5}
	if err := WriteMetrics(path, ss, fsm); err != nil {
		t.Fatalf("WriteMetrics: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	text := string(content)
	if !strings.Contains(text, "Single Stage Core Performance Metrics") {
		t.Error("missing single-stage title")
	}
	if !strings.Contains(text, "Five Stage Core Performance Metrics") {
		t.Error("missing five-stage title")
	}
	if !strings.Contains(text, "CPI -> 1.0") {
		t.Errorf("expected single-stage CPI -> 1.0, got: %s", text)
	}
	if !strings.Contains(text, "CPI -> 1.8") {
		t.Errorf("expected five-stage CPI -> 1.8, got: %s", text)
	}
}
