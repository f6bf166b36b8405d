package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/iometer/pkg/iometer"
)

const testWidth = 80

func testReading(t *testing.T, registers string) *iometer.Reading {
	t.Helper()
	r, err := iometer.ParseReading([]byte(`{"meter":{"number":"1ISK0000000000","reading":{"time":"2024-11-11T11:11:11Z","registers":[` + registers + `]}}}`))
	if err != nil {
		t.Fatalf("ParseReading() error = %v", err)
	}
	return r
}

func testStatus(t *testing.T, core string) *iometer.Status {
	t.Helper()
	s, err := iometer.ParseStatus([]byte(`{"meter":{"number":"1ISK0000000000"},"device":{"bridge":{"rssi":-30,"version":"build-65"},"id":"658c2b34-2017-45f2-a12b-731235f8bb97","core":` + core + `}}`))
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	return s
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestRenderReading(t *testing.T) {
	reading := testReading(t, `{"obis":"01-00:01.08.00*ff","value":1234.5,"unit":"Wh"},{"obis":"01-00:24.07.00*ff","value":250,"unit":"W"}`)

	out := RenderReading(reading, "192.168.1.100", testWidth)
	assertContains(t, out,
		"METER READING",
		"192.168.1.100",
		"1ISK0000000000",
		"2024-11-11T11:11:11Z",
		"250 W",
		"1234.5 Wh",
		"01-00:24.07.00*ff",
	)

	if !strings.Contains(out, absent) {
		t.Errorf("missing production should render as %s:\n%s", absent, out)
	}
}

func TestRenderReading_NoRegisters(t *testing.T) {
	out := RenderReading(testReading(t, ""), "h", testWidth)
	assertContains(t, out, "(none)")
}

func TestRenderStatus(t *testing.T) {
	status := testStatus(t, `{"connectionStatus":"connected","rssi":-45,"version":"build-58","powerStatus":"battery","batteryLevel":15,"attachmentStatus":"attached","pinStatus":"missing"}`)

	out := RenderStatus(status, "192.168.1.100", testWidth)
	assertContains(t, out,
		"BRIDGE STATUS",
		"658c2b34-2017-45f2-a12b-731235f8bb97",
		"build-65",
		"-30 dBm",
		"connected",
		"-45 dBm",
		"battery (15%)",
		"attached",
		"missing",
	)
}

func TestRenderStatus_Disconnected(t *testing.T) {
	out := RenderStatus(testStatus(t, `{"connectionStatus":"disconnected"}`), "h", testWidth)

	assertContains(t, out, "disconnected")
	if strings.Contains(out, "Power") {
		t.Errorf("disconnected core should not render power:\n%s", out)
	}
}

func TestRenderBridgeList(t *testing.T) {
	rows := []BridgeRow{
		{Name: "Basement", Host: "192.168.1.100", Detail: "build-65", LastSeen: time.Date(2024, 11, 11, 11, 11, 0, 0, time.UTC)},
		{Name: "IOmeter-1A2B3C", Host: "192.168.1.101:8080"},
	}

	out := RenderBridgeList("Remembered bridges", rows, testWidth)
	assertContains(t, out, "REMEMBERED BRIDGES", "Basement", "192.168.1.101:8080", "build-65", "last seen")

	empty := RenderBridgeList("Bridges", nil, testWidth)
	assertContains(t, empty, "(none)")
}

func TestPrinter_ResultBoxes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWidth(&buf, testWidth)

	p.PrintSuccess("Bridge saved", []Detail{{Key: "Host", Value: "192.168.1.100"}})
	p.PrintError("Reading failed", errors.New("refused"), "Troubleshooting:\n  • Power-cycle the bridge")

	assertContains(t, buf.String(), "Bridge saved", "192.168.1.100", "Reading failed", "Error: refused", "Power-cycle the bridge")
}

func TestNewPrinterWidth_Minimum(t *testing.T) {
	p := NewPrinterWidth(&bytes.Buffer{}, 10)
	if p.Width() < MinTerminalWidth {
		t.Errorf("Width() = %d, want at least %d", p.Width(), MinTerminalWidth)
	}
}

func TestRunWithSpinner_NoTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("os.Create() error = %v", err)
	}
	defer f.Close()

	wantErr := errors.New("boom")
	called := false
	err = RunWithSpinner(context.Background(), f, "Fetching...", func(ctx context.Context) error {
		called = true
		return wantErr
	})

	if !called {
		t.Error("fn should run without a terminal")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("RunWithSpinner() error = %v, want %v", err, wantErr)
	}
}

func TestSpinnerModel(t *testing.T) {
	cancelled := false
	m := newSpinnerModel("Fetching reading...", func() { cancelled = true })

	if !strings.Contains(m.View(), "Fetching reading...") {
		t.Errorf("View() = %q, want label", m.View())
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !cancelled {
		t.Error("ctrl+c should cancel the operation")
	}

	next, cmd := next.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("doneMsg should quit the program")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("doneMsg should return tea.Quit")
	}
	if next.View() != "" {
		t.Errorf("View() after done = %q, want empty", next.View())
	}
}
