package observ

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestTimerConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx := tm.Begin("phase")
			tm.End(idx, "")
		}()
	}
	wg.Wait()
	report := tm.Report()
	if len(report.Phases) != 8 {
		t.Fatalf("got %d phases, want 8", len(report.Phases))
	}
	if report.WallMS < 0 {
		t.Fatalf("negative wall time %f", report.WallMS)
	}
}

func TestTimerMeasureNotesFailure(t *testing.T) {
	tm := NewTimer()
	boom := errors.New("boom")
	if err := tm.Measure("load", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Measure returned %v", err)
	}
	summary := tm.Summary()
	if !strings.Contains(summary, "load") || !strings.Contains(summary, "// failed") {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if err := tm.Measure("y", func() error { return nil }); err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer recorded phases")
	}
}

func TestNewLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	log, err := NewLogger(false, path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("module generated")
	log.Debug("hidden below info")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"module generated"`) {
		t.Fatalf("log misses info entry:\n%s", out)
	}
	if strings.Contains(out, "hidden below info") {
		t.Fatalf("debug entry written without verbose:\n%s", out)
	}
}

func TestNewLoggerNop(t *testing.T) {
	log, err := NewLogger(false, "")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if log.Core().Enabled(0) {
		t.Fatalf("expected a no-op logger")
	}
}
