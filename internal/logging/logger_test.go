package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// resetState returns the package to its unconfigured state between tests.
func resetState() {
	CloseAll()
	configMu.Lock()
	logsDir = ""
	enabled = false
	logLevel = LevelInfo
	configMu.Unlock()
}

func TestConfigureCreatesCategoryFiles(t *testing.T) {
	tempDir := t.TempDir()
	resetState()
	defer resetState()

	if err := Configure(tempDir, true, "debug"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if !Enabled() {
		t.Fatal("expected logging to be enabled")
	}

	Kernel("kernel info message")
	KernelDebug("kernel debug message")
	Ontology("parsed %d triples", 42)
	Get(CategoryStore).Warn("cache miss for %s", "university.owl")
	Get(CategoryAdvisor).Error("query failed: %v", os.ErrNotExist)
	CloseAll()

	date := time.Now().Format("2006-01-02")
	cases := []struct {
		category Category
		want     string
	}{
		{CategoryKernel, "kernel info message"},
		{CategoryKernel, "kernel debug message"},
		{CategoryOntology, "parsed 42 triples"},
		{CategoryStore, "[WARN] cache miss for university.owl"},
		{CategoryAdvisor, "[ERROR] query failed"},
	}
	for _, tc := range cases {
		path := filepath.Join(tempDir, date+"_"+string(tc.category)+".log")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected log file for %s: %v", tc.category, err)
		}
		if !strings.Contains(string(data), tc.want) {
			t.Errorf("log file %s missing %q; got:\n%s", tc.category, tc.want, data)
		}
	}
}

func TestDisabledLoggingIsNoOp(t *testing.T) {
	tempDir := t.TempDir()
	resetState()
	defer resetState()
	t.Setenv("UNIREG_DEBUG", "")

	if err := Configure(tempDir, false, "info"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if Enabled() {
		t.Fatal("expected logging to stay disabled")
	}

	Boot("should not be written")
	Watch("neither should this")
	CloseAll()

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no log files, found %d", len(entries))
	}
}

func TestLevelFiltering(t *testing.T) {
	tempDir := t.TempDir()
	resetState()
	defer resetState()
	t.Setenv("UNIREG_DEBUG", "")

	if err := Configure(tempDir, true, "warn"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	l := Get(CategoryCLI)
	l.Debug("debug suppressed")
	l.Info("info suppressed")
	l.Warn("warn kept")
	l.Error("error kept")
	CloseAll()

	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(tempDir, date+"_cli.log"))
	if err != nil {
		t.Fatalf("expected cli log file: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "suppressed") {
		t.Errorf("suppressed levels leaked into log:\n%s", text)
	}
	if !strings.Contains(text, "warn kept") || !strings.Contains(text, "error kept") {
		t.Errorf("expected warn/error entries, got:\n%s", text)
	}
}

func TestTimerStopWithThreshold(t *testing.T) {
	tempDir := t.TempDir()
	resetState()
	defer resetState()

	if err := Configure(tempDir, true, "debug"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	timer := StartTimer(CategoryKernel, "Evaluate")
	time.Sleep(5 * time.Millisecond)
	elapsed := timer.StopWithThreshold(time.Nanosecond)
	if elapsed < 5*time.Millisecond {
		t.Errorf("elapsed %v shorter than sleep", elapsed)
	}
	CloseAll()

	date := time.Now().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(tempDir, date+"_kernel.log"))
	if err != nil {
		t.Fatalf("expected kernel log file: %v", err)
	}
	if !strings.Contains(string(data), "Evaluate took") {
		t.Errorf("expected threshold warning, got:\n%s", data)
	}
}
