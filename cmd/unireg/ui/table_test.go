package ui

import (
	"strings"
	"testing"
)

func TestTableViewEmpty(t *testing.T) {
	tbl := NewTable("Workload", "Professor", "Courses")
	if out := tbl.View(DefaultStyles()); out != "" {
		t.Errorf("empty table rendered %q, want empty string", out)
	}
}

func TestTableViewContainsCells(t *testing.T) {
	tbl := NewTable("Workload", "Professor", "Department", "Courses")
	tbl.AddRow("Dr. Smith", "Computer Science", "4")
	tbl.AddRow("Dr. Jones", "Computer Science", "2")

	out := tbl.View(NewStyles(LightTheme()))
	for _, want := range []string{"Workload", "Professor", "Dr. Smith", "Dr. Jones", "4", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "---") {
		t.Errorf("table output missing header divider:\n%s", out)
	}
}

func TestTableColumnsFitWidestCell(t *testing.T) {
	tbl := NewTable("", "A", "B")
	tbl.AddRow("a very long first cell", "x")

	out := tbl.View(NewStyles(LightTheme()))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected header, divider and row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[2], "a very long first cell") {
		t.Errorf("row cell truncated: %q", lines[2])
	}
}
