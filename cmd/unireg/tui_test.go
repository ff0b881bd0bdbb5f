package main

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"unireg/cmd/unireg/ui"
	"unireg/internal/advisor"
	"unireg/internal/kernel"
	"unireg/internal/ontology"
)

func consoleFixture() []kernel.Fact {
	f := func(pred string, args ...interface{}) kernel.Fact {
		return kernel.Fact{Predicate: pred, Args: args}
	}
	return []kernel.Fact{
		f("student", "/student001"),
		f("entity_name", "/student001", "Student001"),
		f("student", "/student002"),
		f("entity_name", "/student002", "Student002"),

		f("course", "/cs101"),
		f("entity_name", "/cs101", "CS101"),
		f("course_code", "/cs101", "CS-101"),
		f("course_name", "/cs101", "Introduction to Programming"),
		f("credit_hours", "/cs101", int64(3)),

		f("course", "/cs201"),
		f("entity_name", "/cs201", "CS201"),
		f("course_code", "/cs201", "CS-201"),
		f("course_name", "/cs201", "Data Structures"),
		f("credit_hours", "/cs201", int64(4)),
		f("has_prerequisite", "/cs201", "/cs101"),

		f("has_taken", "/student001", "/cs101"),

		f("professor", "/prof_smith"),
		f("entity_name", "/prof_smith", "ProfSmith"),
		f("professor_name", "/prof_smith", "Dr. Smith"),
		f("works_in_department", "/prof_smith", "/cs_dept"),
		f("taught_by", "/cs101", "/prof_smith"),
		f("taught_by", "/cs201", "/prof_smith"),

		f("department", "/cs_dept"),
		f("entity_name", "/cs_dept", "CSDept"),
		f("department_name", "/cs_dept", "Computer Science"),
	}
}

func newTestAdvisor(t *testing.T) *advisor.Advisor {
	t.Helper()

	eng, err := kernel.NewEngine(kernel.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	if err := eng.LoadDefaults(); err != nil {
		t.Fatalf("LoadDefaults() error = %v", err)
	}
	facts := consoleFixture()
	if err := eng.AddFacts(facts); err != nil {
		t.Fatalf("AddFacts() error = %v", err)
	}
	graph := ontology.Rehydrate(ontology.DefaultNamespace, facts)
	return advisor.New(eng, graph)
}

func testStyles() ui.Styles {
	return ui.NewStyles(ui.LightTheme())
}

func TestAnswerEligibilityYes(t *testing.T) {
	adv := newTestAdvisor(t)

	out, err := answer(context.Background(), adv, testStyles(), tabEligibility, "Student001 CS-201")
	if err != nil {
		t.Fatalf("answer() error = %v", err)
	}
	if !strings.Contains(out, "YES ✓") {
		t.Errorf("expected an eligible verdict, got:\n%s", out)
	}
	if !strings.Contains(out, "CS-101") {
		t.Errorf("expected completed courses in the view, got:\n%s", out)
	}
}

func TestAnswerEligibilityMissing(t *testing.T) {
	adv := newTestAdvisor(t)

	out, err := answer(context.Background(), adv, testStyles(), tabEligibility, "Student002 CS-201")
	if err != nil {
		t.Fatalf("answer() error = %v", err)
	}
	if !strings.Contains(out, "NO ✗") {
		t.Errorf("expected an ineligible verdict, got:\n%s", out)
	}
	if !strings.Contains(out, "CS-101") {
		t.Errorf("expected CS-101 among missing prerequisites, got:\n%s", out)
	}
}

func TestAnswerStudentOverview(t *testing.T) {
	adv := newTestAdvisor(t)

	out, err := answer(context.Background(), adv, testStyles(), tabEligibility, "Student001")
	if err != nil {
		t.Fatalf("answer() error = %v", err)
	}
	for _, want := range []string{"Completed:", "CS-101", "CS-201", "Data Structures"} {
		if !strings.Contains(out, want) {
			t.Errorf("student overview missing %q:\n%s", want, out)
		}
	}
}

func TestAnswerEligibilityEmptyQuery(t *testing.T) {
	adv := newTestAdvisor(t)

	if _, err := answer(context.Background(), adv, testStyles(), tabEligibility, ""); err == nil {
		t.Error("expected an error for an empty eligibility query")
	}
}

func TestAnswerCourse(t *testing.T) {
	adv := newTestAdvisor(t)

	out, err := answer(context.Background(), adv, testStyles(), tabCourse, "CS-201")
	if err != nil {
		t.Fatalf("answer() error = %v", err)
	}
	for _, want := range []string{"CS-201 - Data Structures", "Dr. Smith", "Computer Science", "CS-101"} {
		if !strings.Contains(out, want) {
			t.Errorf("course view missing %q:\n%s", want, out)
		}
	}

	if _, err := answer(context.Background(), adv, testStyles(), tabCourse, "XX-999"); err == nil {
		t.Error("expected an error for an unknown course code")
	}
}

func TestAnswerWorkload(t *testing.T) {
	adv := newTestAdvisor(t)

	out, err := answer(context.Background(), adv, testStyles(), tabWorkload, "")
	if err != nil {
		t.Fatalf("answer() error = %v", err)
	}
	for _, want := range []string{"Dr. Smith", "Computer Science", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("workload view missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleTabCycling(t *testing.T) {
	m := newConsoleModel(nil)
	if m.tab != tabEligibility {
		t.Fatalf("initial tab = %v, want eligibility", m.tab)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(consoleModel)
	if m.tab != tabCourse {
		t.Errorf("after one Tab, tab = %v, want course", m.tab)
	}
	if !strings.Contains(m.input.Placeholder, "course-code") {
		t.Errorf("placeholder not updated: %q", m.input.Placeholder)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(consoleModel)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(consoleModel)
	if m.tab != tabEligibility {
		t.Errorf("tab did not cycle back to eligibility, got %v", m.tab)
	}
}

func TestConsoleQuitKeys(t *testing.T) {
	m := newConsoleModel(nil)

	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := m.Update(tea.KeyMsg{Type: key})
		if cmd == nil {
			t.Fatalf("key %v produced no command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %v did not quit", key)
		}
	}
}

func TestConsoleResultAndError(t *testing.T) {
	m := newConsoleModel(nil)
	m.busy = true

	next, _ := m.Update(resultMsg("hello"))
	m = next.(consoleModel)
	if m.busy {
		t.Error("model still busy after a result")
	}
	if m.body != "hello" {
		t.Errorf("body = %q, want hello", m.body)
	}

	m.busy = true
	next, _ = m.Update(queryErrMsg{err: context.DeadlineExceeded})
	m = next.(consoleModel)
	if m.busy {
		t.Error("model still busy after an error")
	}
	if m.err == nil {
		t.Error("error not recorded on the model")
	}
	if !strings.Contains(m.View(), "error:") {
		t.Error("view does not surface the error")
	}
}

func TestConsoleViewShowsTabs(t *testing.T) {
	m := newConsoleModel(nil)
	view := m.View()
	for _, want := range []string{"unireg", "Eligibility", "Course", "Workload"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
