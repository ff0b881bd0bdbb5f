// This file implements the interactive eligibility console using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"unireg/cmd/unireg/ui"
	"unireg/internal/advisor"
)

// uiCmd launches the interactive console
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Interactive eligibility console",
	Long: `Opens an interactive console over the loaded ontology.

Tab switches between the Eligibility, Course and Workload views; Enter runs
the query in the input line; Esc quits.`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sys, err := bootSystem(ctx)
	if err != nil {
		return err
	}
	defer sys.Close()

	p := tea.NewProgram(newConsoleModel(sys.Advisor), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// consoleTab selects which advisor view the input line drives.
type consoleTab int

const (
	tabEligibility consoleTab = iota
	tabCourse
	tabWorkload
	tabCount
)

func (t consoleTab) String() string {
	switch t {
	case tabEligibility:
		return "Eligibility"
	case tabCourse:
		return "Course"
	case tabWorkload:
		return "Workload"
	}
	return "?"
}

func (t consoleTab) placeholder() string {
	switch t {
	case tabEligibility:
		return "student-id [course-code], e.g. Student001 CS-401"
	case tabCourse:
		return "course-code, e.g. CS-401"
	case tabWorkload:
		return "press Enter to compute the workload table"
	}
	return ""
}

// Messages for tea updates
type (
	resultMsg   string
	queryErrMsg struct{ err error }
)

// consoleModel is the model for the interactive console
type consoleModel struct {
	adv    *advisor.Advisor
	input  textinput.Model
	styles ui.Styles

	tab   consoleTab
	body  string
	err   error
	busy  bool
	width int
}

func newConsoleModel(adv *advisor.Advisor) consoleModel {
	styles := ui.DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = tabEligibility.placeholder()
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 128
	ti.Width = 60
	ti.PromptStyle = styles.Prompt

	return consoleModel{
		adv:    adv,
		input:  ti,
		styles: styles,
		tab:    tabEligibility,
		body:   renderHelp(),
	}
}

const helpMarkdown = `# unireg console

Ask enrollment questions against the loaded ontology.

- **Tab** switches between the Eligibility, Course and Workload views
- **Enter** runs the query in the input line
- **Esc** or **Ctrl+C** quits

Try ` + "`Student001 CS-401`" + ` on the Eligibility view, or just a student
ID for their full standing.`

func renderHelp() string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(76),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}

func (m consoleModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyTab:
			m.tab = (m.tab + 1) % tabCount
			m.input.Placeholder = m.tab.placeholder()
			m.input.SetValue("")
			m.err = nil
			return m, nil

		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.err = nil
			return m, m.runQuery()
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 6
		if w < 20 {
			w = 20
		}
		if w > 80 {
			w = 80
		}
		m.input.Width = w
		return m, nil

	case resultMsg:
		m.busy = false
		m.body = string(msg)
		return m, nil

	case queryErrMsg:
		m.busy = false
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

// runQuery answers the current input line off the Update loop.
func (m consoleModel) runQuery() tea.Cmd {
	adv := m.adv
	styles := m.styles
	tab := m.tab
	query := strings.TrimSpace(m.input.Value())

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		body, err := answer(ctx, adv, styles, tab, query)
		if err != nil {
			return queryErrMsg{err}
		}
		return resultMsg(body)
	}
}

// answer renders one advisor query for the given view.
func answer(ctx context.Context, adv *advisor.Advisor, styles ui.Styles, tab consoleTab, query string) (string, error) {
	switch tab {
	case tabEligibility:
		fields := strings.Fields(query)
		switch len(fields) {
		case 0:
			return "", fmt.Errorf("enter a student ID, optionally followed by a course code")
		case 1:
			return studentView(ctx, adv, styles, fields[0])
		default:
			return eligibilityView(ctx, adv, styles, fields[0], fields[1])
		}
	case tabCourse:
		if query == "" {
			return "", fmt.Errorf("enter a course code")
		}
		return courseView(ctx, adv, styles, query)
	case tabWorkload:
		return workloadView(ctx, adv, styles)
	}
	return "", fmt.Errorf("unknown view")
}

func studentView(ctx context.Context, adv *advisor.Advisor, styles ui.Styles, studentID string) (string, error) {
	taken, err := adv.CoursesTaken(ctx, studentID)
	if err != nil {
		return "", err
	}
	available, err := adv.AvailableCourses(ctx, studentID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Student " + studentID))
	b.WriteString("\n")
	b.WriteString(styles.Bold.Render("Completed: "))
	if len(taken) == 0 {
		b.WriteString(styles.Muted.Render("none"))
	} else {
		b.WriteString(strings.Join(taken, ", "))
	}
	b.WriteString("\n\n")

	if len(available) == 0 {
		b.WriteString(styles.Muted.Render("No courses available to enroll."))
		b.WriteString("\n")
		return b.String(), nil
	}
	tbl := ui.NewTable(fmt.Sprintf("Available Courses (%d)", len(available)), "Code", "Course", "Credits")
	for _, c := range available {
		tbl.AddRow(c.Code, c.Name, fmt.Sprintf("%d", c.Credits))
	}
	b.WriteString(tbl.View(styles))
	return b.String(), nil
}

func eligibilityView(ctx context.Context, adv *advisor.Advisor, styles ui.Styles, studentID, courseCode string) (string, error) {
	ok, missing, err := adv.CanEnroll(ctx, studentID, courseCode)
	if err != nil {
		return "", err
	}
	taken, err := adv.CoursesTaken(ctx, studentID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Can %s enroll in %s? ", studentID, courseCode))
	if ok {
		b.WriteString(styles.Success.Render("YES ✓"))
		b.WriteString("\n")
	} else {
		b.WriteString(styles.Error.Render("NO ✗"))
		b.WriteString("\n\n")
		b.WriteString(styles.Bold.Render("Missing prerequisites:"))
		b.WriteString("\n")
		for _, code := range missing {
			b.WriteString("  • " + code + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("Completed: " + strings.Join(taken, ", ")))
	b.WriteString("\n")
	return b.String(), nil
}

func courseView(ctx context.Context, adv *advisor.Advisor, styles ui.Styles, courseCode string) (string, error) {
	info, err := adv.CourseInfo(ctx, courseCode)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", fmt.Errorf("course %s not found in the ontology", courseCode)
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("%s - %s", info.Code, info.Name)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %d\n", styles.Bold.Render("Credits:"), info.Credits))
	b.WriteString(fmt.Sprintf("%s %s\n", styles.Bold.Render("Professor:"), info.Professor))
	b.WriteString(fmt.Sprintf("%s %s\n", styles.Bold.Render("Department:"), info.Department))
	b.WriteString("\n")

	b.WriteString(styles.Bold.Render("Direct Prerequisites:"))
	b.WriteString("\n")
	if len(info.DirectPrerequisites) == 0 {
		b.WriteString(styles.Muted.Render("  none") + "\n")
	}
	for _, p := range info.DirectPrerequisites {
		b.WriteString("  • " + p + "\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.Bold.Render("All Prerequisites (including indirect):"))
	b.WriteString("\n")
	if len(info.AllPrerequisites) == 0 {
		b.WriteString(styles.Muted.Render("  none") + "\n")
	}
	for _, p := range info.AllPrerequisites {
		b.WriteString("  • " + p + "\n")
	}
	return b.String(), nil
}

func workloadView(ctx context.Context, adv *advisor.Advisor, styles ui.Styles) (string, error) {
	entries, err := adv.ProfessorWorkload(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return styles.Muted.Render("No professors in the ontology.") + "\n", nil
	}

	tbl := ui.NewTable("Professor Workload", "Professor", "Department", "Courses")
	for _, e := range entries {
		tbl.AddRow(e.Professor, e.Department, fmt.Sprintf("%d", e.Courses))
	}
	return tbl.View(styles), nil
}

func (m consoleModel) View() string {
	w := m.width
	if w <= 0 || w > 80 {
		w = 80
	}

	var tabs []string
	for t := consoleTab(0); t < tabCount; t++ {
		style := m.styles.Tab
		if t == m.tab {
			style = m.styles.TabOn
		}
		tabs = append(tabs, style.Render(t.String()))
	}

	var b strings.Builder
	b.WriteString(m.styles.Bold.Render("unireg"))
	b.WriteString("  ")
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n")
	b.WriteString(m.styles.RenderDivider(w))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(m.styles.Error.Render("error: "))
		b.WriteString(m.err.Error())
		b.WriteString("\n\n")
	}
	b.WriteString(m.body)
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.styles.Muted.Render("querying..."))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("tab: switch view · enter: run · esc: quit"))
	b.WriteString("\n")
	return b.String()
}
