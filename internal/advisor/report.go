package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unireg/internal/logging"
)

// Report bundles the three standard analysis sections: the student's
// eligibility picture, the focus course's prerequisite analysis, and the
// professor workload table.
type Report struct {
	Student   string           `json:"student"`
	Course    string           `json:"course"`
	Taken     []string         `json:"taken"`
	Available []CourseOffering `json:"available"`
	Detail    *CourseDetail    `json:"detail,omitempty"`
	Eligible  bool             `json:"eligible"`
	Missing   []string         `json:"missing"`
	Workload  []WorkloadEntry  `json:"workload"`
	Generated time.Time        `json:"generated"`
}

// BuildReport runs every section's queries for one student and one focus
// course.
func (a *Advisor) BuildReport(ctx context.Context, studentID, courseCode string) (*Report, error) {
	timer := logging.StartTimer(logging.CategoryAdvisor, "BuildReport")
	defer timer.Stop()

	r := &Report{Student: studentID, Course: courseCode, Generated: time.Now()}

	var err error
	if r.Taken, err = a.CoursesTaken(ctx, studentID); err != nil {
		return nil, err
	}
	if r.Available, err = a.AvailableCourses(ctx, studentID); err != nil {
		return nil, err
	}
	if r.Detail, err = a.CourseInfo(ctx, courseCode); err != nil {
		return nil, err
	}
	if r.Eligible, r.Missing, err = a.CanEnroll(ctx, studentID, courseCode); err != nil {
		return nil, err
	}
	if r.Workload, err = a.ProfessorWorkload(ctx); err != nil {
		return nil, err
	}

	logging.Advisor("report for student=%s course=%s: %d taken, %d available, eligible=%v",
		studentID, courseCode, len(r.Taken), len(r.Available), r.Eligible)
	return r, nil
}

// Render formats the report as plain text.
func (r *Report) Render() string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	dash := strings.Repeat("-", 60)

	b.WriteString(rule + "\n")
	b.WriteString("UNIVERSITY COURSE ELIGIBILITY CHECKER\n")
	b.WriteString(rule + "\n\n")

	b.WriteString("EXAMPLE 1: Course Eligibility Check\n")
	b.WriteString(dash + "\n")
	fmt.Fprintf(&b, "Student: %s\n", r.Student)
	fmt.Fprintf(&b, "Courses Completed: %s\n\n", strings.Join(r.Taken, ", "))
	fmt.Fprintf(&b, "Available Courses to Enroll (%d courses):\n\n", len(r.Available))
	for _, c := range r.Available {
		fmt.Fprintf(&b, "  • %s: %s (%d credits)\n", c.Code, c.Name, c.Credits)
	}
	b.WriteString("\n\n")

	b.WriteString("EXAMPLE 2: Course Prerequisite Analysis\n")
	b.WriteString(dash + "\n")
	if r.Detail != nil {
		d := r.Detail
		fmt.Fprintf(&b, "Course: %s - %s\n", d.Code, d.Name)
		fmt.Fprintf(&b, "Credits: %d\n", d.Credits)
		fmt.Fprintf(&b, "Professor: %s\n", d.Professor)
		fmt.Fprintf(&b, "Department: %s\n\n", d.Department)

		b.WriteString("Direct Prerequisites:\n")
		for _, p := range d.DirectPrerequisites {
			fmt.Fprintf(&b, "  • %s\n", p)
		}
		b.WriteString("\nAll Prerequisites (including indirect):\n")
		for _, p := range d.AllPrerequisites {
			fmt.Fprintf(&b, "  • %s\n", p)
		}
		b.WriteString("\n")

		verdict := "NO ✗"
		if r.Eligible {
			verdict = "YES ✓"
		}
		fmt.Fprintf(&b, "Can %s enroll? %s\n", r.Student, verdict)
		if !r.Eligible {
			fmt.Fprintf(&b, "Missing prerequisites: %s\n", strings.Join(r.Missing, ", "))
		}
	} else {
		fmt.Fprintf(&b, "Course %s not found in the ontology.\n", r.Course)
	}
	b.WriteString("\n\n")

	b.WriteString("EXAMPLE 3: Professor Workload Report\n")
	b.WriteString(dash + "\n")
	fmt.Fprintf(&b, "%-30s %-20s %-10s\n", "Professor", "Department", "Courses")
	b.WriteString(dash + "\n")
	for _, w := range r.Workload {
		fmt.Fprintf(&b, "%-30s %-20s %-10d\n", w.Professor, w.Department, w.Courses)
	}

	b.WriteString("\n" + rule + "\n")
	b.WriteString("Analysis Complete!\n")
	b.WriteString(rule + "\n")
	return b.String()
}

// Markdown formats the report as Markdown, suitable for terminal rendering.
func (r *Report) Markdown() string {
	var b strings.Builder

	b.WriteString("# University Course Eligibility Report\n\n")
	fmt.Fprintf(&b, "Generated %s\n\n", r.Generated.Format("2006-01-02 15:04:05"))

	b.WriteString("## Course Eligibility Check\n\n")
	fmt.Fprintf(&b, "**Student:** %s\n\n", r.Student)
	if len(r.Taken) > 0 {
		fmt.Fprintf(&b, "**Courses completed:** %s\n\n", strings.Join(r.Taken, ", "))
	} else {
		b.WriteString("**Courses completed:** none\n\n")
	}
	fmt.Fprintf(&b, "### Available Courses (%d)\n\n", len(r.Available))
	for _, c := range r.Available {
		fmt.Fprintf(&b, "- **%s**: %s (%d credits)\n", c.Code, c.Name, c.Credits)
	}
	b.WriteString("\n")

	b.WriteString("## Course Prerequisite Analysis\n\n")
	if r.Detail != nil {
		d := r.Detail
		fmt.Fprintf(&b, "**Course:** %s - %s  \n", d.Code, d.Name)
		fmt.Fprintf(&b, "**Credits:** %d  \n", d.Credits)
		fmt.Fprintf(&b, "**Professor:** %s  \n", d.Professor)
		fmt.Fprintf(&b, "**Department:** %s\n\n", d.Department)

		b.WriteString("**Direct prerequisites:**\n\n")
		if len(d.DirectPrerequisites) == 0 {
			b.WriteString("- none\n")
		}
		for _, p := range d.DirectPrerequisites {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n**All prerequisites (including indirect):**\n\n")
		if len(d.AllPrerequisites) == 0 {
			b.WriteString("- none\n")
		}
		for _, p := range d.AllPrerequisites {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")

		if r.Eligible {
			fmt.Fprintf(&b, "**Can %s enroll?** YES\n\n", r.Student)
		} else {
			fmt.Fprintf(&b, "**Can %s enroll?** NO, missing: %s\n\n", r.Student, strings.Join(r.Missing, ", "))
		}
	} else {
		fmt.Fprintf(&b, "Course %s not found in the ontology.\n\n", r.Course)
	}

	b.WriteString("## Professor Workload\n\n")
	b.WriteString("| Professor | Department | Courses |\n")
	b.WriteString("|-----------|------------|--------:|\n")
	for _, w := range r.Workload {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", w.Professor, w.Department, w.Courses)
	}

	return b.String()
}
