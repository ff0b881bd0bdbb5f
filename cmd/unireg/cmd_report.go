package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	reportStudent  string
	reportCourse   string
	reportMarkdown bool
	reportPretty   bool
)

// reportCmd prints the three-section eligibility report
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the full eligibility report",
	Long: `Prints the three-section report for the configured student and course:

  1. Course eligibility check (completed and available courses)
  2. Course prerequisite analysis (direct and transitive chains)
  3. Professor workload report

Defaults come from report.student and report.course in the config file.`,
	RunE: runReport,
}

// checkCmd answers a single enrollment question
var checkCmd = &cobra.Command{
	Use:   "check [student-id] [course-code]",
	Short: "Check whether a student can enroll in a course",
	Long: `Checks enrollment eligibility for one student and one course.

Example:
  unireg check Student001 CS-401`,
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

// studentCmd summarizes one student's standing
var studentCmd = &cobra.Command{
	Use:   "student [student-id]",
	Short: "Show a student's completed and available courses",
	Args:  cobra.ExactArgs(1),
	RunE:  runStudent,
}

// courseCmd describes one course and its prerequisite chain
var courseCmd = &cobra.Command{
	Use:   "course [course-code]",
	Short: "Show course details and prerequisite chains",
	Args:  cobra.ExactArgs(1),
	RunE:  runCourse,
}

// workloadCmd prints the professor workload table
var workloadCmd = &cobra.Command{
	Use:   "workload",
	Short: "Show taught-course counts per professor",
	RunE:  runWorkload,
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sys, err := bootSystem(ctx)
	if err != nil {
		return err
	}
	defer sys.Close()

	student := sys.Config.Report.Student
	if reportStudent != "" {
		student = reportStudent
	}
	course := sys.Config.Report.Course
	if reportCourse != "" {
		course = reportCourse
	}
	logger.Debug("building report",
		zap.String("student", student),
		zap.String("course", course),
		zap.Bool("cache_hit", sys.FromCache))

	rep, err := sys.Advisor.BuildReport(ctx, student, course)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	if reportMarkdown || reportPretty {
		md := rep.Markdown()
		if reportPretty {
			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(100),
			)
			if err == nil {
				if out, err := renderer.Render(md); err == nil {
					fmt.Print(out)
					return nil
				}
			}
			// Fall through to raw Markdown if the renderer is unhappy.
		}
		fmt.Print(md)
		return nil
	}

	fmt.Print(rep.Render())
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sys, err := bootSystem(ctx)
	if err != nil {
		return err
	}
	defer sys.Close()

	studentID, courseCode := args[0], args[1]
	ok, missing, err := sys.Advisor.CanEnroll(ctx, studentID, courseCode)
	if err != nil {
		return fmt.Errorf("failed to check eligibility: %w", err)
	}

	if ok {
		fmt.Printf("Can %s enroll in %s? YES ✓\n", studentID, courseCode)
	} else {
		fmt.Printf("Can %s enroll in %s? NO ✗\n", studentID, courseCode)
		fmt.Printf("Missing prerequisites: %s\n", strings.Join(missing, ", "))
	}
	return nil
}

func runStudent(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sys, err := bootSystem(ctx)
	if err != nil {
		return err
	}
	defer sys.Close()

	studentID := args[0]
	taken, err := sys.Advisor.CoursesTaken(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to list completed courses: %w", err)
	}
	available, err := sys.Advisor.AvailableCourses(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to list available courses: %w", err)
	}

	fmt.Printf("Student: %s\n", studentID)
	fmt.Printf("Courses Completed: %s\n", strings.Join(taken, ", "))
	fmt.Println()
	fmt.Printf("Available Courses to Enroll (%d courses):\n\n", len(available))
	for _, c := range available {
		fmt.Printf("  • %s: %s (%d credits)\n", c.Code, c.Name, c.Credits)
	}
	return nil
}

func runCourse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sys, err := bootSystem(ctx)
	if err != nil {
		return err
	}
	defer sys.Close()

	courseCode := args[0]
	info, err := sys.Advisor.CourseInfo(ctx, courseCode)
	if err != nil {
		return fmt.Errorf("failed to look up course: %w", err)
	}
	if info == nil {
		return fmt.Errorf("course %s not found in the ontology", courseCode)
	}

	fmt.Printf("Course: %s - %s\n", info.Code, info.Name)
	fmt.Printf("Credits: %d\n", info.Credits)
	fmt.Printf("Professor: %s\n", info.Professor)
	fmt.Printf("Department: %s\n", info.Department)
	fmt.Println()
	fmt.Println("Direct Prerequisites:")
	for _, p := range info.DirectPrerequisites {
		fmt.Printf("  • %s\n", p)
	}
	fmt.Println()
	fmt.Println("All Prerequisites (including indirect):")
	for _, p := range info.AllPrerequisites {
		fmt.Printf("  • %s\n", p)
	}
	return nil
}

func runWorkload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sys, err := bootSystem(ctx)
	if err != nil {
		return err
	}
	defer sys.Close()

	entries, err := sys.Advisor.ProfessorWorkload(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute workload: %w", err)
	}

	fmt.Printf("%-30s %-20s %-10s\n", "Professor", "Department", "Courses")
	fmt.Println(strings.Repeat("-", 60))
	for _, e := range entries {
		fmt.Printf("%-30s %-20s %-10d\n", e.Professor, e.Department, e.Courses)
	}
	return nil
}
