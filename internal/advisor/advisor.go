// Package advisor answers the course-eligibility questions: completed
// courses, prerequisite chains, enrollment checks, available courses,
// professor workload, and course detail lookups. It is a read-only layer of
// queries plus set and sort post-processing over the kernel's derived facts.
package advisor

import (
	"context"
	"fmt"
	"sort"

	"unireg/internal/kernel"
	"unireg/internal/logging"
	"unireg/internal/ontology"
)

// CourseOffering is one enrollable course in an availability listing.
type CourseOffering struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Credits int64  `json:"credits"`
}

// WorkloadEntry is one row of the professor workload report.
type WorkloadEntry struct {
	Professor  string `json:"professor"`
	Department string `json:"department"`
	Courses    int64  `json:"courses"`
}

// CourseDetail describes a single course. Professor and Department fall back
// to "N/A" when the ontology has no such edge for the course.
type CourseDetail struct {
	Code                string   `json:"code"`
	Name                string   `json:"name"`
	Credits             int64    `json:"credits"`
	Professor           string   `json:"professor"`
	Department          string   `json:"department"`
	DirectPrerequisites []string `json:"direct_prerequisites"`
	AllPrerequisites    []string `json:"all_prerequisites"`
}

// Advisor resolves student IDs through the graph's name index and course
// codes through the course_code facts, so callers pass plain strings.
type Advisor struct {
	engine *kernel.Engine
	graph  *ontology.Graph
}

// New returns an advisor over an evaluated engine and its source graph.
func New(engine *kernel.Engine, graph *ontology.Graph) *Advisor {
	return &Advisor{engine: engine, graph: graph}
}

// CoursesTaken returns the sorted course codes a student has completed. A
// student absent from the ontology has completed nothing.
func (a *Advisor) CoursesTaken(ctx context.Context, studentID string) ([]string, error) {
	name, ok := a.graph.NameConstant(studentID)
	if !ok {
		logging.AdvisorDebug("unknown student %q, empty completed set", studentID)
		return []string{}, nil
	}
	codes, err := a.engine.QueryStrings(ctx, fmt.Sprintf("taken_code(%s, Code)", name))
	if err != nil {
		return nil, fmt.Errorf("courses taken for %s: %w", studentID, err)
	}
	return codes, nil
}

// Prerequisites returns the sorted codes of all prerequisites of a course,
// direct and indirect. An unknown code has no prerequisites.
func (a *Advisor) Prerequisites(ctx context.Context, courseCode string) ([]string, error) {
	codes, err := a.engine.QueryStrings(ctx, fmt.Sprintf("prereq_chain(%q, Code)", courseCode))
	if err != nil {
		return nil, fmt.Errorf("prerequisites of %s: %w", courseCode, err)
	}
	return codes, nil
}

// DirectPrerequisites returns the sorted codes of a course's direct
// prerequisites only.
func (a *Advisor) DirectPrerequisites(ctx context.Context, courseCode string) ([]string, error) {
	codes, err := a.engine.QueryStrings(ctx, fmt.Sprintf("direct_prereq(%q, Code)", courseCode))
	if err != nil {
		return nil, fmt.Errorf("direct prerequisites of %s: %w", courseCode, err)
	}
	return codes, nil
}

// CanEnroll reports whether the student satisfies every transitive
// prerequisite of the course, comparing course codes. The second result is
// the sorted list of missing codes. A course with no prerequisites, which
// includes any unknown code, is always enrollable.
func (a *Advisor) CanEnroll(ctx context.Context, studentID, courseCode string) (bool, []string, error) {
	required, err := a.Prerequisites(ctx, courseCode)
	if err != nil {
		return false, nil, err
	}
	taken, err := a.CoursesTaken(ctx, studentID)
	if err != nil {
		return false, nil, err
	}

	takenSet := make(map[string]bool, len(taken))
	for _, code := range taken {
		takenSet[code] = true
	}

	missing := []string{}
	for _, code := range required {
		if !takenSet[code] {
			missing = append(missing, code)
		}
	}
	return len(missing) == 0, missing, nil
}

// AvailableCourses lists every course the student could enroll in now:
// eligible, fully catalogued (code, name, credits), and not yet taken.
// Sorted by course code. An unknown student gets an empty list.
func (a *Advisor) AvailableCourses(ctx context.Context, studentID string) ([]CourseOffering, error) {
	name, ok := a.graph.NameConstant(studentID)
	if !ok {
		logging.AdvisorDebug("unknown student %q, no available courses", studentID)
		return []CourseOffering{}, nil
	}

	result, err := a.engine.Query(ctx, fmt.Sprintf("available(%s, C)", name))
	if err != nil {
		return nil, fmt.Errorf("available courses for %s: %w", studentID, err)
	}

	codes, names, credits, err := a.courseIndex()
	if err != nil {
		return nil, err
	}

	offerings := make([]CourseOffering, 0, len(result.Bindings))
	for _, row := range result.Bindings {
		node, _ := row["C"].(string)
		code, ok := codes[node]
		if !ok {
			continue
		}
		offerings = append(offerings, CourseOffering{
			Code:    code,
			Name:    names[node],
			Credits: credits[node],
		})
	}
	sort.Slice(offerings, func(i, j int) bool { return offerings[i].Code < offerings[j].Code })
	return offerings, nil
}

// ProfessorWorkload returns taught-course counts per professor and
// department, most loaded first; ties break on professor name.
func (a *Advisor) ProfessorWorkload(ctx context.Context) ([]WorkloadEntry, error) {
	result, err := a.engine.Query(ctx, "workload(Prof, Dept, N)")
	if err != nil {
		return nil, fmt.Errorf("professor workload: %w", err)
	}

	entries := make([]WorkloadEntry, 0, len(result.Bindings))
	for _, row := range result.Bindings {
		prof, _ := row["Prof"].(string)
		dept, _ := row["Dept"].(string)
		n, ok := asInt64(row["N"])
		if !ok || prof == "" {
			continue
		}
		entries = append(entries, WorkloadEntry{Professor: prof, Department: dept, Courses: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Courses != entries[j].Courses {
			return entries[i].Courses > entries[j].Courses
		}
		return entries[i].Professor < entries[j].Professor
	})
	return entries, nil
}

// CourseInfo returns the detail record for a course code, or (nil, nil) when
// no course carries the code. When several nodes share a code, the first
// fully catalogued one (by node name) wins.
func (a *Advisor) CourseInfo(ctx context.Context, courseCode string) (*CourseDetail, error) {
	result, err := a.engine.Query(ctx, fmt.Sprintf("course_code(C, %q)", courseCode))
	if err != nil {
		return nil, fmt.Errorf("course info for %s: %w", courseCode, err)
	}

	var nodes []string
	for _, row := range result.Bindings {
		if node, ok := row["C"].(string); ok {
			nodes = append(nodes, node)
		}
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		name, okName, err := a.firstString(ctx, fmt.Sprintf("course_name(%s, N)", node), "N")
		if err != nil {
			return nil, err
		}
		credits, okCredits, err := a.firstInt(ctx, fmt.Sprintf("credit_hours(%s, H)", node), "H")
		if err != nil {
			return nil, err
		}
		// A node with a code but no name or credits is not a catalogued
		// course; try the next node carrying the same code.
		if !okName || !okCredits {
			logging.AdvisorDebug("course node %s has code %s but incomplete catalogue data", node, courseCode)
			continue
		}

		detail := &CourseDetail{
			Code:       courseCode,
			Name:       name,
			Credits:    credits,
			Professor:  "N/A",
			Department: "N/A",
		}

		if prof, ok, err := a.linkedName(ctx, fmt.Sprintf("taught_by(%s, P)", node), "P", "professor_name"); err != nil {
			return nil, err
		} else if ok {
			detail.Professor = prof
		}
		if dept, ok, err := a.linkedName(ctx, fmt.Sprintf("belongs_to_department(%s, D)", node), "D", "department_name"); err != nil {
			return nil, err
		} else if ok {
			detail.Department = dept
		}

		if detail.DirectPrerequisites, err = a.DirectPrerequisites(ctx, courseCode); err != nil {
			return nil, err
		}
		if detail.AllPrerequisites, err = a.Prerequisites(ctx, courseCode); err != nil {
			return nil, err
		}
		return detail, nil
	}

	return nil, nil
}

// courseIndex builds node → code/name/credits lookup maps from the stored
// facts.
func (a *Advisor) courseIndex() (map[string]string, map[string]string, map[string]int64, error) {
	codes := make(map[string]string)
	names := make(map[string]string)
	credits := make(map[string]int64)

	codeFacts, err := a.engine.GetFacts("course_code")
	if err != nil {
		return nil, nil, nil, err
	}
	for _, f := range codeFacts {
		if node, ok := f.Args[0].(string); ok {
			codes[node], _ = f.Args[1].(string)
		}
	}

	nameFacts, err := a.engine.GetFacts("course_name")
	if err != nil {
		return nil, nil, nil, err
	}
	for _, f := range nameFacts {
		if node, ok := f.Args[0].(string); ok {
			names[node], _ = f.Args[1].(string)
		}
	}

	hourFacts, err := a.engine.GetFacts("credit_hours")
	if err != nil {
		return nil, nil, nil, err
	}
	for _, f := range hourFacts {
		if node, ok := f.Args[0].(string); ok {
			credits[node], _ = asInt64(f.Args[1])
		}
	}

	return codes, names, credits, nil
}

// firstString returns the smallest string bound to variable v by the query.
func (a *Advisor) firstString(ctx context.Context, query, v string) (string, bool, error) {
	result, err := a.engine.Query(ctx, query)
	if err != nil {
		return "", false, err
	}
	var values []string
	for _, row := range result.Bindings {
		if s, ok := row[v].(string); ok {
			values = append(values, s)
		}
	}
	if len(values) == 0 {
		return "", false, nil
	}
	sort.Strings(values)
	return values[0], true, nil
}

// firstInt returns the smallest integer bound to variable v by the query.
func (a *Advisor) firstInt(ctx context.Context, query, v string) (int64, bool, error) {
	result, err := a.engine.Query(ctx, query)
	if err != nil {
		return 0, false, err
	}
	var values []int64
	for _, row := range result.Bindings {
		if n, ok := asInt64(row[v]); ok {
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return 0, false, nil
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return values[0], true, nil
}

// linkedName follows an edge query to its target nodes and returns the first
// display name reachable through namePredicate, in node order.
func (a *Advisor) linkedName(ctx context.Context, edgeQuery, v, namePredicate string) (string, bool, error) {
	result, err := a.engine.Query(ctx, edgeQuery)
	if err != nil {
		return "", false, err
	}
	var targets []string
	for _, row := range result.Bindings {
		if node, ok := row[v].(string); ok {
			targets = append(targets, node)
		}
	}
	sort.Strings(targets)

	for _, target := range targets {
		name, ok, err := a.firstString(ctx, fmt.Sprintf("%s(%s, N)", namePredicate, target), "N")
		if err != nil {
			return "", false, err
		}
		if ok {
			return name, true, nil
		}
	}
	return "", false, nil
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
