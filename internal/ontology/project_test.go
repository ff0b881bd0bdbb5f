package ontology

import (
	"strings"
	"testing"

	"unireg/internal/kernel"
)

const fixturePrefixes = `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .
@prefix uni: <http://www.semanticweb.org/university/ontology#> .
`

func decodeTurtle(t *testing.T, body string) *Graph {
	t.Helper()
	g, err := Decode(strings.NewReader(fixturePrefixes+body), "fixture.ttl", "turtle", "")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return g
}

func wantFact(t *testing.T, facts []kernel.Fact, predicate string, args ...interface{}) {
	t.Helper()
	if !containsFact(facts, predicate, args...) {
		t.Errorf("fact %s%v not projected", predicate, args)
	}
}

func containsFact(facts []kernel.Fact, predicate string, args ...interface{}) bool {
	for _, f := range facts {
		if f.Predicate != predicate || len(f.Args) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if f.Args[i] != args[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func TestProjectCampusFacts(t *testing.T) {
	g := decodeCampus(t)
	facts := g.Facts()

	wantFact(t, facts, PredStudent, "/student001")
	wantFact(t, facts, PredCourse, "/cs101")
	wantFact(t, facts, PredCourse, "/cs201")
	wantFact(t, facts, PredProfessor, "/profsmith")
	wantFact(t, facts, PredDepartment, "/csdept")

	wantFact(t, facts, PredCourseCode, "/cs101", "CS-101")
	wantFact(t, facts, PredCourseName, "/cs201", "Data Structures")
	wantFact(t, facts, PredCreditHours, "/cs101", int64(3))
	wantFact(t, facts, PredCreditHours, "/cs201", int64(4))
	wantFact(t, facts, PredProfessorName, "/profsmith", "Dr. Smith")
	wantFact(t, facts, PredDepartmentName, "/csdept", "Computer Science")

	wantFact(t, facts, PredHasPrerequisite, "/cs201", "/cs101")
	wantFact(t, facts, PredHasTaken, "/student001", "/cs101")
	wantFact(t, facts, PredTaughtBy, "/cs101", "/profsmith")
	wantFact(t, facts, PredWorksInDepartment, "/profsmith", "/csdept")
	wantFact(t, facts, PredBelongsToDepartment, "/cs101", "/csdept")

	if len(facts) != 23 {
		t.Errorf("projected %d facts, want 23", len(facts))
	}

	stats := g.Stats()
	if stats.Students != 1 || stats.Courses != 2 || stats.Professors != 1 || stats.Departments != 1 {
		t.Errorf("class counts = %d/%d/%d/%d, want 1/2/1/1",
			stats.Students, stats.Courses, stats.Professors, stats.Departments)
	}
	if stats.Projected != len(facts) {
		t.Errorf("Projected = %d, want %d", stats.Projected, len(facts))
	}
	// rdfs:label is outside the vocabulary and must be counted, not fail.
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
	if stats.Unknown[RDFSNS+"label"] != 1 {
		t.Errorf("Unknown[rdfs:label] = %d, want 1", stats.Unknown[RDFSNS+"label"])
	}
}

// The name index is serialized as entity_name facts in sorted order so cached
// loads replay deterministically.
func TestProjectEntityNamesSorted(t *testing.T) {
	g := decodeCampus(t)

	var names []kernel.Fact
	for _, f := range g.Facts() {
		if f.Predicate == PredEntityName {
			names = append(names, f)
		}
	}
	wantOrder := []string{"/cs101", "/cs201", "/csdept", "/profsmith", "/student001"}
	if len(names) != len(wantOrder) {
		t.Fatalf("got %d entity_name facts, want %d", len(names), len(wantOrder))
	}
	for i, f := range names {
		if f.Args[0] != wantOrder[i] {
			t.Errorf("entity_name[%d] = %v, want %s", i, f.Args[0], wantOrder[i])
		}
	}
	wantFact(t, names, PredEntityName, "/cs101", "CS101")
	wantFact(t, names, PredEntityName, "/profsmith", "ProfSmith")
}

func TestProjectBadCreditHours(t *testing.T) {
	_, err := Decode(strings.NewReader(fixturePrefixes+`
uni:CS101 a uni:Course ;
    uni:creditHours "three" .
`), "fixture.ttl", "turtle", "")
	if err == nil {
		t.Fatal("Decode() succeeded with non-integer credit hours")
	}
	if !strings.Contains(err.Error(), "not an integer") || !strings.Contains(err.Error(), "creditHours") {
		t.Errorf("error = %v, want creditHours integer failure", err)
	}
}

func TestProjectForeignAndUnknownTypes(t *testing.T) {
	g := decodeTurtle(t, `
uni:Student001 a owl:NamedIndividual .
uni:Library a uni:Building .
`)
	if n := len(g.Facts()); n != 0 {
		t.Errorf("projected %d facts, want 0", n)
	}
	if g.Stats().Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", g.Stats().Skipped)
	}
	if g.Stats().Unknown[DefaultNamespace+"Building"] != 1 {
		t.Errorf("Unknown[uni:Building] = %d, want 1", g.Stats().Unknown[DefaultNamespace+"Building"])
	}
}

func TestProjectInNamespaceUnknownProperty(t *testing.T) {
	g := decodeTurtle(t, `
uni:ProfSmith uni:officeNumber "B-214" .
`)
	if n := len(g.Facts()); n != 0 {
		t.Errorf("projected %d facts, want 0", n)
	}
	if g.Stats().Unknown[DefaultNamespace+"officeNumber"] != 1 {
		t.Errorf("Unknown[uni:officeNumber] = %d, want 1", g.Stats().Unknown[DefaultNamespace+"officeNumber"])
	}
}

// Object properties need IRI objects and data properties need literals;
// anything else is skipped with a warning instead of producing bad facts.
func TestProjectMismatchedObjects(t *testing.T) {
	g := decodeTurtle(t, `
uni:Student001 a uni:Student ;
    uni:hasTaken "CS101" .
uni:CS101 uni:courseName uni:CS201 .
`)
	facts := g.Facts()
	wantFact(t, facts, PredStudent, "/student001")
	if containsFact(facts, PredHasTaken, "/student001", "CS101") {
		t.Error("literal-valued hasTaken was projected")
	}
	for _, f := range facts {
		if f.Predicate == PredCourseName {
			t.Errorf("IRI-valued courseName was projected: %v", f)
		}
	}
	if g.Stats().Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", g.Stats().Skipped)
	}
}

func TestProjectBlankSubjects(t *testing.T) {
	g := decodeTurtle(t, `
_:b1 a uni:Student .
_:b2 uni:hasTaken uni:CS101 .
`)
	if n := len(g.Facts()); n != 0 {
		t.Errorf("projected %d facts from blank subjects, want 0", n)
	}
	if g.Stats().Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", g.Stats().Skipped)
	}
}

func TestProjectNameCollision(t *testing.T) {
	g := decodeTurtle(t, `
uni:Student001 a uni:Student .
uni:STUDENT001 a uni:Student .
`)
	first, ok := g.NameConstant("Student001")
	if !ok || first != "/student001" {
		t.Fatalf("NameConstant(Student001) = %q, %v", first, ok)
	}
	second, ok := g.NameConstant("STUDENT001")
	if !ok {
		t.Fatal("NameConstant(STUDENT001) not found")
	}
	if second == first {
		t.Fatal("colliding local names were merged")
	}
	if !strings.HasPrefix(second, "/student001_") {
		t.Errorf("collision suffix = %q, want /student001_ prefix", second)
	}
	if got := g.Display(second); got != "STUDENT001" {
		t.Errorf("Display(%q) = %q, want STUDENT001", second, got)
	}
	if g.Stats().Students != 2 {
		t.Errorf("Students = %d, want 2", g.Stats().Students)
	}
}
