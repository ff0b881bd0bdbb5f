// Package ontology loads a university ontology file and projects it onto the
// deductive engine's fact schema. The vocabulary below is the fixed contract
// between the RDF side and the Datalog side.
package ontology

// DefaultNamespace is the base IRI of the university vocabulary.
const DefaultNamespace = "http://www.semanticweb.org/university/ontology#"

// Well-known external namespaces.
const (
	RDFNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNS = "http://www.w3.org/2000/01/rdf-schema#"
	OWLNS  = "http://www.w3.org/2002/07/owl#"
	XSDNS  = "http://www.w3.org/2001/XMLSchema#"
)

// RDFType is the rdf:type predicate IRI.
const RDFType = RDFNS + "type"

// Vocabulary local names (classes).
const (
	ClassStudent    = "Student"
	ClassCourse     = "Course"
	ClassProfessor  = "Professor"
	ClassDepartment = "Department"
)

// Vocabulary local names (object properties).
const (
	PropHasTaken            = "hasTaken"
	PropHasPrerequisite     = "hasPrerequisite"
	PropTaughtBy            = "taughtBy"
	PropWorksInDepartment   = "worksInDepartment"
	PropBelongsToDepartment = "belongsToDepartment"
)

// Vocabulary local names (data properties).
const (
	PropCourseCode     = "courseCode"
	PropCourseName     = "courseName"
	PropCreditHours    = "creditHours"
	PropProfessorName  = "professorName"
	PropDepartmentName = "departmentName"
)

// Datalog predicate names. These must match the Decls in the embedded schema.
const (
	PredStudent    = "student"
	PredCourse     = "course"
	PredProfessor  = "professor"
	PredDepartment = "department"

	PredHasTaken            = "has_taken"
	PredHasPrerequisite     = "has_prerequisite"
	PredTaughtBy            = "taught_by"
	PredWorksInDepartment   = "works_in_department"
	PredBelongsToDepartment = "belongs_to_department"

	PredCourseCode     = "course_code"
	PredCourseName     = "course_name"
	PredCreditHours    = "credit_hours"
	PredProfessorName  = "professor_name"
	PredDepartmentName = "department_name"

	// PredEntityName records the ontology local name behind each name
	// constant, so a cache-hit boot can rebuild the display index without
	// re-parsing RDF.
	PredEntityName = "entity_name"
)

// classPredicates maps class local names to their unary type predicates.
var classPredicates = map[string]string{
	ClassStudent:    PredStudent,
	ClassCourse:     PredCourse,
	ClassProfessor:  PredProfessor,
	ClassDepartment: PredDepartment,
}

// objectPredicates maps object-property local names to binary predicates.
var objectPredicates = map[string]string{
	PropHasTaken:            PredHasTaken,
	PropHasPrerequisite:     PredHasPrerequisite,
	PropTaughtBy:            PredTaughtBy,
	PropWorksInDepartment:   PredWorksInDepartment,
	PropBelongsToDepartment: PredBelongsToDepartment,
}

// dataPredicates maps data-property local names to literal-valued predicates.
// numeric marks predicates whose second argument is an integer.
var dataPredicates = map[string]struct {
	predicate string
	numeric   bool
}{
	PropCourseCode:     {PredCourseCode, false},
	PropCourseName:     {PredCourseName, false},
	PropCreditHours:    {PredCreditHours, true},
	PropProfessorName:  {PredProfessorName, false},
	PropDepartmentName: {PredDepartmentName, false},
}

// Prefixes returns the prefix map used for Turtle/JSON-LD export.
func Prefixes(namespace string) map[string]string {
	return map[string]string{
		"rdf":  RDFNS,
		"rdfs": RDFSNS,
		"owl":  OWLNS,
		"xsd":  XSDNS,
		"uni":  namespace,
	}
}
