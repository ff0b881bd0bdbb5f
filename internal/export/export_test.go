package export_test

import (
	"encoding/json"
	"strings"
	"testing"

	"unireg/internal/export"
	"unireg/internal/ontology"
)

const sampleTurtle = `@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .
@prefix uni: <http://www.semanticweb.org/university/ontology#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

uni:CS101 rdf:type uni:Course ;
    uni:courseCode "CS-101" ;
    uni:courseName "Intro to \"Programming\"" ;
    uni:creditHours "3"^^xsd:integer .

uni:Student001 rdf:type uni:Student ;
    uni:hasTaken uni:CS101 .
`

func loadSample(t *testing.T) *ontology.Graph {
	t.Helper()
	g, err := ontology.Decode(strings.NewReader(sampleTurtle), "sample.ttl", "auto", "")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return g
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"turtle", "ntriples", "jsonld", "Turtle", " JSONLD "} {
		if _, err := export.ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", s, err)
		}
	}
	if _, err := export.ParseFormat("rdfxml"); err == nil {
		t.Error("ParseFormat(rdfxml) should fail, export does not write RDF/XML")
	}
}

func TestExportTurtle(t *testing.T) {
	out, err := export.New(loadSample(t)).Export(export.FormatTurtle)
	if err != nil {
		t.Fatalf("Export(turtle) error = %v", err)
	}

	for _, fragment := range []string{
		"@prefix uni: <http://www.semanticweb.org/university/ontology#> .",
		"uni:CS101",
		"a uni:Course",
		`uni:courseCode "CS-101"`,
		`"3"^^xsd:integer`,
		`\"Programming\"`,
		"uni:hasTaken uni:CS101",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("Turtle output missing %q\n%s", fragment, out)
		}
	}
}

func TestExportNTriples(t *testing.T) {
	out, err := export.New(loadSample(t)).Export(export.FormatNTriples)
	if err != nil {
		t.Fatalf("Export(ntriples) error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 {
		t.Fatalf("N-Triples output has %d lines, want 6:\n%s", len(lines), out)
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, " .") {
			t.Errorf("line does not end with ' .': %s", line)
		}
	}

	for _, fragment := range []string{
		"<http://www.semanticweb.org/university/ontology#CS101>",
		"<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>",
		`"3"^^<http://www.w3.org/2001/XMLSchema#integer>`,
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("N-Triples output missing %q", fragment)
		}
	}
}

func TestExportJSONLD(t *testing.T) {
	out, err := export.New(loadSample(t)).Export(export.FormatJSONLD)
	if err != nil {
		t.Fatalf("Export(jsonld) error = %v", err)
	}

	var doc struct {
		Context map[string]string        `json:"@context"`
		Graph   []map[string]interface{} `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("JSON-LD output is not valid JSON: %v\n%s", err, out)
	}

	if doc.Context["uni"] != "http://www.semanticweb.org/university/ontology#" {
		t.Errorf("@context uni = %q", doc.Context["uni"])
	}
	if len(doc.Graph) != 2 {
		t.Fatalf("@graph has %d nodes, want 2", len(doc.Graph))
	}

	// Subjects sort lexicographically, so CS101 comes first.
	first := doc.Graph[0]
	if id, _ := first["@id"].(string); !strings.HasSuffix(id, "#CS101") {
		t.Errorf("first node @id = %v, want CS101", first["@id"])
	}
	if _, ok := first["uni:courseCode"]; !ok {
		t.Errorf("CS101 node missing uni:courseCode: %v", first)
	}
}

func TestExportDeterministic(t *testing.T) {
	g := loadSample(t)
	exp := export.New(g)
	for _, format := range []export.Format{export.FormatTurtle, export.FormatNTriples, export.FormatJSONLD} {
		a, err := exp.Export(format)
		if err != nil {
			t.Fatalf("Export(%s) error = %v", format, err)
		}
		b, err := exp.Export(format)
		if err != nil {
			t.Fatalf("Export(%s) error = %v", format, err)
		}
		if a != b {
			t.Errorf("Export(%s) is not deterministic", format)
		}
	}
}

func TestExportEmptyGraph(t *testing.T) {
	if _, err := export.New(ontology.NewGraph("")).Export(export.FormatTurtle); err == nil {
		t.Error("Export of an empty graph should fail")
	}
}
