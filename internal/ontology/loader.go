package ontology

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"unireg/internal/logging"

	"github.com/knakk/rdf"
)

// resolveFormat picks the RDF serialization for a file. configured may be
// "auto" (or empty) to select by extension.
func resolveFormat(path, configured string) (rdf.Format, string, error) {
	switch configured {
	case "rdfxml":
		return rdf.RDFXML, "rdfxml", nil
	case "turtle":
		return rdf.Turtle, "turtle", nil
	case "ntriples":
		return rdf.NTriples, "ntriples", nil
	case "auto", "":
	default:
		return rdf.RDFXML, "", fmt.Errorf("unknown ontology format %q", configured)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".owl", ".rdf", ".xml":
		return rdf.RDFXML, "rdfxml", nil
	case ".ttl":
		return rdf.Turtle, "turtle", nil
	case ".nt":
		return rdf.NTriples, "ntriples", nil
	}
	return rdf.RDFXML, "", fmt.Errorf("cannot detect ontology format for %q (use .owl/.rdf/.xml, .ttl or .nt, or set ontology.format)", path)
}

// Load reads an ontology file into a Graph and projects its triples onto the
// engine fact schema. format may be "auto"; namespace defaults to
// DefaultNamespace when empty.
func Load(path, format, namespace string) (*Graph, error) {
	timer := logging.StartTimer(logging.CategoryOntology, "Load "+path)
	defer timer.StopWithInfo()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ontology %s: %w", path, err)
	}
	defer f.Close()

	g, err := Decode(f, path, format, namespace)
	if err != nil {
		return nil, err
	}
	g.stats.Path = path
	return g, nil
}

// Decode parses ontology content from a reader. path is used only for format
// detection and error messages.
func Decode(r io.Reader, path, format, namespace string) (*Graph, error) {
	rdfFormat, formatName, err := resolveFormat(path, format)
	if err != nil {
		return nil, err
	}

	g := NewGraph(namespace)
	g.stats.Format = formatName

	dec := rdf.NewTripleDecoder(r, rdfFormat)
	triples, err := dec.DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s as %s: %w", path, formatName, err)
	}

	for _, tr := range triples {
		g.add(convertTriple(tr))
	}

	if err := g.project(); err != nil {
		return nil, err
	}

	logging.Ontology("loaded %s: %d triples, %d facts (%d students, %d courses, %d professors, %d departments), %d skipped",
		path, g.stats.Triples, g.stats.Projected, g.stats.Students, g.stats.Courses,
		g.stats.Professors, g.stats.Departments, g.stats.Skipped)
	return g, nil
}

// convertTriple maps a decoded rdf.Triple onto the internal term model.
func convertTriple(tr rdf.Triple) Triple {
	return Triple{
		Subject:   subjectValue(tr.Subj),
		Predicate: tr.Pred.String(),
		Object:    objectTerm(tr.Obj),
	}
}

func subjectValue(s rdf.Subject) string {
	if b, ok := s.(rdf.Blank); ok {
		return blankLabel(b)
	}
	return s.String()
}

func objectTerm(o rdf.Object) Term {
	switch t := o.(type) {
	case rdf.Literal:
		term := Term{Kind: TermLiteral, Value: t.String(), Lang: t.Lang()}
		// Plain strings and language-tagged strings carry their implicit
		// datatypes; recording them would only clutter re-serialization.
		if dt := t.DataType.String(); dt != XSDNS+"string" && dt != RDFNS+"langString" {
			term.Datatype = dt
		}
		return term
	case rdf.Blank:
		return Term{Kind: TermBlank, Value: blankLabel(t)}
	default:
		return Term{Kind: TermIRI, Value: o.String()}
	}
}

func blankLabel(b rdf.Blank) string {
	v := b.String()
	if !strings.HasPrefix(v, "_:") {
		v = "_:" + v
	}
	return v
}

// HashFile returns the hex SHA-256 of a file's content. The hash keys the
// fact cache: same hash, same facts.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
