package ontology

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"unireg/internal/kernel"
	"unireg/internal/logging"
)

// project walks the loaded triples once and builds the engine facts. Untyped
// vocabulary (owl/rdfs machinery, annotations) is counted, not an error; a
// malformed credit-hours literal is.
func (g *Graph) project() error {
	for _, t := range g.triples {
		switch {
		case t.Predicate == RDFType:
			g.projectType(t)
		case g.inNamespace(t.Predicate):
			if err := g.projectProperty(t); err != nil {
				return err
			}
		default:
			g.skip(t.Predicate)
		}
	}

	// Record the name index as facts so a cached load can restore it.
	norms := make([]string, 0, len(g.localByNorm))
	for norm := range g.localByNorm {
		norms = append(norms, norm)
	}
	sort.Strings(norms)
	for _, norm := range norms {
		g.emit(PredEntityName, "/"+norm, g.localByNorm[norm])
	}
	return nil
}

// Facts returns the projected engine facts.
func (g *Graph) Facts() []kernel.Fact {
	return g.facts
}

func (g *Graph) emit(predicate string, args ...interface{}) {
	g.facts = append(g.facts, kernel.Fact{Predicate: predicate, Args: args})
	g.stats.Projected++
}

func (g *Graph) skip(predicateIRI string) {
	g.stats.Skipped++
	g.stats.Unknown[predicateIRI]++
}

// projectType handles rdf:type triples. Only the four vocabulary classes
// produce facts; owl:NamedIndividual and friends are expected noise.
func (g *Graph) projectType(t Triple) {
	if t.Object.Kind != TermIRI || strings.HasPrefix(t.Subject, "_:") {
		g.stats.Skipped++
		return
	}
	if !g.inNamespace(t.Object.Value) {
		g.stats.Skipped++
		return
	}

	class := localName(t.Object.Value)
	pred, ok := classPredicates[class]
	if !ok {
		g.skip(t.Object.Value)
		return
	}

	g.emit(pred, "/"+g.normalize(t.Subject))
	switch pred {
	case PredStudent:
		g.stats.Students++
	case PredCourse:
		g.stats.Courses++
	case PredProfessor:
		g.stats.Professors++
	case PredDepartment:
		g.stats.Departments++
	}
}

// projectProperty handles triples whose predicate lives in the vocabulary
// namespace.
func (g *Graph) projectProperty(t Triple) error {
	local := localName(t.Predicate)

	if strings.HasPrefix(t.Subject, "_:") {
		logging.OntologyDebug("skipping %s on blank subject %s", local, t.Subject)
		g.stats.Skipped++
		return nil
	}

	if pred, ok := objectPredicates[local]; ok {
		if t.Object.Kind != TermIRI {
			logging.Get(logging.CategoryOntology).Warn(
				"skipping %s(%s): object is not an IRI", local, localName(t.Subject))
			g.stats.Skipped++
			return nil
		}
		g.emit(pred, "/"+g.normalize(t.Subject), "/"+g.normalize(t.Object.Value))
		return nil
	}

	if dp, ok := dataPredicates[local]; ok {
		if t.Object.Kind != TermLiteral {
			logging.Get(logging.CategoryOntology).Warn(
				"skipping %s(%s): object is not a literal", local, localName(t.Subject))
			g.stats.Skipped++
			return nil
		}
		if dp.numeric {
			n, err := strconv.ParseInt(strings.TrimSpace(t.Object.Value), 10, 64)
			if err != nil {
				return fmt.Errorf("%s of %s is not an integer: %q", local, localName(t.Subject), t.Object.Value)
			}
			g.emit(dp.predicate, "/"+g.normalize(t.Subject), n)
			return nil
		}
		g.emit(dp.predicate, "/"+g.normalize(t.Subject), t.Object.Value)
		return nil
	}

	// In-namespace but not part of the fixed vocabulary.
	g.skip(t.Predicate)
	return nil
}
