package ontology

import (
	"fmt"
	"hash/fnv"
	"strings"

	"unireg/internal/kernel"
	"unireg/internal/logging"
)

// TermKind discriminates RDF term representations.
type TermKind int

const (
	TermIRI TermKind = iota
	TermLiteral
	TermBlank
)

// Term is one RDF term. Value holds the IRI, the blank label (with "_:"
// prefix) or the literal lexical form.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string // literal datatype IRI, empty for plain literals
	Lang     string // literal language tag
}

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

// Triple is one subject-predicate-object statement. Subject and Predicate are
// IRIs (or "_:" blank labels for subjects); the object may be any term.
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

// LoadStats summarizes what a load produced.
type LoadStats struct {
	Path        string
	Format      string
	Triples     int
	Projected   int
	Skipped     int
	Students    int
	Courses     int
	Professors  int
	Departments int
	Unknown     map[string]int // unprojected predicate IRI -> occurrences
}

// Graph holds the parsed ontology: the raw triples for re-serialization, the
// projected engine facts, and the name index used to move between IRIs and
// engine name constants.
type Graph struct {
	namespace string
	triples   []Triple
	facts     []kernel.Fact
	stats     LoadStats

	normByLocal map[string]string // original local name -> normalized
	localByNorm map[string]string // normalized -> original local name
}

// NewGraph returns an empty graph for the given namespace.
func NewGraph(namespace string) *Graph {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Graph{
		namespace:   namespace,
		normByLocal: make(map[string]string),
		localByNorm: make(map[string]string),
		stats:       LoadStats{Unknown: make(map[string]int)},
	}
}

// Rehydrate rebuilds a graph from previously projected facts, without the
// raw triples. After a cache hit this restores the name index (from
// entity_name facts) and the class counts so display lookups and status
// reporting keep working; anything needing triples must re-parse the file.
func Rehydrate(namespace string, facts []kernel.Fact) *Graph {
	g := NewGraph(namespace)
	for _, f := range facts {
		switch f.Predicate {
		case PredEntityName:
			if len(f.Args) != 2 {
				continue
			}
			norm, _ := f.Args[0].(string)
			local, _ := f.Args[1].(string)
			norm = strings.TrimPrefix(norm, "/")
			if norm == "" || local == "" {
				continue
			}
			g.normByLocal[local] = norm
			g.localByNorm[norm] = local
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
	g.facts = facts
	g.stats.Projected = len(facts)
	return g
}

// Namespace returns the vocabulary base IRI.
func (g *Graph) Namespace() string { return g.namespace }

// Len returns the number of loaded triples.
func (g *Graph) Len() int { return len(g.triples) }

// Triples returns the raw statements in load order.
func (g *Graph) Triples() []Triple { return g.triples }

// Stats returns the load statistics.
func (g *Graph) Stats() LoadStats { return g.stats }

// add appends a triple.
func (g *Graph) add(t Triple) {
	g.triples = append(g.triples, t)
	g.stats.Triples++
}

// localName strips the namespace (or any #/ separator) off an IRI.
func localName(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 && i+1 < len(iri) {
		return iri[i+1:]
	}
	return iri
}

// inNamespace reports whether the IRI belongs to the graph's vocabulary.
func (g *Graph) inNamespace(iri string) bool {
	return strings.HasPrefix(iri, g.namespace)
}

// sanitizeLocal lowercases a local name into the engine's name-constant
// alphabet.
func sanitizeLocal(local string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "node"
	}
	return b.String()
}

// normalize maps an entity IRI to its normalized local name, registering it
// in the two-way index. Distinct IRIs that sanitize identically get a stable
// hash suffix so they never merge.
func (g *Graph) normalize(iri string) string {
	local := localName(iri)
	if norm, ok := g.normByLocal[local]; ok {
		return norm
	}

	norm := sanitizeLocal(local)
	if prior, taken := g.localByNorm[norm]; taken && prior != local {
		h := fnv.New32a()
		h.Write([]byte(iri))
		norm = fmt.Sprintf("%s_%x", norm, h.Sum32()&0xffffff)
		logging.Get(logging.CategoryOntology).Warn(
			"name collision: %q and %q both normalize to %q, using %q", prior, local, sanitizeLocal(local), norm)
	}

	g.normByLocal[local] = norm
	g.localByNorm[norm] = local
	return norm
}

// NameConstant returns the engine name constant ("/student001") for an
// entity's local name as written in the ontology ("Student001"). The second
// result is false when the entity never appeared in the loaded file.
func (g *Graph) NameConstant(local string) (string, bool) {
	if norm, ok := g.normByLocal[local]; ok {
		return "/" + norm, true
	}
	return "", false
}

// Display maps a name constant (with or without the leading slash) back to
// the local name as written in the ontology. Unknown names come back as-is.
func (g *Graph) Display(name string) string {
	norm := strings.TrimPrefix(name, "/")
	if local, ok := g.localByNorm[norm]; ok {
		return local
	}
	return name
}

// IRIFor reconstructs the full IRI for a name constant.
func (g *Graph) IRIFor(name string) string {
	return g.namespace + g.Display(name)
}
