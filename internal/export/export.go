// Package export re-serializes a loaded ontology graph as Turtle, N-Triples,
// or JSON-LD.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"unireg/internal/ontology"
)

// Format specifies the output serialization.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
	FormatJSONLD   Format = "jsonld"
)

// ParseFormat validates a format name from a flag or config value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTurtle:
		return FormatTurtle, nil
	case FormatNTriples:
		return FormatNTriples, nil
	case FormatJSONLD:
		return FormatJSONLD, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want turtle, ntriples or jsonld)", s)
	}
}

// Exporter serializes the triples of one graph. Output is deterministic:
// subjects sort lexicographically, type assertions precede other predicates.
type Exporter struct {
	graph    *ontology.Graph
	prefixes map[string]string
}

// New returns an exporter over a parsed graph.
func New(graph *ontology.Graph) *Exporter {
	return &Exporter{
		graph:    graph,
		prefixes: ontology.Prefixes(graph.Namespace()),
	}
}

// Export serializes the graph in the requested format.
func (e *Exporter) Export(format Format) (string, error) {
	if e.graph.Len() == 0 {
		return "", fmt.Errorf("graph holds no triples to export")
	}
	switch format {
	case FormatTurtle:
		return e.toTurtle(), nil
	case FormatNTriples:
		return e.toNTriples(), nil
	case FormatJSONLD:
		return e.toJSONLD()
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// subjectGroup is the triples of one subject, types first.
type subjectGroup struct {
	subject string
	types   []ontology.Triple
	other   []ontology.Triple
}

// groupBySubject orders the graph deterministically.
func (e *Exporter) groupBySubject() []subjectGroup {
	bySubject := make(map[string]*subjectGroup)
	var order []string
	for _, t := range e.graph.Triples() {
		g, ok := bySubject[t.Subject]
		if !ok {
			g = &subjectGroup{subject: t.Subject}
			bySubject[t.Subject] = g
			order = append(order, t.Subject)
		}
		if t.Predicate == ontology.RDFType {
			g.types = append(g.types, t)
		} else {
			g.other = append(g.other, t)
		}
	}
	sort.Strings(order)

	groups := make([]subjectGroup, 0, len(order))
	for _, subj := range order {
		g := bySubject[subj]
		sort.Slice(g.types, func(i, j int) bool { return g.types[i].Object.Value < g.types[j].Object.Value })
		sort.Slice(g.other, func(i, j int) bool {
			if g.other[i].Predicate != g.other[j].Predicate {
				return g.other[i].Predicate < g.other[j].Predicate
			}
			return g.other[i].Object.Value < g.other[j].Object.Value
		})
		groups = append(groups, *g)
	}
	return groups
}

// qname compacts an IRI against the prefix table, falling back to <iri>.
func (e *Exporter) qname(iri string) string {
	var bestPrefix, bestNS string
	for prefix, ns := range e.prefixes {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			bestPrefix, bestNS = prefix, ns
		}
	}
	if bestNS == "" {
		return fmt.Sprintf("<%s>", iri)
	}
	local := iri[len(bestNS):]
	if local == "" || strings.ContainsAny(local, "/#:") {
		return fmt.Sprintf("<%s>", iri)
	}
	return bestPrefix + ":" + local
}

func (e *Exporter) toTurtle() string {
	var sb strings.Builder

	prefixNames := make([]string, 0, len(e.prefixes))
	for p := range e.prefixes {
		prefixNames = append(prefixNames, p)
	}
	sort.Strings(prefixNames)
	for _, p := range prefixNames {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", p, e.prefixes[p])
	}
	sb.WriteString("\n")

	for _, g := range e.groupBySubject() {
		e.writeSubjectTurtle(&sb, g)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (e *Exporter) writeSubjectTurtle(sb *strings.Builder, g subjectGroup) {
	fmt.Fprintf(sb, "%s\n", e.subjectRef(g.subject))

	total := len(g.types) + len(g.other)
	written := 0
	terminator := func() string {
		written++
		if written < total {
			return " ;\n"
		}
		return " .\n"
	}

	for _, t := range g.types {
		fmt.Fprintf(sb, "    a %s%s", e.qname(t.Object.Value), terminator())
	}
	for _, t := range g.other {
		fmt.Fprintf(sb, "    %s %s%s", e.qname(t.Predicate), e.turtleObject(t.Object), terminator())
	}
}

func (e *Exporter) toNTriples() string {
	var sb strings.Builder
	for _, g := range e.groupBySubject() {
		subj := g.subject
		subjRef := "<" + subj + ">"
		if strings.HasPrefix(subj, "_:") {
			subjRef = subj
		}
		for _, t := range g.types {
			fmt.Fprintf(&sb, "%s <%s> <%s> .\n", subjRef, ontology.RDFType, t.Object.Value)
		}
		for _, t := range g.other {
			fmt.Fprintf(&sb, "%s <%s> %s .\n", subjRef, t.Predicate, ntriplesObject(t.Object))
		}
	}
	return sb.String()
}

func (e *Exporter) toJSONLD() (string, error) {
	graph := make([]map[string]interface{}, 0)
	for _, g := range e.groupBySubject() {
		node := map[string]interface{}{
			"@id": g.subject,
		}
		if len(g.types) > 0 {
			types := make([]string, 0, len(g.types))
			for _, t := range g.types {
				types = append(types, e.qname(t.Object.Value))
			}
			node["@type"] = types
		}
		for _, t := range g.other {
			key := e.qname(t.Predicate)
			value := e.jsonldValue(t.Object)
			switch existing := node[key].(type) {
			case nil:
				node[key] = value
			case []interface{}:
				node[key] = append(existing, value)
			default:
				node[key] = []interface{}{existing, value}
			}
		}
		graph = append(graph, node)
	}

	doc := map[string]interface{}{
		"@context": e.prefixes,
		"@graph":   graph,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON-LD: %w", err)
	}
	return string(out) + "\n", nil
}

func (e *Exporter) subjectRef(subject string) string {
	if strings.HasPrefix(subject, "_:") {
		return subject
	}
	return e.qname(subject)
}

func (e *Exporter) turtleObject(o ontology.Term) string {
	switch o.Kind {
	case ontology.TermIRI:
		return e.qname(o.Value)
	case ontology.TermBlank:
		return o.Value
	default:
		lit := "\"" + escapeString(o.Value) + "\""
		if o.Lang != "" {
			return lit + "@" + o.Lang
		}
		if o.Datatype != "" {
			return lit + "^^" + e.qname(o.Datatype)
		}
		return lit
	}
}

func ntriplesObject(o ontology.Term) string {
	switch o.Kind {
	case ontology.TermIRI:
		return "<" + o.Value + ">"
	case ontology.TermBlank:
		return o.Value
	default:
		lit := "\"" + escapeString(o.Value) + "\""
		if o.Lang != "" {
			return lit + "@" + o.Lang
		}
		if o.Datatype != "" {
			return lit + "^^<" + o.Datatype + ">"
		}
		return lit
	}
}

func (e *Exporter) jsonldValue(o ontology.Term) interface{} {
	switch o.Kind {
	case ontology.TermIRI, ontology.TermBlank:
		return map[string]interface{}{"@id": o.Value}
	default:
		if o.Lang != "" {
			return map[string]interface{}{"@value": o.Value, "@language": o.Lang}
		}
		if o.Datatype != "" {
			return map[string]interface{}{"@value": o.Value, "@type": e.qname(o.Datatype)}
		}
		return o.Value
	}
}

// escapeString escapes literal text for Turtle and N-Triples output.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
