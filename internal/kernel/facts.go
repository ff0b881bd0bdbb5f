package kernel

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"
)

// Fact represents a single fact in the knowledge base. Name constants are
// carried as "/"-prefixed strings, plain strings stay strings, numbers are
// int64.
type Fact struct {
	Predicate string        `json:"predicate"`
	Args      []interface{} `json:"args"`
}

// String returns the Datalog representation of the fact.
func (f Fact) String() string {
	var args []string
	for _, arg := range f.Args {
		switch v := arg.(type) {
		case string:
			if strings.HasPrefix(v, "/") {
				args = append(args, v)
			} else {
				args = append(args, fmt.Sprintf("%q", v))
			}
		case int:
			args = append(args, fmt.Sprintf("%d", v))
		case int64:
			args = append(args, fmt.Sprintf("%d", v))
		case float64:
			args = append(args, fmt.Sprintf("%f", v))
		case bool:
			if v {
				args = append(args, "/true")
			} else {
				args = append(args, "/false")
			}
		default:
			args = append(args, fmt.Sprintf("%v", v))
		}
	}
	return fmt.Sprintf("%s(%s).", f.Predicate, strings.Join(args, ", "))
}

// atomToFact converts a Mangle AST atom back to a Fact.
func atomToFact(a ast.Atom) Fact {
	args := make([]interface{}, len(a.Args))
	for i, term := range a.Args {
		args[i] = baseTermToValue(term)
	}
	return Fact{Predicate: a.Predicate.Symbol, Args: args}
}

// baseTermToValue extracts the Go value from a Mangle base term.
func baseTermToValue(term ast.BaseTerm) interface{} {
	switch t := term.(type) {
	case ast.Constant:
		switch t.Type {
		case ast.NameType:
			return t.Symbol
		case ast.StringType:
			return t.Symbol
		case ast.BytesType:
			return t.Symbol
		case ast.NumberType:
			return t.NumValue
		case ast.Float64Type:
			return math.Float64frombits(uint64(t.NumValue))
		default:
			return t.String()
		}
	case ast.Variable:
		return fmt.Sprintf("?%s", t.Symbol)
	default:
		return fmt.Sprintf("%v", term)
	}
}

// ParseFactString parses one Mangle fact, e.g. `course_code(/cs401, "CS-401")`.
func ParseFactString(factStr string) (Fact, error) {
	facts, err := ParseFactsFromString(factStr + ".")
	if err != nil {
		return Fact{}, err
	}
	if len(facts) == 0 {
		return Fact{}, fmt.Errorf("no facts found in %q", factStr)
	}
	return facts[0], nil
}

// ParseFactsFromString parses a Mangle program fragment and returns its
// ground facts, skipping any rules.
func ParseFactsFromString(content string) ([]Fact, error) {
	parsed, err := parse.Unit(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse facts: %w", err)
	}

	facts := make([]Fact, 0, len(parsed.Clauses))
	for _, clause := range parsed.Clauses {
		if len(clause.Premises) > 0 {
			continue
		}
		facts = append(facts, atomToFact(clause.Head))
	}
	return facts, nil
}

// normalizeValue folds int-ish values to int64 so pattern comparison does not
// depend on which integer type the caller used.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	default:
		return v
	}
}

// valueEqual compares a pattern constant with a stored value.
func valueEqual(pattern, value interface{}) bool {
	return reflect.DeepEqual(normalizeValue(pattern), normalizeValue(value))
}
