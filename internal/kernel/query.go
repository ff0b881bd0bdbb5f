package kernel

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"

	"unireg/internal/logging"
)

// QueryResult holds the variable bindings a query produced.
type QueryResult struct {
	Bindings []map[string]interface{} `json:"bindings"`
	Duration time.Duration            `json:"duration"`
}

type queryVariable struct {
	Name  string
	Index int
}

type queryShape struct {
	atom      ast.Atom
	variables []queryVariable
}

// parseQueryShape parses a query written in Mangle notation, e.g.
// `taken_code(/student001, Code)`. Upper-case arguments are variables to
// bind; everything else is a constant to match.
func parseQueryShape(query string) (*queryShape, error) {
	clean := strings.TrimSpace(query)
	if clean == "" {
		return nil, fmt.Errorf("empty query")
	}

	if strings.HasPrefix(clean, "?") {
		clean = strings.TrimSpace(clean[1:])
	}
	clean = strings.TrimSuffix(clean, ".")

	atom, err := parse.Atom(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query %q: %w", query, err)
	}

	variables := make([]queryVariable, 0, len(atom.Args))
	for idx, arg := range atom.Args {
		if variable, ok := arg.(ast.Variable); ok {
			if variable.Symbol == "_" {
				continue
			}
			variables = append(variables, queryVariable{Name: variable.Symbol, Index: idx})
		}
	}

	return &queryShape{atom: atom, variables: variables}, nil
}

// Query matches a pattern against the derived fact store. Constants in the
// pattern filter; variables bind. The store must have been evaluated (auto
// or RecomputeRules) for derived predicates to have extension.
func (e *Engine) Query(ctx context.Context, query string) (*QueryResult, error) {
	shape, err := parseQueryShape(query)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	sym, ok := e.predicateIndex[shape.atom.Predicate.Symbol]
	store := e.store
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", shape.atom.Predicate.Symbol)
	}
	if sym.Arity != len(shape.atom.Args) {
		return nil, fmt.Errorf("predicate %s expects %d args, got %d", sym.Symbol, sym.Arity, len(shape.atom.Args))
	}

	timeout := e.config.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Pre-extract the pattern constants once.
	type constraint struct {
		index int
		value interface{}
	}
	var constraints []constraint
	for i, arg := range shape.atom.Args {
		if c, isConst := arg.(ast.Constant); isConst {
			constraints = append(constraints, constraint{index: i, value: baseTermToValue(c)})
		}
	}

	start := time.Now()
	resultChan := make(chan []map[string]interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		var results []map[string]interface{}
		err := store.GetFacts(ast.NewQuery(sym), func(fact ast.Atom) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			for _, c := range constraints {
				if c.index >= len(fact.Args) || !valueEqual(c.value, baseTermToValue(fact.Args[c.index])) {
					return nil
				}
			}

			row := make(map[string]interface{}, len(shape.variables))
			for _, binding := range shape.variables {
				if binding.Index >= len(fact.Args) {
					continue
				}
				row[binding.Name] = baseTermToValue(fact.Args[binding.Index])
			}
			results = append(results, row)
			return nil
		})
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- results
	}()

	select {
	case results := <-resultChan:
		elapsed := time.Since(start)
		logging.KernelDebug("query %s: %d rows in %v", query, len(results), elapsed)
		return &QueryResult{Bindings: results, Duration: elapsed}, nil
	case err := <-errChan:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("query %q timed out after %v: %w", query, time.Since(start), ctx.Err())
	}
}

// QueryStrings runs a query expected to bind exactly one variable and
// returns its values as sorted, de-duplicated strings. Name constants lose
// their leading slash so the caller sees plain values.
func (e *Engine) QueryStrings(ctx context.Context, query string) ([]string, error) {
	result, err := e.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(result.Bindings))
	for _, row := range result.Bindings {
		for _, v := range row {
			s, ok := v.(string)
			if !ok {
				s = fmt.Sprintf("%v", v)
			}
			seen[strings.TrimPrefix(s, "/")] = true
		}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values, nil
}

// Exists reports whether at least one fact matches the pattern.
func (e *Engine) Exists(ctx context.Context, query string) (bool, error) {
	result, err := e.Query(ctx, query)
	if err != nil {
		return false, err
	}
	return len(result.Bindings) > 0, nil
}

// GetFacts returns every stored fact for a predicate.
func (e *Engine) GetFacts(predicate string) ([]Fact, error) {
	e.mu.RLock()
	sym, ok := e.predicateIndex[predicate]
	store := e.store
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", predicate)
	}

	var results []Fact
	err := store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		results = append(results, atomToFact(atom))
		return nil
	})
	return results, err
}
