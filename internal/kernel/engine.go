// Package kernel wraps the Google Mangle engine behind the fact and query
// surface the rest of unireg talks to. The schema and derivation rules ship
// embedded; callers insert projected ontology facts and read derived ones.
package kernel

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"

	"unireg/internal/logging"
)

//go:embed defaults/schema/*.mg defaults/policy/*.mg
var defaultsFS embed.FS

// Config holds engine limits.
type Config struct {
	FactLimit    int           // maximum stored facts, 0 = unlimited
	QueryTimeout time.Duration // per-query deadline when the caller sets none
	AutoEval     bool          // re-derive rules after every insertion batch
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		FactLimit:    100000,
		QueryTimeout: 10 * time.Second,
		AutoEval:     true,
	}
}

// FileState records the provenance of a projected ontology file. The cache
// uses Hash to decide whether stored facts are still current.
type FileState struct {
	Path      string `json:"path"`
	Format    string `json:"format"`
	Size      int64  `json:"size"`
	ModTime   int64  `json:"modtime"`
	Hash      string `json:"hash"`
	Triples   int    `json:"triples"`
	FactCount int    `json:"fact_count"`
	LoadedAt  int64  `json:"loaded_at"`
}

// Persistence is the durability hook the engine uses to skip re-parsing an
// unchanged ontology. Implemented by the SQLite store.
type Persistence interface {
	ReplaceFactsForFile(ctx context.Context, state FileState, facts []Fact) error
	LoadFacts(ctx context.Context, path string) ([]Fact, error)
	FileState(ctx context.Context, path string) (*FileState, error)
}

// Stats contains engine statistics.
type Stats struct {
	TotalFacts      int            `json:"total_facts"`
	PredicateCounts map[string]int `json:"predicate_counts"`
	LastEval        time.Time      `json:"last_eval"`
}

// Engine wraps the Mangle engine with schema management, typed fact
// insertion and bounded queries.
type Engine struct {
	config Config

	mu              sync.RWMutex
	store           factstore.ConcurrentFactStore
	baseStore       factstore.FactStoreWithRemove
	programInfo     *analysis.ProgramInfo
	declIndex       map[ast.PredicateSym]*ast.Decl
	predicateIndex  map[string]ast.PredicateSym
	schemaFragments []parse.SourceUnit
	factCount       int
	factLimitWarned bool
	autoEval        bool
	lastEval        time.Time
	persistence     Persistence
}

// NewEngine creates an engine with the given limits. persistence may be nil
// when caching is disabled.
func NewEngine(cfg Config, persistence Persistence) (*Engine, error) {
	baseStore := factstore.NewSimpleInMemoryStore()
	return &Engine{
		config:         cfg,
		baseStore:      baseStore,
		store:          factstore.NewConcurrentFactStore(baseStore),
		predicateIndex: make(map[string]ast.PredicateSym),
		autoEval:       cfg.AutoEval,
		persistence:    persistence,
	}, nil
}

// LoadDefaults loads the embedded university schema and derivation rules.
func (e *Engine) LoadDefaults() error {
	for _, dir := range []string{"defaults/schema", "defaults/policy"} {
		entries, err := fs.ReadDir(defaultsFS, dir)
		if err != nil {
			return fmt.Errorf("failed to read embedded %s: %w", dir, err)
		}
		for _, entry := range entries {
			name := dir + "/" + entry.Name()
			data, err := fs.ReadFile(defaultsFS, name)
			if err != nil {
				return fmt.Errorf("failed to read embedded %s: %w", name, err)
			}
			if err := e.LoadRulesString(string(data)); err != nil {
				return fmt.Errorf("failed to load %s: %w", name, err)
			}
			logging.KernelDebug("loaded embedded rules %s", name)
		}
	}
	return nil
}

// LoadRulesFile loads one .mg file from disk.
func (e *Engine) LoadRulesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules file %s: %w", path, err)
	}
	if err := e.LoadRulesString(string(data)); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadRulesDir loads every .mg file in a directory, sorted by name. A missing
// directory is not an error; it just means no extra rules.
func (e *Engine) LoadRulesDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read rules directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".mg") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.LoadRulesFile(filepath.Join(dir, name)); err != nil {
			return err
		}
		logging.Kernel("loaded extra rules %s", filepath.Join(dir, name))
	}
	return nil
}

// LoadRulesString parses and installs a Mangle source fragment (Decls, rules
// or ground facts written as clauses).
func (e *Engine) LoadRulesString(src string) error {
	unit, err := parse.Unit(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("failed to parse rules: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.schemaFragments = append(e.schemaFragments, unit)
	if err := e.rebuildProgramLocked(); err != nil {
		// Roll back the fragment so a bad file does not poison later loads.
		e.schemaFragments = e.schemaFragments[:len(e.schemaFragments)-1]
		if len(e.schemaFragments) > 0 {
			if rerr := e.rebuildProgramLocked(); rerr != nil {
				return fmt.Errorf("failed to analyze rules: %v (rollback also failed: %v)", err, rerr)
			}
		}
		return fmt.Errorf("failed to analyze rules: %w", err)
	}
	return nil
}

// rebuildProgramLocked re-analyzes all loaded fragments and refreshes the
// predicate indexes.
func (e *Engine) rebuildProgramLocked() error {
	if len(e.schemaFragments) == 0 {
		return fmt.Errorf("no rules loaded")
	}

	var clauses []ast.Clause
	var decls []ast.Decl
	for _, fragment := range e.schemaFragments {
		clauses = append(clauses, fragment.Clauses...)
		decls = append(decls, fragment.Decls...)
	}

	unit := parse.SourceUnit{Clauses: clauses, Decls: decls}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return err
	}

	e.programInfo = programInfo
	e.predicateIndex = make(map[string]ast.PredicateSym, len(programInfo.Decls))
	e.declIndex = make(map[ast.PredicateSym]*ast.Decl, len(programInfo.Decls))
	for sym, decl := range programInfo.Decls {
		e.predicateIndex[sym.Symbol] = sym
		e.declIndex[sym] = decl
	}
	return nil
}

// ToggleAutoEval enables or disables rule evaluation after insertion. With
// auto-eval off, facts accumulate until RecomputeRules is called.
func (e *Engine) ToggleAutoEval(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoEval = enabled
}

// RecomputeRules re-derives all rules against the current fact store.
func (e *Engine) RecomputeRules() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no rules loaded; call LoadDefaults first")
	}
	return e.evalLocked()
}

// evalLocked runs the Mangle evaluator over the store.
func (e *Engine) evalLocked() error {
	timer := logging.StartTimer(logging.CategoryKernel, "rule evaluation")
	stats, err := mengine.EvalProgramWithStats(e.programInfo, e.store)
	timer.StopWithThreshold(2 * time.Second)
	if err != nil {
		return fmt.Errorf("rule evaluation failed: %w", err)
	}
	logging.KernelDebug("evaluation stats: %+v", stats)
	e.lastEval = time.Now()
	return nil
}

// AddFact inserts a single fact.
func (e *Engine) AddFact(predicate string, args ...interface{}) error {
	return e.AddFacts([]Fact{{Predicate: predicate, Args: args}})
}

// AddFacts inserts a batch of facts and, with auto-eval on, re-derives rules.
func (e *Engine) AddFacts(facts []Fact) error {
	if len(facts) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no rules loaded; call LoadDefaults first")
	}

	for _, fact := range facts {
		if err := e.insertFactLocked(fact); err != nil {
			return err
		}
	}

	if e.autoEval {
		return e.evalLocked()
	}
	return nil
}

// ReplaceFactsForFile swaps the whole fact base for a freshly projected
// ontology file, re-derives rules and persists the result.
func (e *Engine) ReplaceFactsForFile(ctx context.Context, state FileState, facts []Fact) error {
	e.mu.Lock()
	if e.programInfo == nil {
		e.mu.Unlock()
		return fmt.Errorf("no rules loaded; call LoadDefaults first")
	}

	e.resetStoreLocked()
	for _, fact := range facts {
		if err := e.insertFactLocked(fact); err != nil {
			e.mu.Unlock()
			return err
		}
	}

	if e.autoEval {
		if err := e.evalLocked(); err != nil {
			e.mu.Unlock()
			return err
		}
	}

	shouldPersist := e.persistence != nil && !isNilPersistence(e.persistence)
	e.mu.Unlock()

	logging.Kernel("replaced facts for %s: %d facts (hash %.12s)", state.Path, len(facts), state.Hash)

	if shouldPersist {
		state.FactCount = len(facts)
		if err := e.persistence.ReplaceFactsForFile(ctx, state, facts); err != nil {
			return fmt.Errorf("persist facts for %s: %w", state.Path, err)
		}
	}
	return nil
}

// WarmFromPersistence hydrates the fact store from the cache, skipping the
// RDF parse entirely. Returns the loaded base facts so callers can rebuild
// derived views (such as the entity name index) from the same slice.
func (e *Engine) WarmFromPersistence(ctx context.Context, path string) ([]Fact, error) {
	if e.persistence == nil || isNilPersistence(e.persistence) {
		return nil, fmt.Errorf("no persistence configured")
	}

	facts, err := e.persistence.LoadFacts(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load persisted facts: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return nil, fmt.Errorf("no rules loaded; call LoadDefaults first")
	}

	e.resetStoreLocked()
	for _, fact := range facts {
		if err := e.insertFactLocked(fact); err != nil {
			return nil, fmt.Errorf("hydrate fact %s: %w", fact.Predicate, err)
		}
	}

	if e.autoEval {
		if err := e.evalLocked(); err != nil {
			return nil, err
		}
	}

	logging.Kernel("warm start for %s: %d cached facts", path, len(facts))
	return facts, nil
}

// resetStoreLocked drops every stored fact, base and derived.
func (e *Engine) resetStoreLocked() {
	e.baseStore = factstore.NewSimpleInMemoryStore()
	e.store = factstore.NewConcurrentFactStore(e.baseStore)
	e.factCount = 0
	e.factLimitWarned = false
}

// Clear removes all facts from the store.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetStoreLocked()
}

// Close releases engine resources.
func (e *Engine) Close() error {
	return nil
}

// isNilPersistence guards against typed nil persistence implementations.
func isNilPersistence(p Persistence) bool {
	if p == nil {
		return true
	}
	val := reflect.ValueOf(p)
	return val.Kind() == reflect.Ptr && val.IsNil()
}

func (e *Engine) insertFactLocked(fact Fact) error {
	if e.config.FactLimit > 0 && e.factCount >= e.config.FactLimit {
		return fmt.Errorf("fact limit exceeded: %d", e.config.FactLimit)
	}

	atom, err := e.factToAtomLocked(fact)
	if err != nil {
		return err
	}

	if e.store.Add(atom) {
		e.factCount++
		e.maybeWarnFactLimit()
	}
	return nil
}

func (e *Engine) maybeWarnFactLimit() {
	if e.config.FactLimit <= 0 || e.factLimitWarned {
		return
	}
	utilization := float64(e.factCount) / float64(e.config.FactLimit)
	if utilization >= 0.85 {
		fmt.Fprintf(os.Stderr, "warning: fact store is %.1f%% of configured capacity (%d / %d)\n",
			utilization*100, e.factCount, e.config.FactLimit)
		logging.Get(logging.CategoryKernel).Warn("fact store at %.1f%% of capacity (%d / %d)",
			utilization*100, e.factCount, e.config.FactLimit)
		e.factLimitWarned = true
	}
}

// factToAtomLocked converts a Fact to a typed Mangle atom, consulting the
// predicate's declared bounds so strings land as names or strings correctly.
func (e *Engine) factToAtomLocked(fact Fact) (ast.Atom, error) {
	sym, ok := e.predicateIndex[fact.Predicate]
	if !ok {
		return ast.Atom{}, fmt.Errorf("predicate %s is not declared", fact.Predicate)
	}
	if len(fact.Args) != sym.Arity {
		return ast.Atom{}, fmt.Errorf("predicate %s expects %d args, got %d", fact.Predicate, sym.Arity, len(fact.Args))
	}

	decl := e.declIndex[sym]

	args := make([]ast.BaseTerm, len(fact.Args))
	for i, raw := range fact.Args {
		var expectedType ast.ConstantType = -1
		if decl != nil && len(decl.Bounds) > 0 {
			bounds := decl.Bounds[0].Bounds
			if len(bounds) > i {
				if c, ok := bounds[i].(ast.Constant); ok {
					switch c.Symbol {
					case "/name":
						expectedType = ast.NameType
					case "/string":
						expectedType = ast.StringType
					case "/number":
						expectedType = ast.NumberType
					case "/bytes":
						expectedType = ast.BytesType
					}
				}
			}
		}

		term, err := convertValueToTypedTerm(raw, expectedType)
		if err != nil {
			return ast.Atom{}, fmt.Errorf("predicate %s arg %d: %w", fact.Predicate, i, err)
		}
		args[i] = term
	}

	return ast.Atom{Predicate: sym, Args: args}, nil
}

// convertValueToTypedTerm converts a Go value to a Mangle term, honoring the
// declared bound when there is one.
func convertValueToTypedTerm(value interface{}, expectedType ast.ConstantType) (ast.BaseTerm, error) {
	switch expectedType {
	case ast.NameType:
		if s, ok := value.(string); ok {
			if !strings.HasPrefix(s, "/") {
				return ast.Name("/" + s)
			}
			return ast.Name(s)
		}
	case ast.StringType:
		if s, ok := value.(string); ok {
			return ast.String(s), nil
		}
	case ast.NumberType:
		// Tolerate floats that are really integers, e.g. values that went
		// through a lossy decode on the way here.
		if f, ok := value.(float64); ok && f == math.Trunc(f) {
			return ast.Number(int64(f)), nil
		}
	}

	switch v := value.(type) {
	case ast.BaseTerm:
		return v, nil
	case string:
		if strings.HasPrefix(v, "/") {
			return ast.Name(v)
		}
		if expectedType != ast.StringType && isIdentifier(v) {
			if name, err := ast.Name("/" + v); err == nil {
				return name, nil
			}
		}
		return ast.String(v), nil
	case int:
		return ast.Number(int64(v)), nil
	case int32:
		return ast.Number(int64(v)), nil
	case int64:
		return ast.Number(v), nil
	case float32:
		return ast.Float64(float64(v)), nil
	case float64:
		return ast.Float64(v), nil
	case bool:
		if v {
			return ast.TrueConstant, nil
		}
		return ast.FalseConstant, nil
	default:
		return nil, fmt.Errorf("unsupported fact argument type %T", v)
	}
}

// isIdentifier reports whether s is a valid Mangle identifier
// ([a-z_][a-zA-Z0-9_]*), eligible for promotion to a name constant.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !((c >= 'a' && c <= 'z') || c == '_') {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_') {
			return false
		}
	}
	return true
}

// Stats returns fact counts per predicate.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[string]int)
	for _, sym := range e.store.ListPredicates() {
		localCount := 0
		_ = e.store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			localCount++
			return nil
		})
		counts[sym.Symbol] = localCount
	}

	return Stats{
		TotalFacts:      e.store.EstimateFactCount(),
		PredicateCounts: counts,
		LastEval:        e.lastEval,
	}
}
