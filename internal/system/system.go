// Package system wires the subsystems into a bootable whole: configuration,
// logging, the SQLite fact cache, the deductive engine and the advisor.
package system

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"unireg/internal/advisor"
	"unireg/internal/config"
	"unireg/internal/kernel"
	"unireg/internal/logging"
	"unireg/internal/ontology"
	"unireg/internal/store"
)

// Options carries CLI overrides into Boot.
type Options struct {
	ConfigPath   string // empty means config.DefaultPath()
	OntologyPath string // overrides ontology.path when set
	DisableCache bool   // force a fresh parse, no SQLite cache
	Verbose      bool   // debug logging regardless of config
}

// System bundles the booted subsystems. Fields are set once by Boot and
// swapped only by Reload; callers that mix Reload with queries must
// serialize them (watch mode does).
type System struct {
	Config  *config.Config
	Graph   *ontology.Graph
	Kernel  *kernel.Engine
	Advisor *advisor.Advisor
	Store   *store.Store // nil when the cache is disabled

	RunID     string
	FromCache bool // facts came from the cache, not a parse
	BootTime  time.Duration
}

// Boot assembles a ready-to-query system from configuration.
func Boot(ctx context.Context, opts Options) (*System, error) {
	start := time.Now()
	runID := uuid.NewString()[:8]

	// 1. Configuration: file, then environment, then CLI flags.
	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.OntologyPath != "" {
		cfg.Ontology.Path = opts.OntologyPath
	}
	if opts.DisableCache {
		cfg.Cache.Enabled = false
	}
	if opts.Verbose {
		cfg.Logging.Debug = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// 2. Category file logging. The tool still works without log files.
	if err := logging.Configure(cfg.Logging.Dir, cfg.Logging.Debug, cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}
	logging.Boot("run %s: ontology=%s cache=%v", runID, cfg.Ontology.Path, cfg.Cache.Enabled)

	// 3. Open the cache and hash the ontology in parallel; both are I/O.
	var (
		st   *store.Store
		hash string
	)
	var group errgroup.Group
	if cfg.Cache.Enabled {
		group.Go(func() error {
			s, err := store.Open(cfg.Cache.Path)
			if err != nil {
				return fmt.Errorf("failed to open fact cache: %w", err)
			}
			st = s
			return nil
		})
	}
	group.Go(func() error {
		h, err := ontology.HashFile(cfg.Ontology.Path)
		if err != nil {
			return fmt.Errorf("failed to read ontology: %w", err)
		}
		hash = h
		return nil
	})
	if err := group.Wait(); err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}

	// 4. Deductive engine with the built-in schema and eligibility rules,
	// plus any user rule fragments.
	engCfg := kernel.Config{
		FactLimit:    cfg.Engine.FactLimit,
		QueryTimeout: cfg.GetQueryTimeout(),
		AutoEval:     true,
	}
	var persistence kernel.Persistence
	if st != nil {
		persistence = st
	}
	eng, err := kernel.NewEngine(engCfg, persistence)
	if err != nil {
		closeStore(st)
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if err := eng.LoadDefaults(); err != nil {
		closeStore(st)
		return nil, fmt.Errorf("failed to load built-in rules: %w", err)
	}
	if err := eng.LoadRulesDir(cfg.Ontology.RulesDir); err != nil {
		// A broken user fragment stops the boot so it gets fixed rather
		// than silently ignored.
		closeStore(st)
		return nil, fmt.Errorf("failed to load rules from %s: %w", cfg.Ontology.RulesDir, err)
	}

	sys := &System{
		Config: cfg,
		Kernel: eng,
		Store:  st,
		RunID:  runID,
	}

	// 5. Facts: warm from the cache when the file hash matches, otherwise
	// parse and project fresh.
	if st != nil {
		state, err := st.FileState(ctx, cfg.Ontology.Path)
		if err != nil {
			logging.Get(logging.CategoryBoot).Warn("cache lookup for %s failed: %v", cfg.Ontology.Path, err)
		}
		if state != nil && state.Hash == hash {
			facts, err := eng.WarmFromPersistence(ctx, cfg.Ontology.Path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: cache warm failed, reparsing: %v\n", err)
			} else {
				sys.Graph = ontology.Rehydrate(cfg.Ontology.Namespace, facts)
				sys.FromCache = true
			}
		}
	}
	if sys.Graph == nil {
		if err := sys.loadOntology(ctx, hash); err != nil {
			closeStore(st)
			return nil, err
		}
	}

	// 6. Advisor over the engine and graph.
	sys.Advisor = advisor.New(eng, sys.Graph)

	sys.BootTime = time.Since(start)
	stats := eng.Stats()
	logging.Boot("run %s ready in %s: %d facts, cache_hit=%v",
		runID, sys.BootTime.Round(time.Millisecond), stats.TotalFacts, sys.FromCache)
	return sys, nil
}

// loadOntology parses the configured ontology and swaps its facts into the
// engine, recording file state for future warm boots.
func (s *System) loadOntology(ctx context.Context, hash string) error {
	graph, err := ontology.Load(s.Config.Ontology.Path, s.Config.Ontology.Format, s.Config.Ontology.Namespace)
	if err != nil {
		return fmt.Errorf("failed to load ontology: %w", err)
	}

	info, err := os.Stat(s.Config.Ontology.Path)
	if err != nil {
		return fmt.Errorf("failed to stat ontology: %w", err)
	}

	state := kernel.FileState{
		Path:     s.Config.Ontology.Path,
		Format:   graph.Stats().Format,
		Size:     info.Size(),
		ModTime:  info.ModTime().Unix(),
		Hash:     hash,
		Triples:  graph.Len(),
		LoadedAt: time.Now().Unix(),
	}
	if err := s.Kernel.ReplaceFactsForFile(ctx, state, graph.Facts()); err != nil {
		return err
	}
	s.Graph = graph
	return nil
}

// Reload re-parses the ontology file and replaces the fact base. Watch mode
// calls it after the file settles on disk.
func (s *System) Reload(ctx context.Context) error {
	hash, err := ontology.HashFile(s.Config.Ontology.Path)
	if err != nil {
		return fmt.Errorf("failed to read ontology: %w", err)
	}
	if err := s.loadOntology(ctx, hash); err != nil {
		return err
	}
	s.Advisor = advisor.New(s.Kernel, s.Graph)
	s.FromCache = false
	return nil
}

// Close releases the cache and flushes category log files.
func (s *System) Close() error {
	var firstErr error
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			firstErr = err
		}
	}
	logging.CloseAll()
	return firstErr
}

func closeStore(st *store.Store) {
	if st != nil {
		st.Close()
	}
}
