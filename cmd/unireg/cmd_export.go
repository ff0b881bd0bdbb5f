package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"unireg/internal/config"
	"unireg/internal/export"
	"unireg/internal/ontology"
)

var (
	exportFormat string
	exportOut    string
)

// exportCmd re-serializes the loaded ontology
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-serialize the ontology as Turtle, N-Triples or JSON-LD",
	Long: `Parses the ontology and writes it back out in another RDF syntax.

Examples:
  unireg export --format turtle
  unireg export --format jsonld -o university.jsonld`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	// Export needs the raw triples, so it always parses the file instead
	// of booting from the fact cache.
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if ontologyPath != "" {
		cfg.Ontology.Path = ontologyPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	graph, err := ontology.Load(cfg.Ontology.Path, cfg.Ontology.Format, cfg.Ontology.Namespace)
	if err != nil {
		return fmt.Errorf("failed to load ontology: %w", err)
	}
	logger.Debug("ontology loaded for export",
		zap.String("path", cfg.Ontology.Path),
		zap.Int("triples", graph.Len()),
		zap.String("format", string(format)))

	out, err := export.New(graph).Export(format)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	if exportOut != "" {
		if err := os.WriteFile(exportOut, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		fmt.Printf("Wrote %d triples to %s (%s)\n", graph.Len(), exportOut, format)
		return nil
	}
	fmt.Print(out)
	return nil
}
