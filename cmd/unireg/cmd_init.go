package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"unireg/internal/config"
)

//go:embed sample/university.owl
var sampleOntology []byte

var initForce bool

// initCmd initializes a unireg workspace
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize unireg in the current directory",
	Long: `Sets up a workspace for unireg.

This command:
  1. Creates the .unireg/ directory structure
  2. Writes a default config.yaml
  3. Writes a sample university ontology if none exists

Run it once, then try 'unireg report'.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}

	cfg := config.DefaultConfig()
	if ontologyPath != "" {
		cfg.Ontology.Path = ontologyPath
	}
	if err := cfg.Save(cfgPath); err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s\n", cfgPath)

	if err := os.MkdirAll(cfg.Ontology.RulesDir, 0755); err != nil {
		return fmt.Errorf("failed to create rules directory: %w", err)
	}
	fmt.Printf("✓ Created %s for extra .mg rule fragments\n", cfg.Ontology.RulesDir)

	// Never clobber a real ontology with the sample.
	if _, err := os.Stat(cfg.Ontology.Path); os.IsNotExist(err) {
		if err := os.WriteFile(cfg.Ontology.Path, sampleOntology, 0644); err != nil {
			return fmt.Errorf("failed to write sample ontology: %w", err)
		}
		fmt.Printf("✓ Wrote sample ontology %s\n", cfg.Ontology.Path)
	} else {
		fmt.Printf("✓ Keeping existing ontology %s\n", cfg.Ontology.Path)
	}

	fmt.Println()
	fmt.Println("Run 'unireg report' to see the eligibility report.")
	return nil
}
