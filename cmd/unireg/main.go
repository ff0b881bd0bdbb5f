// Package main provides the unireg CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"unireg/internal/system"
)

var (
	// Global flags
	verbose      bool
	configPath   string
	ontologyPath string
	noCache      bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "unireg",
	Short: "unireg - course eligibility answers from a university ontology",
	Long: `unireg loads a university OWL/RDF ontology and answers enrollment
questions over it.

The ontology is projected onto a Datalog fact base (Google Mangle), and
prerequisite chains, eligibility and professor workload fall out of logic
rules instead of hand-written graph walks.

Run without arguments to print the full eligibility report for the
configured student and course.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive UI has its own presentation layer.
		if cmd.Name() == "ui" {
			return nil
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runReport,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .unireg/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&ontologyPath, "ontology", "", "Ontology file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Skip the SQLite fact cache and parse fresh")

	// Report flags
	reportCmd.Flags().StringVar(&reportStudent, "student", "", "Student ID (default from config)")
	reportCmd.Flags().StringVar(&reportCourse, "course", "", "Course code (default from config)")
	reportCmd.Flags().BoolVar(&reportMarkdown, "markdown", false, "Emit the report as Markdown")
	reportCmd.Flags().BoolVar(&reportPretty, "pretty", false, "Render the Markdown report for the terminal")
	rootCmd.Flags().StringVar(&reportStudent, "student", "", "Student ID (default from config)")
	rootCmd.Flags().StringVar(&reportCourse, "course", "", "Course code (default from config)")
	rootCmd.Flags().BoolVar(&reportMarkdown, "markdown", false, "Emit the report as Markdown")
	rootCmd.Flags().BoolVar(&reportPretty, "pretty", false, "Render the Markdown report for the terminal")

	// Export flags
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "turtle", "Output format: turtle, ntriples or jsonld")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to file instead of stdout")

	// Init flags
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")

	// Add commands to root
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(studentCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(workloadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(uiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootSystem assembles the full system honoring the global flags.
func bootSystem(ctx context.Context) (*system.System, error) {
	return system.Boot(ctx, system.Options{
		ConfigPath:   configPath,
		OntologyPath: ontologyPath,
		DisableCache: noCache,
		Verbose:      verbose,
	})
}
