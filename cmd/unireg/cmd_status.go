package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"unireg/internal/ontology"
)

// statusCmd shows ontology, engine and cache state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show unireg system status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sys, err := bootSystem(ctx)
	if err != nil {
		return err
	}
	defer sys.Close()

	cfg := sys.Config
	fmt.Println("unireg System Status")
	fmt.Println("====================")
	fmt.Printf("Version: %s\n", cfg.Version)
	fmt.Printf("Kernel:  Google Mangle (Datalog)\n")
	fmt.Printf("Run:     %s, booted in %s\n", sys.RunID, sys.BootTime.Round(time.Millisecond))
	fmt.Println()

	source := "parsed fresh"
	if sys.FromCache {
		source = "fact cache hit"
	}
	fmt.Printf("✓ Ontology: %s (%s)\n", cfg.Ontology.Path, source)
	gstats := sys.Graph.Stats()
	fmt.Printf("  Students: %d  Courses: %d  Professors: %d  Departments: %d\n",
		gstats.Students, gstats.Courses, gstats.Professors, gstats.Departments)

	kstats := sys.Kernel.Stats()
	fmt.Printf("✓ Engine: %d facts total\n", kstats.TotalFacts)
	fmt.Printf("  %s: %d  %s: %d  eligible: %d  available: %d\n",
		ontology.PredCourse, kstats.PredicateCounts[ontology.PredCourse],
		ontology.PredHasPrerequisite, kstats.PredicateCounts[ontology.PredHasPrerequisite],
		kstats.PredicateCounts["eligible"], kstats.PredicateCounts["available"])

	if sys.Store != nil {
		sstats, err := sys.Store.Stats(ctx)
		if err != nil {
			fmt.Printf("✗ Cache: stats unavailable: %v\n", err)
		} else {
			fmt.Printf("✓ Cache: %s (%d files, %d facts, %d KiB)\n",
				sstats.Path, sstats.Files, sstats.Facts, sstats.SizeBytes/1024)
		}
	} else {
		fmt.Println("✗ Cache disabled")
	}
	return nil
}
