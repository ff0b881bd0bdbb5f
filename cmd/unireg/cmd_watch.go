package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"unireg/internal/watch"
)

// watchCmd keeps the fact base in sync with the ontology file
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the ontology file and reload facts on change",
	Long: `Watches the ontology file, re-projects it into the fact base whenever
it changes on disk, and re-prints the eligibility report. Rapid editor saves
are debounced; a save that fails to parse keeps the previous facts.

Press Ctrl+C to stop.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sys, err := bootSystem(ctx)
	if err != nil {
		return err
	}
	defer sys.Close()

	stats := sys.Kernel.Stats()
	fmt.Printf("Watching %s (%d facts loaded, Ctrl+C to stop)\n",
		sys.Config.Ontology.Path, stats.TotalFacts)

	watcher, err := watch.New(sys.Config.Ontology.Path, func(ctx context.Context, path string) error {
		if err := sys.Reload(ctx); err != nil {
			return err
		}
		n := sys.Kernel.Stats().TotalFacts
		logger.Info("ontology reloaded",
			zap.String("path", path),
			zap.Int("facts", n))
		fmt.Printf("\nReloaded %s: %d facts\n\n", path, n)

		rep, err := sys.Advisor.BuildReport(ctx, sys.Config.Report.Student, sys.Config.Report.Course)
		if err != nil {
			return err
		}
		fmt.Print(rep.Render())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Stop()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	wstats := watcher.GetStats()
	fmt.Printf("\nStopping: %d events, %d reloads, %d errors\n",
		wstats.Events, wstats.Reloads, wstats.ReloadErrors)
	return nil
}
