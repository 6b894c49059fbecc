package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/thermograph/cmd/app"
	"github.com/Agrid-Dev/thermograph/internal/export"
	"github.com/Agrid-Dev/thermograph/internal/simulation"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Simulate a scenario for the configured duration and export the results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if d, _ := cmd.Flags().GetDuration("duration"); d > 0 {
				cfg.Simulation.Duration = d
			}
			if s, _ := cmd.Flags().GetDuration("step"); s > 0 {
				cfg.Simulation.Step = s
			}
			if out, _ := cmd.Flags().GetString("out"); out != "" {
				cfg.Export.Dir = out
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			r, err := newRunner(cfg, path)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := r.RunBatch(ctx); err != nil {
				return err
			}
			if err := exportRun(ctx, cfg, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d steps, %.0f s simulated\n", r.ID(), r.Steps(), r.Elapsed())
			return nil
		},
	}
	cmd.Flags().Duration("duration", 0, "override simulation.duration")
	cmd.Flags().Duration("step", 0, "override simulation.step")
	cmd.Flags().String("out", "", "override export.dir")
	return cmd
}

// exportRun writes every configured sink. Each exporter returns only once
// its output is complete.
func exportRun(ctx context.Context, cfg app.Config, r *simulation.Runner) error {
	series := r.Series()
	exporters := []export.Exporter{}

	if cfg.Export.Combined || cfg.Export.PerNode {
		exporters = append(exporters, export.CSVExporter{
			Dir:          cfg.Export.Dir,
			Combined:     cfg.Export.Combined,
			CombinedName: cfg.Export.CombinedName,
			PerNode:      cfg.Export.PerNode,
		})
	}

	if cfg.Export.SQLitePath != "" {
		sink, err := export.OpenSQLite(cfg.Export.SQLitePath)
		if err != nil {
			return err
		}
		defer sink.Close()
		snap := r.Get()
		exporters = append(exporters, export.SQLiteExporter{
			Sink: sink,
			Run: export.Run{
				ID:        snap.RunID,
				Name:      snap.Name,
				StepS:     cfg.Simulation.Step.Seconds(),
				CreatedAt: time.Now().UTC(),
			},
		})
	}

	for _, e := range exporters {
		if err := e.Export(ctx, series); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	log.WithFields(log.Fields{"run_id": r.ID(), "sinks": len(exporters)}).Info("export complete")
	return nil
}
