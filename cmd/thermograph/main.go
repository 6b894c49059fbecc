package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/thermograph/cmd/app"
	"github.com/Agrid-Dev/thermograph/internal/scenario"
	"github.com/Agrid-Dev/thermograph/internal/simulation"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "thermograph",
		Short: "Lumped-parameter thermal network simulator",
		Long: `thermograph steps a network of thermal components joined by heat
transfer edges (conduction, convection, radiation, solar absorption,
advection) with explicit Euler integration, and exports per-node
temperature histories.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "thermograph.yaml", "path to config file (.yaml/.yml/.json)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newServeCmd(),
		newValidateCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "thermograph version %s\n", version)
		},
	}
}

// loadConfig reads --config and applies the logging section to the
// standard logger.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return app.Config{}, err
	}
	if err := configureLogging(cfg.Log); err != nil {
		return app.Config{}, err
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return cfg, nil
}

func configureLogging(c app.LogConfig) error {
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	switch c.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// newRunner loads the scenario named by cfg and wraps it in a runner.
func newRunner(cfg app.Config, scenarioPath string) (*simulation.Runner, error) {
	if scenarioPath == "" {
		scenarioPath = cfg.Scenario
	}
	spec, err := scenario.Load(scenarioPath)
	if err != nil {
		return nil, err
	}
	topo, err := scenario.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", scenarioPath, err)
	}
	log.WithFields(log.Fields{
		"scenario":   topo.Name,
		"nodes":      len(topo.Graph.Nodes()),
		"edges":      len(topo.Graph.Edges()),
		"boundaries": len(topo.Boundaries),
	}).Info("scenario loaded")
	return simulation.New(cfg.RunID, topo, cfg.Params(), log.StandardLogger())
}
