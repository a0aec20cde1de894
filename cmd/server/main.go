package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warwolfworks/wolfcore/internal/config"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/internal/injector"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "wolfcore",
		Short:         "Headless entity simulation server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (defaults when empty)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Spawn the configured entities and run the simulation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveSimulation(ctx, cfg)
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the config file and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "config ok: %d weapons, %d spawn entries\n", len(cfg.Weapons), len(cfg.Entities))
			return err
		},
	}

	root.AddCommand(serve, validate)
	root.RunE = serve.RunE
	return root
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func serveSimulation(ctx context.Context, cfg *config.Config) error {
	sim, err := injector.InitializeSimulation(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer sim.Close()

	if _, err := sim.Spawn(); err != nil {
		sim.Logger.Error("Failed to spawn entities", log.Error(err))
		return err
	}

	sim.Logger.Info("Simulation started",
		log.Int("entities", sim.Manager.Len()),
		log.Bool("feed", sim.Feed != nil))

	err = sim.Run(ctx)

	frames, fixed := sim.Manager.Frames()
	sim.Logger.Info("Simulation stopped",
		log.Uint64("frames", frames),
		log.Uint64("fixed_frames", fixed))
	return err
}
