package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/transitworks/paxassign/app"
	"github.com/transitworks/paxassign/config"
	"github.com/transitworks/paxassign/infra/logger"
)

var (
	cfgPath   string
	outputDir string
	workers   int
)

var rootCmd = &cobra.Command{
	Use:   "paxassign",
	Short: "Transit passenger assignment engine",
	Long: "paxassign assigns passenger trip requests to transit vehicle trips, " +
		"iterating path search, vehicle loading and capacity bumping until the " +
		"assignment converges.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "override the output directory")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "override the search worker count")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if workers > 0 {
		cfg.Assignment.Workers = workers
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
