package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transitworks/paxassign/config"
	"github.com/transitworks/paxassign/infra/feed"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and feed inputs without running",
	RunE:  validate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	midnight, err := cfg.Assignment.Midnight()
	if err != nil {
		return err
	}
	f, err := feed.Load(cfg.Feed.NetworkDir, cfg.Feed.DemandDir, midnight)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}
	fmt.Printf("config ok: %d trip requests, %d stop times, %d stops, %d zones\n",
		len(f.Requests), len(f.Schedule.StopTimes), len(f.Stops), len(f.Zones))
	if !f.Schedule.HasCapacity() && cfg.Assignment.CapacityConstraint {
		fmt.Println("warning: capacity constraint enabled but no stop time carries a capacity")
	}
	return nil
}
