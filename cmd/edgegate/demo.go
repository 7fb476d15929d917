package main

import (
	"context"
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgegate/edgegate/pkg/quota"
)

func newDemoCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Inspect or reset the demo password quota",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show demo usage for the current hour",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, err := openStore(ctx, cfg.KV)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if cfg.KV.Backend == "memory" || cfg.KV.Backend == "none" {
				fmt.Fprintf(cmd.OutOrStdout(), "kv backend %q is per-process; status reflects this process only.\n", cfg.KV.Backend)
			}

			rec, err := quota.New(store, cfg.DemoMaxTimesPerHour).Status(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HOUR (UTC)\tUSED\tMAX\tREMAINING")
			start := time.Unix(rec.Hour*3600, 0).UTC().Format("2006-01-02 15:00")
			remaining := math.Max(0, float64(rec.MaxTimes)-rec.Times)
			fmt.Fprintf(w, "%s\t%.1f\t%d\t%.1f\n", start, rec.Times, rec.MaxTimes, remaining)
			return w.Flush()
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the demo counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, err := openStore(ctx, cfg.KV)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := quota.New(store, cfg.DemoMaxTimesPerHour).Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Demo counter reset.")
			return nil
		},
	}

	cmd.AddCommand(statusCmd, resetCmd)
	return cmd
}
