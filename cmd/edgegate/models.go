package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/edgegate/edgegate/pkg/router"
)

func newModelsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List configured models and the lite model used for planning",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			lite := router.DefaultLiteModelStrategy().Pick(cfg.ModelIDList())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tLABEL\tLITE")
			for _, m := range cfg.Models() {
				mark := ""
				if m.ID == lite {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Label, mark)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nupstream: %s\n", router.New(cfg.APIBase).ChatBaseURL())
			return nil
		},
	}
}
