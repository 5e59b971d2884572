package main

import (
	"log"

	"github.com/spf13/cobra"

	"serverstatus/internal/config"
	"serverstatus/internal/iteminfo"
)

func newStripCommand(load configLoader) *cobra.Command {
	var input, output, field string

	cmd := &cobra.Command{
		Use:   "strip",
		Short: "Remove a field block from an item info table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("in") {
				cfg.Strip.Input = input
			}
			if flags.Changed("out") {
				cfg.Strip.Output = output
			}
			if flags.Changed("field") {
				cfg.Strip.Field = field
			}

			n, err := iteminfo.StripFile(cfg.Strip.Input, cfg.Strip.Output, cfg.Strip.Field)
			if err != nil {
				return err
			}
			log.Printf("removed %d %s block(s), wrote %s", n, cfg.Strip.Field, cfg.Strip.Output)
			return nil
		},
	}

	defaults := config.DefaultConfig().Strip
	flags := cmd.Flags()
	flags.StringVar(&input, "in", defaults.Input, "input file")
	flags.StringVar(&output, "out", defaults.Output, "output file")
	flags.StringVar(&field, "field", defaults.Field, "field whose block is removed")
	return cmd
}
