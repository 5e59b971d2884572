package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"serverstatus/internal/config"
	"serverstatus/internal/iteminfo"
)

func newConvertCommand(load configLoader) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write item id to display name pairs as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("in") {
				cfg.Convert.Input = input
			}
			if cmd.Flags().Changed("out") {
				cfg.Convert.Output = output
			}

			n, err := iteminfo.ConvertFile(cfg.Convert.Input, cfg.Convert.Output)
			if err != nil {
				return err
			}
			log.Printf("converted %d item(s), wrote %s", n, cfg.Convert.Output)
			return nil
		},
	}

	defaults := config.DefaultConfig().Convert
	cmd.Flags().StringVar(&input, "in", defaults.Input, "item info table")
	cmd.Flags().StringVar(&output, "out", defaults.Output, "JSON output file")
	return cmd
}

func newItemCommand(load configLoader) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "item <id or name>",
		Short: "Look up items by id or name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("in") {
				cfg.Convert.Input = input
			}

			data, err := os.ReadFile(cfg.Convert.Input)
			if err != nil {
				return fmt.Errorf("read %s: %w", cfg.Convert.Input, err)
			}
			query := strings.Join(args, " ")
			matches := iteminfo.Find(iteminfo.Convert(string(data)), query)
			if len(matches) == 0 {
				return errors.New("no item matches " + query)
			}
			out := cmd.OutOrStdout()
			for _, m := range matches {
				fmt.Fprintf(out, "%s: %s\n", m.ID, m.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "in", config.DefaultConfig().Convert.Input, "item info table")
	return cmd
}
