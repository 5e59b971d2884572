package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"serverstatus/internal/links"
)

func newLinksCommand(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links [url]",
		Short: "Print the href of every link on a page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			pageURL := cfg.Links.URL
			if len(args) == 1 {
				pageURL = args[0]
			}

			hrefs, err := links.NewScraper(cfg.LinksTimeout()).Fetch(cmd.Context(), pageURL)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, href := range hrefs {
				fmt.Fprintln(out, href)
			}
			return nil
		},
	}
	return cmd
}
