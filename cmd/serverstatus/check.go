package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"serverstatus/internal/config"
	"serverstatus/internal/metrics"
	"serverstatus/internal/models"
	"serverstatus/internal/probe"
)

type checkOptions struct {
	host        string
	name        string
	ports       []int
	output      string
	concurrency int
}

func newCheckCommand(load configLoader) *cobra.Command {
	opts := checkOptions{}
	var timeoutFlag = probe.DefaultTimeout

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether the configured server ports accept TCP connections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if err := applyCheckOverrides(&cfg, opts, flags.Changed("port"), flags.Changed("concurrency")); err != nil {
				return err
			}
			timeout := cfg.Timeout()
			if flags.Changed("timeout") {
				timeout = timeoutFlag
			}

			runner := probe.NewRunner(probe.New(nil), timeout, cfg.Concurrency)
			run := runner.Run(cmd.Context(), cfg.Targets, nil)
			summary := metrics.Summarize(run.Results)

			if err := printRun(cmd.OutOrStdout(), opts.output, run, summary); err != nil {
				return err
			}
			if summary.HasErrors() {
				return fmt.Errorf("%d endpoint(s) could not be classified", summary.Errors)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.host, "host", "", "host to check instead of the configured targets")
	flags.StringVar(&opts.name, "name", "Login Server", "label printed for --host")
	flags.IntSliceVar(&opts.ports, "port", nil, "port(s) to check (repeatable or comma separated)")
	flags.DurationVar(&timeoutFlag, "timeout", probe.DefaultTimeout, "per-connection timeout")
	flags.IntVar(&opts.concurrency, "concurrency", 1, "endpoints checked in parallel")
	flags.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	return cmd
}

func applyCheckOverrides(cfg *config.Config, opts checkOptions, portsSet, concurrencySet bool) error {
	if concurrencySet {
		if opts.concurrency < 1 {
			return errors.New("--concurrency must be at least 1")
		}
		cfg.Concurrency = opts.concurrency
	}

	host := strings.TrimSpace(opts.host)
	switch {
	case host != "":
		if !portsSet {
			return errors.New("--port is required with --host")
		}
		cfg.Targets = []models.Target{{ID: host, Name: opts.name, Host: host, Ports: opts.ports}}
	case portsSet:
		for i := range cfg.Targets {
			cfg.Targets[i].Ports = opts.ports
		}
	}
	return cfg.Validate()
}

func printRun(w io.Writer, format string, run models.Run, summary metrics.Summary) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			models.Run
			Summary metrics.Summary `json:"summary"`
		}{run, summary})
	case "text", "":
		for _, res := range run.Results {
			fmt.Fprintf(w, "%s: %d: %s\n", res.Name, res.Endpoint.Port, res.Status)
			if res.Status == models.StatusError {
				log.Printf("%s: %s: %s", res.Name, res.Endpoint, res.Error)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
