package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"serverstatus/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("serverstatus: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "serverstatus",
		Short:         "Game server reachability checks and data file helpers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "serverstatus.yaml", "path to configuration file (YAML)")

	load := func() (config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		newCheckCommand(load),
		newServeCommand(load),
		newLinksCommand(load),
		newStripCommand(load),
		newConvertCommand(load),
		newItemCommand(load),
	)
	return root
}

type configLoader func() (config.Config, error)
