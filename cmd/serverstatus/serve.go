package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"serverstatus/internal/config"
	"serverstatus/internal/probe"
	"serverstatus/internal/server"
)

func newServeCommand(load configLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve on-demand checks over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			log.Printf("Loaded %d target(s)", len(cfg.Targets))

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(cfg.Server.Addr, cfg, probe.New(nil))

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Printf("server shutdown: %v", err)
				}
			}()

			log.Printf("serverstatus listening on %s (timeout %s)", cfg.Server.Addr, cfg.Timeout())
			if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.DefaultConfig().Server.Addr, "address for the web server")
	return cmd
}
