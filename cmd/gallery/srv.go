package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gallery/internal/catalog"
	"gallery/internal/config"
	"gallery/internal/imaging"
	"gallery/internal/server"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the gallery API server and grid UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.CatalogPath == "" {
				return fmt.Errorf("catalog path is required")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			logger.Info("opening catalog", "path", cfg.CatalogPath)
			store, err := catalog.New(cfg.CatalogPath, catalog.WithLogger(logger.With("component", "catalog")))
			if err != nil {
				return err
			}

			srv := server.New(addr, store, logger)
			srv.ConfigureUploads(cfg.Images.MaxUploadBytes, imaging.Options{
				Target:    imaging.Size{Width: cfg.Images.MaxDimension, Height: cfg.Images.MaxDimension},
				Quality:   cfg.Images.JPEGQuality,
				MaxPixels: cfg.Images.MaxPixels,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
}
