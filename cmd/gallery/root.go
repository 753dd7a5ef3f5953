package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gallery/internal/config"
	"gallery/internal/format"
)

type outputOptions struct {
	json bool
	yaml bool
}

func (o *outputOptions) structured() bool {
	return o != nil && (o.json || o.yaml)
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		out      outputOptions
		logLevel string
	)

	cmd := &cobra.Command{
		Use:           "gallery",
		Short:         "Gallery keeps a newest-first photo catalog in a single file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if out.json && out.yaml {
				return fmt.Errorf("--json and --yaml are mutually exclusive")
			}
			if out.yaml {
				outputFormatter = format.YAMLFormatter{}
			} else {
				outputFormatter = format.JSONFormatter{}
			}

			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&out.json, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVar(&out.yaml, "yaml", false, "output YAML")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newListCmd(cfg, &out),
		newShowCmd(cfg, &out),
		newAddCmd(cfg, &out),
		newRmCmd(cfg, &out),
		newInfoCmd(cfg, &out),
		newExportCmd(cfg),
		newImportCmd(cfg, &out),
		newReloadCmd(cfg, &out),
		newConfigCmd(cfg),
	)

	return cmd
}
