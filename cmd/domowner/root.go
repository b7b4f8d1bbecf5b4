// cmd/domowner/root.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"domowner/internal/platform/config"
	"domowner/internal/platform/logx"
)

// cli guarda el estado resuelto en PersistentPreRunE.
type cli struct {
	cfg    config.Config
	logger logx.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "domowner",
		Short:         "Infer which organization owns the domains referenced by a record",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logx.NewWithOptions(logx.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			c.logger.Debug("configuration loaded", "file", cfg.ConfigFile, "provider", cfg.Inference.Provider, "backend", cfg.Whois.Backend)
			return nil
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErr(err)
	})

	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newInferCmd(c),
		newExtractCmd(c),
		newWhoisCmd(c),
		newServeCmd(c),
		newCVECmd(c),
		newVersionCmd(),
		newConfigCmd(c),
	)
	return root
}
