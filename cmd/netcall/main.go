package main

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/brizzai/netcall/internal/config"
	"github.com/brizzai/netcall/internal/logger"
	"github.com/brizzai/netcall/internal/parser"
	"github.com/brizzai/netcall/internal/requester"
)

func main() {
	Execute()
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "netcall",
		Short: "Send HTTP requests described by YAML or OpenAPI",
		Long: `netcall sends one HTTP request described by a YAML descriptor file or by an
OpenAPI operation, validates the response status and decodes the body.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				pterm.Info.WithWriter(cmd.OutOrStdout()).Println(config.GetVersionInfo())
				return nil
			}
			return cmd.Help()
		},
	}

	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(newDoCmd(), newOperationsCmd())
	return rootCmd
}

// newApp wires configuration, logging, the requester and the OpenAPI parser
// and fills targets from the graph
func newApp(cmd *cobra.Command, targets ...any) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(func(cfg *config.Config) *config.ClientConfig { return &cfg.Client }),
		fx.Invoke(func(cfg *config.Config) error { return logger.InitLogger(&cfg.Logging) }),
		requester.Module,
		parser.Module,
		fx.Populate(targets...),
	)
	return app.Err()
}
