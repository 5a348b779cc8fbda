package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"reconciled/internal/config"
	"reconciled/internal/rpcserver"
	"reconciled/internal/rpctools"
	"reconciled/pkg/task"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "reconciled",
		Short: "Schema-driven business/finance record reconciliation service",
	}
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reconciliation RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg, err := config.FromEnv(cfg)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.ListenHost = host
			}
			if cmd.Flags().Changed("port") {
				cfg.ListenPort = port
			}

			log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			mgr := task.NewManager(cfg, log)
			registry := rpctools.Registry(mgr, cfg)
			srv := rpcserver.New(registry, log)

			log.Info("reconciliation server starting", "addr", cfg.Addr())
			return srv.Run(cfg.Addr())
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides RECONCILED_LISTEN_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides RECONCILED_LISTEN_PORT)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
