// Command gateway runs the TLS-terminating reverse proxy described by
// the project's routing configuration file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "go.uber.org/automaxprocs"

	"github.com/wolfpup-software/gateway/internal/gatewayconfig"
	"github.com/wolfpup-software/gateway/internal/gatewaylog"
	"github.com/wolfpup-software/gateway/internal/ingress"
)

// cycleDetection is a fixed, code-level hardening default, not a CLI
// flag: the gateway's external invocation contract is one positional
// config path and nothing else beyond --help/--version.
const cycleDetection = true

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gateway <config-path>",
		Short:         "TLS-terminating HTTP reverse proxy",
		Version:       versionString(),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}

	return cmd
}

func run(configPath string) error {
	resolved, err := gatewayconfig.Load(configPath)
	if err != nil {
		return err
	}

	log, err := gatewaylog.New()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := ingress.New(resolved.Addr, resolved.Identity, resolved.Routes, log)
	l.CycleDetection = cycleDetection

	log.Info("gateway starting", zap.String("addr", resolved.Addr))
	return l.Serve(ctx)
}
