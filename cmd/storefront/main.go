package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/storefront/internal/cli"
	"github.com/mkrupp/storefront/internal/infra/config"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/repo/kv"
)

const (
	appName = "storefront"
	svcName = "cli"
)

func main() {
	var (
		cfg cli.Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix, ".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2) //nolint:gocritic
	}

	if err := logging.Configure(ctx, cfg.Log, loggerName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(2)
	}

	if err := run(ctx, cfg, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cli.Config, args []string) (err error) {
	defer func() {
		log := logging.GetLogger("cmd.storefront")

		if err != nil {
			log.DebugContext(ctx, "command failed", "error", err)
		} else {
			log.DebugContext(ctx, "command finished")
		}
	}()

	//nolint:exhaustruct
	return cli.Execute(ctx, cli.Options{
		Config:       cfg,
		StoreFactory: kv.Factory(cfg.Store),
	}, args...)
}
