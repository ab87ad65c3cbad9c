// Command authzd serves API-key authorization decisions and role/key administration over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/authz/pkg/httpserver"
	"github.com/dmitrymomot/authz/pkg/logger"
	"github.com/dmitrymomot/authz/pkg/requestid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authzd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		lvl, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logOpts = append(logOpts, logger.WithLevel(lvl))
	}
	log := logger.New(logOpts...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if token := a.bootstrapToken; token != "" {
		// Printed once, never logged.
		fmt.Fprintf(os.Stdout, "bootstrap admin key (store it now, it is not shown again):\n%s\n", token)
	}

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithShutdownHook(a.flushAudit),
	)
	return srv.Run(ctx, a.handler)
}
