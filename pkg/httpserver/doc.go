// Package httpserver runs the service's HTTP listener with graceful shutdown and
// provides liveness and readiness handlers.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithShutdownHook(func() { _ = emitter.Close(ctx) }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run returns after the context is cancelled, SIGINT or SIGTERM is received, or Shutdown
// is called. Readiness checks run concurrently and report per-dependency status as JSON.
package httpserver
