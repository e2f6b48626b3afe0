// Package httpserver runs the flagkit HTTP listener with graceful shutdown
// on context cancellation, SIGINT or SIGTERM.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	mux := http.NewServeMux()
//	mux.Handle("/healthz", httpserver.LivenessHandler())
//	mux.Handle("/readyz", httpserver.ReadinessHandler(log, 2*time.Second,
//		httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	))
//	err := srv.Run(ctx, mux)
//
// Run wraps listen failures with ErrStart and Shutdown wraps drain failures
// with ErrShutdown.
package httpserver
