// Package httpserver runs an http.Handler with configured timeouts and shuts
// it down gracefully when the context ends or the process receives SIGINT or
// SIGTERM.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// HealthHandler reports named dependency probes such as the database ping.
package httpserver
