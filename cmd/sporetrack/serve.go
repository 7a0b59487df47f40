package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/sporetrack/sporetrack/internal/api"
)

// serve runs the read-only status server until ctx is cancelled.
func (c *cli) serve(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var addr string
	fs.StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	fs.StringVar(&addr, "a", "127.0.0.1:8080", "listen address")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(c.engine, c.logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		c.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			c.logger.Error("server forced to shutdown", "error", err)
		}
	}()

	c.logger.Info("server started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return c.fail("server error", err)
	}

	c.logger.Info("server stopped")
	return 0
}
