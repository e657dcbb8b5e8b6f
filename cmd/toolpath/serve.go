package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gcode-toolpath/pkg/engine"
	"gcode-toolpath/pkg/metrics"
	"gcode-toolpath/pkg/server"
)

func (c *cli) runServe(args []string) error {
	fs := c.newFlagSet("serve", "")
	listen := fs.StringP("listen", "l", c.settings.Service.Listen, "HTTP address to listen on")
	maxBody := fs.Int64("max-body", server.DefaultMaxBodyBytes, "Maximum request body in bytes")
	metricsUser := fs.String("metrics-user", "", "Basic auth user for /metrics")
	metricsPass := fs.String("metrics-password", "", "Basic auth password for /metrics")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(server.Config{
		Addr:         *listen,
		Engine:       engine.New(c.settings, store, nil),
		MaxBodyBytes: *maxBody,
		MetricsAuth:  metrics.HandlerConfig{Username: *metricsUser, Password: *metricsPass},
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	c.logger.WithField("templates", store.Path()).Info("toolpath service on %s", *listen)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		c.logger.Info("received %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		return err
	}
	return <-errCh
}
