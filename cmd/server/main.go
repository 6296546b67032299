package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phishguard/internal/app"
	"phishguard/internal/config"
	"phishguard/internal/server"
	"phishguard/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New().Errorf("config: %v", err)
		os.Exit(1)
	}
	l := app.NewLogger(cfg)

	svc := app.NewService(cfg, l)
	h := server.New(svc, svc.Registry(), l, server.Options{
		// the whole pipeline plus margin for the slowest collaborator
		RequestTimeout: cfg.RequestTimeout + cfg.FeedTimeout,
		MaxBodyBytes:   64 * 1024,
	}).Handler()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}
