package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"nstcaward-backend/internal/scrapers/nstc"
	"nstcaward-backend/internal/service"
	"nstcaward-backend/internal/telemetry"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging.")
	configPath := flag.String("config", "config.json5", "Path to the config file.")
	flag.Parse()

	telemetry.InitSlog(*verbose)
	if *verbose {
		slog.Debug("verbose logging enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal("read config", err)
	}

	tel := telemetry.SlogAPI{}
	clientOpts := cfg.ClientOptions()
	if *verbose {
		output, err := telemetry.NewFilesystemOutput(".dev/resty/nstc", tel)
		if err != nil {
			fatal("init resty output", err)
		}
		clientOpts.MessageOutput = output
	}
	client, err := nstc.NewClient(clientOpts, tel)
	if err != nil {
		fatal("init nstc client", err)
	}
	cache := service.NewPlanCache(
		time.Duration(cfg.Cache.TtlSeconds)*time.Second,
		time.Duration(cfg.Cache.CleanupSeconds)*time.Second,
	)
	svc := service.NewService(client, cache, tel)

	server := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Http.Port),
		Handler: svc.Router(cfg.Http.CorsOrigins),
	}
	go func() {
		slog.Info("listening to http...", "port", cfg.Http.Port)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(fmt.Sprintf("failed to listen on port %d", cfg.Http.Port), err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	if err != nil {
		fatal("shutdown", err)
	}
}
