package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xtding233/spiral-backend/internal/api"
	"github.com/xtding233/spiral-backend/internal/app"
	"github.com/xtding233/spiral-backend/internal/config"
	"github.com/xtding233/spiral-backend/internal/grpcapi"
	"github.com/xtding233/spiral-backend/internal/store"
	"github.com/xtding233/spiral-backend/internal/tables"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	loader := tables.NewLoader(cfg.TablesPath)
	t, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	c := app.New(t, db, app.WithLogger(log), app.WithSeed(uint32(cfg.Seed)))
	session := c.NewSession()
	defer session.Close()

	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(c, session).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.TablesPath != "" && cfg.WatchInterval > 0 {
		tlog := c.Component("tables")
		reloader := tables.NewReloader(loader, cfg.WatchInterval, c.SetTables, func(err error) {
			tlog.Error().Err(err).Str("path", cfg.TablesPath).Msg("reload rejected, keeping current tables")
		})
		g.Go(func() error { return reloader.Run(ctx) })
	}

	if grpcLis != nil {
		grpcServer := grpcapi.NewServer(grpcapi.NewService(c, session), c.Component("grpc"))
		g.Go(func() error { return grpcServer.Serve(ctx, grpcLis) })
	}

	err = g.Wait()
	log.Info().Msg("server stopped")
	return err
}
