package main

import (
	"context"
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/server"
)

// runServeCmd starts the HTTP server and blocks until ctx is cancelled.
func runServeCmd(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	cfg, err := loadConfig(flags.common, flags.render, env)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}
	if flags.maxBodyBytes > 0 {
		cfg.Server.MaxBodyBytes = flags.maxBodyBytes
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	backend, err := resume2pdf.ParseBackend(cfg.Render.Backend)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, flags.common, false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts, err := converterOptions(cfg, logger)
	if err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = cfg.Render.Workers
	}
	pool := resume2pdf.NewConverterPool(resume2pdf.ResolvePoolSize(workers), opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing converter pool", zap.Error(err))
		}
	}()

	srv := server.New(server.Options{
		Pool:         pool,
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		SmartOnePage: cfg.Render.SmartOnePage,
		Backend:      backend,
	})

	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Listening on %s (backend %s, %d workers)\n", cfg.Server.Addr, backend, pool.Size())
	}
	return srv.Run(ctx, cfg.Server.Addr)
}
