package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/juev/ledger-api/internal/api"
	"github.com/juev/ledger-api/internal/config"
	"github.com/juev/ledger-api/internal/journal"
)

type serveOptions struct {
	global *globalOptions
	addr   string
}

func newServeCommand(opts *serveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [journal]",
		Short: "Load the journal and serve the balance API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default: $HTTP_ADDR or :8000)")

	return cmd
}

func (o *serveOptions) run(cmd *cobra.Command, args []string) error {
	cfg, err := o.global.config(args)
	if err != nil {
		return err
	}
	if o.addr != "" {
		cfg.HTTPAddr = o.addr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	j, err := loadJournal(cfg, logger)
	if err != nil {
		logger.Error("journal load failed", zap.String("path", cfg.JournalPath), zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, j, logger, nil)
}

// serve runs the API until ctx is cancelled, then shuts down gracefully.
// When ready is non-nil it receives the bound address.
func serve(ctx context.Context, cfg *config.Config, j *journal.Journal, logger *zap.Logger, ready chan<- string) error {
	srv := api.NewServer(j, logger, api.Options{
		ServiceName:    cfg.ServiceName,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}

	logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	if ready != nil {
		ready <- ln.Addr().String()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
