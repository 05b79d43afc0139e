package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	pg "diapets/internal/adapters/storage/postgres"
	"diapets/internal/config"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	var withWorker bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if withWorker || rt.cfg.RunWorkerInServe {
				go func() {
					if err := rt.app.Driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						rt.log.Error("reminder worker stopped", map[string]any{"error": err})
					}
				}()
			}

			srv := &http.Server{
				Addr:         ":" + rt.cfg.Port,
				Handler:      rt.app.Handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 60 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				rt.log.Info("starting server", map[string]any{"addr": srv.Addr})
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			rt.log.Info("shutting down", nil)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			rt.log.Info("server stopped", nil)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "Run the reminder worker in-process (same as RUN_WORKER_IN_SERVE=true)")
	return cmd
}

func notifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Run one reminder pass for every configured policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			reports, err := rt.app.Driver.RunOnce(ctx)
			for _, pr := range reports {
				rt.log.Info("policy finished", map[string]any{
					"policy":        pr.Policy.Name,
					"selected":      pr.Selected,
					"succeeded":     pr.Report.Succeeded,
					"failed":        pr.Report.Failed,
					"no_address":    pr.Report.NoAddress,
					"ledger_failed": pr.Report.LedgerFailed,
				})
				for _, e := range pr.Report.Errors {
					rt.log.Error("dispatch error", map[string]any{"policy": pr.Policy.Name, "error": e})
				}
			}
			return err
		},
	}
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run reminders every REMINDER_INTERVAL until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			rt, err := setup(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.app.Driver.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg := config.Load()
			if cfg.DBDSN == "" {
				return errors.New("DB_DSN is required")
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			db, err := pg.Open(cfg.DBDSN, cfg.DBMaxOpenConns)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			if err := pg.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema applied", nil)
			return nil
		},
	}
}
