package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gostair/adapters/db"
	"gostair/internal/api"
	"gostair/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded sessions from the trial store over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := db.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			srv := &http.Server{
				Addr:    ":" + cfg.Server.Port,
				Handler: api.NewStoreServer(store).Handler(),
			}

			group, ctx := errgroup.WithContext(ctx)
			group.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			group.Go(func() error {
				log.Printf("serving sessions on http://localhost:%s", cfg.Server.Port)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
			return group.Wait()
		},
	}
}
