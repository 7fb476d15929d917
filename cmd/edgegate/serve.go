package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/edgegate/edgegate/pkg/kv/sqlite"
	"github.com/edgegate/edgegate/pkg/proxy"
)

const purgeInterval = 10 * time.Minute

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := openStore(ctx, cfg.KV)
			if err != nil {
				return fmt.Errorf("init kv store: %w", err)
			}
			defer closeStore(store)

			if s, ok := store.(*sqlite.Store); ok {
				go purgeLoop(ctx, s)
			}

			if len(cfg.APIKeys) == 0 {
				log.Warn("API_KEYS is empty: only pass-through keys will work")
			}
			if cfg.DemoPassword == "" {
				log.Info("demo password disabled")
			}

			srv := proxy.New(cfg, store)
			log.WithFields(log.Fields{
				"api_base":   cfg.APIBase,
				"models":     len(cfg.Models()),
				"kv_backend": cfg.KV.Backend,
				"search":     len(cfg.TavilyKeys) > 0,
			}).Info("starting edgegate")
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}

// purgeLoop drops expired rows until ctx is done.
func purgeLoop(ctx context.Context, s *sqlite.Store) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Purge(ctx)
			if err != nil {
				log.WithError(err).Warn("kv purge failed")
				continue
			}
			if n > 0 {
				log.WithField("rows", n).Debug("kv purge")
			}
		}
	}
}
