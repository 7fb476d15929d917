package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/edgegate/edgegate/pkg/config"
	"github.com/edgegate/edgegate/pkg/kv"
	"github.com/edgegate/edgegate/pkg/kv/postgres"
	"github.com/edgegate/edgegate/pkg/kv/sqlite"
	"github.com/edgegate/edgegate/pkg/logging"
)

// loadConfig reads ./.env into the environment, then the YAML file at path.
// A missing config file is not an error: the environment alone is enough.
func loadConfig(path string) (*config.Config, error) {
	if wd, err := os.Getwd(); err == nil {
		if err := godotenv.Load(filepath.Join(wd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.FromEnv(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := logging.Configure(os.Stderr, cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the KV backend named by c. The "none" backend returns a
// nil store, which leaves the demo quota in process memory.
func openStore(ctx context.Context, c config.KVConfig) (kv.Store, error) {
	switch c.Backend {
	case "none":
		return nil, nil
	case "", "memory":
		return kv.NewMemory(), nil
	case "sqlite":
		path := c.Path
		if path == "" {
			path = config.DefaultKVPath
		}
		s, err := sqlite.New(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.WithField("path", path).Info("using sqlite kv store")
		return s, nil
	case "postgres":
		s, err := postgres.New(ctx, c.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		log.Info("using postgres kv store")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", c.Backend)
	}
}

func closeStore(s kv.Store) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		log.WithError(err).Warn("close kv store")
	}
}
