package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/wordsearch/internal/cache"
	"github.com/hyperjump/wordsearch/internal/config"
	"github.com/hyperjump/wordsearch/internal/extract"
	"github.com/hyperjump/wordsearch/internal/indexer"
	"github.com/hyperjump/wordsearch/internal/metrics"
	"github.com/hyperjump/wordsearch/internal/search"
	"github.com/hyperjump/wordsearch/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Cache   cache.Cache
	Metrics *metrics.Metrics
	Loader  *indexer.Loader
	Engine  *search.Engine
}

// Close releases the storage and cache connections.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}

func initializeComponents(cfg *config.Config, dirs []string, logger *zap.Logger) (*Components, error) {
	c := &Components{Metrics: metrics.New()}

	loaderOpts := []indexer.LoaderOption{
		indexer.WithExtensions(cfg.Corpus.Extensions),
		indexer.WithRecursive(cfg.Corpus.RecursiveOrDefault()),
		indexer.WithWorkers(cfg.Index.Workers),
		indexer.WithLogger(logger),
	}
	if path := cfg.Storage.DatabasePath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		store, err := storage.NewSQLiteStorage(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
		loaderOpts = append(loaderOpts, indexer.WithStorage(store))
	}
	c.Loader = indexer.NewLoader(extract.NewExtractor(), loaderOpts...)

	engineOpts := []search.Option{
		search.WithMaxPhraseLength(cfg.Index.MaxPhraseLength),
		search.WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
		search.WithSnippetLength(cfg.Search.SnippetLength),
		search.WithMetrics(c.Metrics),
		search.WithLogger(logger),
	}
	if addr := cfg.Cache.RedisAddr; addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		rc, err := cache.NewRedisCache(ctx, addr, cfg.Cache.TTL)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, result cache disabled", zap.String("addr", addr), zap.Error(err))
		} else {
			c.Cache = rc
			engineOpts = append(engineOpts, search.WithCache(rc))
		}
	}
	c.Engine = search.NewEngine(search.DirectoryLoader(c.Loader, dirs), engineOpts...)
	return c, nil
}
