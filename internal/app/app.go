// Package app wires configuration into a ready digest Runner. Both
// binaries build their dependencies through it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docrank/internal/chunker"
	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/digest"
	"github.com/dgallion1/docrank/internal/embedding"
	"github.com/dgallion1/docrank/internal/profile"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/spans"
)

type App struct {
	Profile *profile.Profile
	Cache   *embedding.Cache
	Runner  *digest.Runner

	redis *embedding.RedisStore
}

// New builds the profile, embedder, cache and runner described by cfg.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}

	emb, err := embedding.New(embedding.Options{
		Provider: cfg.EmbedProvider,
		Model:    cfg.EmbedModel,
		BaseURL:  cfg.EmbedBaseURL,
		Timeout:  cfg.EmbedTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	a := &App{Profile: prof}

	var store embedding.Store
	if cfg.RedisAddr != "" {
		rs, err := embedding.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, emb.Model())
		if err != nil {
			return nil, err
		}
		a.redis = rs
		store = rs
		log.Info("using redis embedding cache", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	}

	a.Cache = embedding.NewCache(emb, store, cfg.EmbedBatchSize, embedding.NewLatencyStats(time.Hour), log)
	ranker := rank.NewRankerContext(a.Cache, rank.NewBooster(prof.Boost), log)

	r := digest.NewRunner(ranker, prof, emb.Model(), log)
	r.Chunks = chunker.Config{
		Window:   cfg.ChunkWindow,
		Stride:   cfg.ChunkStride,
		MinWords: r.Chunks.MinWords,
		MaxWords: r.Chunks.MaxWords,
	}
	r.Pool = chunker.Pool{Workers: cfg.ChunkWorkers, BatchSize: cfg.ChunkBatchSize}
	r.Collect = spans.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}
	a.Runner = r

	log.Info("digest runner ready",
		"profile", prof.Name,
		"provider", cfg.EmbedProvider,
		"model", emb.Model(),
	)
	return a, nil
}

// Close releases the shared cache connection, if any.
func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
