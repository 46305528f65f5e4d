package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/BarisSumer/bizim-market/internal/backend"
	"github.com/BarisSumer/bizim-market/internal/cache"
	"github.com/BarisSumer/bizim-market/internal/config"
	"github.com/BarisSumer/bizim-market/internal/family"
	"github.com/BarisSumer/bizim-market/internal/grocery"
	"github.com/BarisSumer/bizim-market/internal/logging"
	"github.com/BarisSumer/bizim-market/internal/stats"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	snapshot, err := cache.Open(cfg.CachePath)
	if err != nil {
		log.Fatalf("open snapshot cache: %v", err)
	}
	defer snapshot.Close()

	client := backend.NewClient(backend.Config{
		BaseURL:     cfg.BackendURL,
		APIKey:      cfg.APIKey,
		AccessToken: cfg.AccessToken,
	}, logger)

	session := family.NewSession(client, logger)

	store := grocery.New(grocery.Config{
		Backend: client,
		Scope:   session,
		Saver:   snapshot,
		Logger:  logger,
	})

	items, categories, found, err := snapshot.Load()
	if err != nil {
		logger.Warn("load snapshot", "error", err)
	} else if found {
		store.Restore(items, categories)
	}

	ctx := context.Background()

	if cfg.Synced() && cfg.UserID != uuid.Nil {
		profile, err := client.FetchProfile(ctx, cfg.UserID)
		if err != nil {
			logger.Warn("fetch profile; continuing local-only", "error", err)
		} else {
			session.SetProfile(profile)
			if err := session.Refresh(ctx); err != nil {
				logger.Warn("refresh session", "error", err)
			}
		}
	}

	if cfg.Synced() {
		store.FetchItems(ctx)
		store.FetchSuggestions(ctx)
		store.FetchCategories(ctx)
		store.Subscribe(ctx)
	}

	statsSvc := stats.NewService(client, session, logger)
	statsSvc.SetEmojiLookup(store.EmojiFor)

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthly := statsSvc.Fetch(ctx, monthStart, now)

	logger.Info("bizim-market running",
		"items", len(store.Items()),
		"synced", cfg.Synced(),
		"purchases_this_month", monthly.TotalPurchases,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	store.Unsubscribe()
}
