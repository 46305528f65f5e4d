// Package stats derives purchase statistics (category distribution and
// top-item rankings) from the family's purchase history over a date range.
package stats

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/BarisSumer/bizim-market/internal/backend"
	"github.com/BarisSumer/bizim-market/internal/model"
	"github.com/BarisSumer/bizim-market/internal/palette"
)

const topItemLimit = 10

// HistorySource is the slice of the backend the aggregator needs.
type HistorySource interface {
	ListPurchases(ctx context.Context, familyID uuid.UUID, start, end time.Time) ([]backend.PurchaseRecord, error)
}

// ScopeProvider supplies the family scope the history query runs under.
type ScopeProvider interface {
	CurrentScope() (model.Scope, bool)
}

// Service answers statistics queries. It never returns an error: an
// unscoped session or a failed query yields the empty result.
type Service struct {
	source   HistorySource
	scope    ScopeProvider
	logger   *slog.Logger
	emojiFor func(string) string
}

func NewService(source HistorySource, scope ScopeProvider, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		scope:    scope,
		logger:   logger,
		emojiFor: palette.EmojiFor,
	}
}

// SetEmojiLookup swaps the category→emoji resolver, e.g. for the grocery
// store's live lookup that includes fetched custom categories.
func (s *Service) SetEmojiLookup(fn func(string) string) {
	if fn != nil {
		s.emojiFor = fn
	}
}

// Fetch queries the closed interval [start, end] and aggregates the result.
func (s *Service) Fetch(ctx context.Context, start, end time.Time) model.Statistics {
	scope, ok := s.scope.CurrentScope()
	if !ok {
		return empty()
	}

	records, err := s.source.ListPurchases(ctx, scope.FamilyID, start, end)
	if err != nil {
		s.logger.Error("fetch statistics", "error", err)
		return empty()
	}

	return aggregate(records, s.emojiFor)
}

func empty() model.Statistics {
	return model.Statistics{
		CategoryData: []model.CategoryStat{},
		TopItems:     []model.TopItem{},
	}
}

// aggregate computes the category distribution and top items. Ties keep the
// order in which a category or item first appeared in the raw result set;
// top-item ranks are dense and assigned after sorting.
func aggregate(records []backend.PurchaseRecord, emojiFor func(string) string) model.Statistics {
	if len(records) == 0 {
		return empty()
	}

	total := len(records)

	var categoryOrder []string
	categoryCounts := make(map[string]int)
	var itemOrder []string
	itemCounts := make(map[string]int)
	itemCategory := make(map[string]string)

	for _, rec := range records {
		if _, seen := categoryCounts[rec.Category]; !seen {
			categoryOrder = append(categoryOrder, rec.Category)
		}
		categoryCounts[rec.Category]++

		if _, seen := itemCounts[rec.ItemName]; !seen {
			itemOrder = append(itemOrder, rec.ItemName)
			itemCategory[rec.ItemName] = rec.Category
		}
		itemCounts[rec.ItemName]++
	}

	categoryData := make([]model.CategoryStat, 0, len(categoryOrder))
	for _, label := range categoryOrder {
		count := categoryCounts[label]
		categoryData = append(categoryData, model.CategoryStat{
			Label:      label,
			Count:      count,
			Percentage: int(math.Round(float64(count) / float64(total) * 100)),
			Color:      palette.ColorFor(label),
		})
	}
	slices.SortStableFunc(categoryData, func(a, b model.CategoryStat) int {
		return b.Count - a.Count
	})

	topItems := make([]model.TopItem, 0, len(itemOrder))
	for _, name := range itemOrder {
		topItems = append(topItems, model.TopItem{
			Name:  name,
			Emoji: emojiFor(itemCategory[name]),
			Count: itemCounts[name],
		})
	}
	slices.SortStableFunc(topItems, func(a, b model.TopItem) int {
		return b.Count - a.Count
	})
	if len(topItems) > topItemLimit {
		topItems = topItems[:topItemLimit]
	}
	for i := range topItems {
		topItems[i].Rank = i + 1
	}

	return model.Statistics{
		CategoryData:   categoryData,
		TopItems:       topItems,
		TotalPurchases: total,
	}
}
