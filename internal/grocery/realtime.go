package grocery

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/BarisSumer/bizim-market/internal/backend"
	"github.com/BarisSumer/bizim-market/internal/model"
)

// Subscribe opens the family's realtime change feed and starts merging
// events into the store. Calling it without a family scope is a programming
// error: it is logged and skipped. A previous subscription for this store is
// torn down and replaced, so at most one channel is ever live.
func (s *Store) Subscribe(ctx context.Context) {
	scope, ok := s.scope.CurrentScope()
	if !ok {
		s.logger.Warn("subscribe skipped: no family scope")
		return
	}

	s.Unsubscribe()

	if err := s.connect(ctx, scope.FamilyID); err != nil {
		s.logger.Error("realtime subscribe", "error", err)
		s.scheduleReconnect(ctx, scope.FamilyID, s.reconnectErrorDelay)
	}
}

// Unsubscribe closes the live stream, if any. Idempotent.
func (s *Store) Unsubscribe() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			s.logger.Warn("close realtime stream", "error", err)
		}
	}
}

func (s *Store) connect(ctx context.Context, familyID uuid.UUID) error {
	stream, err := s.backend.Subscribe(ctx, familyID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()

	go s.consume(ctx, stream, familyID)
	return nil
}

// consume drains the stream and applies each event as received, in delivery
// order, with no buffering or reordering. When the stream dies it schedules
// a reconnect keyed on the failure class.
func (s *Store) consume(ctx context.Context, stream backend.Stream, familyID uuid.UUID) {
	for ev := range stream.Events() {
		s.applyChange(ctx, ev)
	}

	s.mu.Lock()
	current := s.stream == stream
	if current {
		s.stream = nil
	}
	s.mu.Unlock()

	// Not current means a deliberate unsubscribe or replacement.
	if !current {
		return
	}

	err := stream.Err()
	if err == nil {
		return
	}

	delay := s.reconnectErrorDelay
	if errors.Is(err, backend.ErrStreamTimeout) {
		delay = s.reconnectTimeoutDelay
	}
	s.logger.Error("realtime stream lost", "error", err, "retry_in", delay)
	s.scheduleReconnect(ctx, familyID, delay)
}

// scheduleReconnect waits out the class-specific base delay, then retries
// the subscription with capped exponential backoff. Attempts stop once the
// scope is gone, another subscription is live, or the cap is reached.
func (s *Store) scheduleReconnect(ctx context.Context, familyID uuid.UUID, base time.Duration) {
	go func() {
		timer := time.NewTimer(base)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}

		backoff := retry.WithMaxRetries(s.maxReconnectAttempts, retry.NewExponential(base))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if _, ok := s.scope.CurrentScope(); !ok {
				return nil
			}
			s.mu.Lock()
			live := s.stream != nil
			s.mu.Unlock()
			if live {
				return nil
			}
			if err := s.connect(ctx, familyID); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			s.logger.Error("realtime reconnect abandoned", "error", err)
		}
	}()
}

// applyChange merges one server-pushed event into the item collection.
//
// Matching precedence for inserts: an id-exact match wins (true duplicate,
// skipped), then a placeholder with the same name (the optimistic add whose
// confirming event arrived first, replaced in place), otherwise the item is
// new and is prepended. Name matching is used nowhere else.
func (s *Store) applyChange(ctx context.Context, ev backend.ChangeEvent) {
	switch ev.Type {
	case backend.ChangeInsert:
		if ev.Record == nil || ev.Record.ID == uuid.Nil {
			s.logger.Warn("realtime insert without record")
			return
		}
		incoming := itemFromRecord(*ev.Record)
		s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
			if slices.ContainsFunc(items, func(it model.GroceryItem) bool { return it.ID == incoming.ID }) {
				return items
			}
			for i := range items {
				if !items[i].ID.IsRemote() && items[i].Name == incoming.Name {
					items[i] = incoming
					return items
				}
			}
			return append([]model.GroceryItem{incoming}, items...)
		})

	case backend.ChangeUpdate:
		if ev.Record == nil || ev.Record.ID == uuid.Nil {
			s.logger.Warn("realtime update without record")
			return
		}
		incoming := itemFromRecord(*ev.Record)
		s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
			for i := range items {
				if items[i].ID == incoming.ID {
					items[i] = incoming
				}
			}
			// Absent id: the item predates our fetch window or belongs to
			// a scope we left. No-op.
			return items
		})

	case backend.ChangeDelete:
		if ev.OldRecord == nil || ev.OldRecord.ID == nil {
			// The event carries no identity to remove by; refetch the whole
			// list rather than guessing and drifting.
			s.logger.Warn("realtime delete without id; refetching")
			s.FetchItems(ctx)
			return
		}
		deleted := model.RemoteID(*ev.OldRecord.ID)
		s.applyItems(func(items []model.GroceryItem) []model.GroceryItem {
			return slices.DeleteFunc(items, func(it model.GroceryItem) bool {
				return it.ID == deleted
			})
		})

	default:
		s.logger.Warn("realtime event with unknown type", "type", string(ev.Type))
	}
}
