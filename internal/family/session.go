// Package family tracks the signed-in member's profile and family, exposing
// the current scope to the sync core and wrapping the two family membership
// procedures. Authentication itself happens outside this package; a session
// is primed with a profile by whoever owns the credentials.
package family

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/BarisSumer/bizim-market/internal/backend"
	"github.com/BarisSumer/bizim-market/internal/model"
)

// ErrNoProfile is returned by operations that need a signed-in member.
var ErrNoProfile = errors.New("family: no profile loaded")

// API is the slice of the backend the session needs.
type API interface {
	FetchProfile(ctx context.Context, userID uuid.UUID) (model.Profile, error)
	FetchFamily(ctx context.Context, familyID uuid.UUID) (model.Family, error)
	JoinFamilyByCode(ctx context.Context, code string) (backend.JoinResult, error)
	HandleFamilyRequest(ctx context.Context, requestID uuid.UUID, decision backend.Decision) (backend.RequestResult, error)
	SavePushToken(ctx context.Context, userID uuid.UUID, token string) error
	ClearPushToken(ctx context.Context, userID uuid.UUID) error
}

// Session holds the current profile and family. It implements the scope
// provider capability the grocery store and statistics service are built on.
type Session struct {
	api    API
	logger *slog.Logger

	mu      sync.RWMutex
	profile *model.Profile
	family  *model.Family
}

func NewSession(api API, logger *slog.Logger) *Session {
	return &Session{api: api, logger: logger}
}

// SetProfile primes the session after sign-in or a profile change event.
func (s *Session) SetProfile(p model.Profile) {
	s.mu.Lock()
	s.profile = &p
	if p.FamilyID == nil {
		s.family = nil
	}
	s.mu.Unlock()
}

// Clear drops all session state, e.g. on sign-out.
func (s *Session) Clear() {
	s.mu.Lock()
	s.profile = nil
	s.family = nil
	s.mu.Unlock()
}

// Profile returns a copy of the current profile, if any.
func (s *Session) Profile() (model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return model.Profile{}, false
	}
	return *s.profile, true
}

// Family returns a copy of the current family, if any.
func (s *Session) Family() (model.Family, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.family == nil {
		return model.Family{}, false
	}
	return *s.family, true
}

// CurrentScope reports the family/user pair synced operations run under.
// False means local-only mode: either no one is signed in or the member has
// not joined a family yet.
func (s *Session) CurrentScope() (model.Scope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil || s.profile.FamilyID == nil {
		return model.Scope{}, false
	}
	return model.Scope{FamilyID: *s.profile.FamilyID, UserID: s.profile.ID}, true
}

// Refresh re-fetches the profile and, when scoped, the family.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	current := s.profile
	s.mu.RUnlock()
	if current == nil {
		return ErrNoProfile
	}

	profile, err := s.api.FetchProfile(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}

	var fam *model.Family
	if profile.FamilyID != nil {
		f, err := s.api.FetchFamily(ctx, *profile.FamilyID)
		if err != nil {
			// Scope is still usable without family metadata.
			s.logger.Warn("refresh family", "error", err)
		} else {
			fam = &f
		}
	}

	s.mu.Lock()
	s.profile = &profile
	s.family = fam
	s.mu.Unlock()
	return nil
}

// JoinFamily runs the join-by-code procedure. On a non-pending success the
// session refreshes so the new scope becomes visible to the sync core.
func (s *Session) JoinFamily(ctx context.Context, code string) (backend.JoinResult, error) {
	if _, ok := s.Profile(); !ok {
		return backend.JoinResult{}, ErrNoProfile
	}

	result, err := s.api.JoinFamilyByCode(ctx, code)
	if err != nil {
		return backend.JoinResult{}, fmt.Errorf("join family: %w", err)
	}

	if result.Success && !result.Pending {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("refresh after join", "error", err)
		}
	}
	return result, nil
}

// HandleRequest approves or rejects a pending membership request.
func (s *Session) HandleRequest(ctx context.Context, requestID uuid.UUID, decision backend.Decision) (backend.RequestResult, error) {
	result, err := s.api.HandleFamilyRequest(ctx, requestID, decision)
	if err != nil {
		return backend.RequestResult{}, fmt.Errorf("handle family request: %w", err)
	}
	return result, nil
}

// RegisterPushToken stores the device's push token on the profile. Token
// acquisition and permission prompts live outside the core.
func (s *Session) RegisterPushToken(ctx context.Context, token string) error {
	profile, ok := s.Profile()
	if !ok {
		return ErrNoProfile
	}

	if err := s.api.SavePushToken(ctx, profile.ID, token); err != nil {
		return fmt.Errorf("register push token: %w", err)
	}

	s.mu.Lock()
	if s.profile != nil {
		s.profile.PushToken = token
	}
	s.mu.Unlock()
	return nil
}

// RemovePushToken clears the stored token. A profile without a token is
// already in the desired state.
func (s *Session) RemovePushToken(ctx context.Context) error {
	profile, ok := s.Profile()
	if !ok {
		return ErrNoProfile
	}
	if profile.PushToken == "" {
		return nil
	}

	if err := s.api.ClearPushToken(ctx, profile.ID); err != nil {
		return fmt.Errorf("remove push token: %w", err)
	}

	s.mu.Lock()
	if s.profile != nil {
		s.profile.PushToken = ""
	}
	s.mu.Unlock()
	return nil
}
