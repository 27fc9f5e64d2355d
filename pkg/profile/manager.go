package profile

import (
	"context"

	"github.com/maestrohq/maestro/pkg/logger"
)

// Store is the persistence surface the manager needs.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	CreateProfile(ctx context.Context, p *UserProfile) error
	UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error
}

// Manager loads profiles, creating a default on first use. A storage
// failure degrades to an in-memory default so a turn never blocks on the
// profile.
type Manager struct {
	store     Store
	stationID string
}

func NewManager(store Store, stationID string) *Manager {
	return &Manager{store: store, stationID: stationID}
}

// Get returns the user's profile. Missing profiles are created with
// defaults; storage errors fall back to an unpersisted default.
func (m *Manager) Get(ctx context.Context, userID string) *UserProfile {
	if userID == "" {
		userID = DefaultUserID
	}

	log := logger.GetLogger()

	if m.store != nil {
		p, err := m.store.GetProfile(ctx, userID)
		if err == nil && p != nil {
			return p
		}
		if err != nil {
			log.Warn("profile load failed, using default", "user", userID, "error", err)
		} else {
			log.Info("creating default profile", "user", userID)
			fresh := DefaultProfile(userID, m.stationID)
			if createErr := m.store.CreateProfile(ctx, fresh); createErr != nil {
				log.Warn("default profile create failed", "user", userID, "error", createErr)
			}
			return fresh
		}
	}

	return DefaultProfile(userID, m.stationID)
}

// Update applies a partial update to the stored profile.
func (m *Manager) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	if userID == "" {
		userID = DefaultUserID
	}
	return m.store.UpdateProfile(ctx, userID, updates)
}
