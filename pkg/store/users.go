package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/maestrohq/maestro/pkg/profile"
)

// GetProfile loads a user profile. A missing profile is reported with a
// nil profile and nil error so the caller can create the default.
func (s *Store) GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var p profile.UserProfile
	err := s.db.Collection(collUsers).FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	return &p, nil
}

// CreateProfile inserts a new profile document.
func (s *Store) CreateProfile(ctx context.Context, p *profile.UserProfile) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if _, err := s.db.Collection(collUsers).InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create profile %s: %w", p.UserID, err)
	}
	return nil
}

// UpdateProfile applies a partial update and bumps updated_at.
func (s *Store) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	set := bson.M{"updated_at": time.Now()}
	for k, v := range updates {
		set[k] = v
	}

	result, err := s.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", userID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
