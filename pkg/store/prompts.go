package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PromptEntry is a named system-prompt template.
type PromptEntry struct {
	Name    string `bson:"name" json:"name"`
	Content string `bson:"content" json:"content"`
	Default bool   `bson:"default,omitempty" json:"default,omitempty"`
}

// GetPrompt loads one prompt by name.
func (s *Store) GetPrompt(ctx context.Context, name string) (*PromptEntry, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var entry PromptEntry
	err := s.db.Collection(collPrompts).FindOne(ctx, bson.M{"name": name}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return &entry, nil
}

// ListPrompts returns all prompt templates sorted by name.
func (s *Store) ListPrompts(ctx context.Context) ([]PromptEntry, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.db.Collection(collPrompts).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer cursor.Close(ctx)

	var prompts []PromptEntry
	if err := cursor.All(ctx, &prompts); err != nil {
		return nil, fmt.Errorf("failed to decode prompts: %w", err)
	}
	return prompts, nil
}
