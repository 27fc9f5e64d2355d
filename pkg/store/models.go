package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ModelEntry is one row of the model catalog: a display name bound to a
// provider and model id. The catalog is read-only at runtime; it is seeded
// once and edited out of band.
type ModelEntry struct {
	Name        string   `bson:"name" json:"name"`
	Provider    string   `bson:"provider" json:"provider"`
	Model       string   `bson:"model" json:"model"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Temperature *float64 `bson:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int      `bson:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Default     bool     `bson:"default,omitempty" json:"default,omitempty"`
}

// ListModels returns the full catalog sorted by name.
func (s *Store) ListModels(ctx context.Context) ([]ModelEntry, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.db.Collection(collModels).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer cursor.Close(ctx)

	var models []ModelEntry
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}
	return models, nil
}

// GetModel loads one catalog entry by display name.
func (s *Store) GetModel(ctx context.Context, name string) (*ModelEntry, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var entry ModelEntry
	err := s.db.Collection(collModels).FindOne(ctx, bson.M{"name": name}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", name, err)
	}
	return &entry, nil
}

// DefaultCatalog returns the starter catalog with one entry per provider.
// Seeded at startup; operators extend the collection from there.
func DefaultCatalog() []ModelEntry {
	return []ModelEntry{
		{Name: "Gemini 2.5 Flash", Provider: "gemini", Model: "gemini-2.5-flash", Description: "Fast general-purpose model with tool calling", Default: true},
		{Name: "Claude Sonnet 4", Provider: "anthropic", Model: "claude-sonnet-4-20250514", Description: "Strong reasoning and long answers"},
		{Name: "GPT-4o", Provider: "openai", Model: "gpt-4o", Description: "OpenAI flagship with tool calling"},
		{Name: "Grok 3", Provider: "xai", Model: "grok-3", Description: "xAI conversational model"},
		{Name: "Llama 3.1 (local)", Provider: "ollama", Model: "llama3.1:8b", Description: "Local model via Ollama, no API key needed"},
	}
}

// SeedModels inserts catalog entries that are not present yet. Existing
// entries are left untouched.
func (s *Store) SeedModels(ctx context.Context, entries []ModelEntry) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	coll := s.db.Collection(collModels)
	for _, entry := range entries {
		_, err := coll.UpdateOne(ctx,
			bson.M{"name": entry.Name},
			bson.M{"$setOnInsert": entry},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to seed model %s: %w", entry.Name, err)
		}
	}
	return nil
}
