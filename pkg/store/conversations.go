package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/maestrohq/maestro/pkg/protocol"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// Conversation is a persisted chat: an ordered message array plus
// metadata. Messages are the single source of truth for history.
type Conversation struct {
	ID        string             `bson:"conversation_id" json:"conversation_id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Title     string             `bson:"title,omitempty" json:"title,omitempty"`
	Model     string             `bson:"model,omitempty" json:"model,omitempty"`
	Messages  []protocol.Message `bson:"messages" json:"messages"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// CreateConversation inserts a new empty conversation with a uuid id.
func (s *Store) CreateConversation(ctx context.Context, userID, title, model string) (*Conversation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := time.Now()
	conv := &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Model:     model,
		Messages:  []protocol.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.db.Collection(collConversations).InsertOne(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation loads one conversation by id.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var conv Conversation
	err := s.db.Collection(collConversations).
		FindOne(ctx, bson.M{"conversation_id": id}).
		Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	return &conv, nil
}

// ListConversations returns a user's conversations, most recent first.
func (s *Store) ListConversations(ctx context.Context, userID string, limit int64) ([]Conversation, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}

	cursor, err := s.db.Collection(collConversations).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var conversations []Conversation
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return conversations, nil
}

// AppendTurn persists the full updated message array in one write: a
// single $set of messages and updated_at, so both sides of the exchange
// land atomically or not at all. The caller must hold the conversation's
// lock across read-modify-write.
func (s *Store) AppendTurn(ctx context.Context, id string, messages []protocol.Message) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.db.Collection(collConversations).UpdateOne(ctx,
		bson.M{"conversation_id": id},
		bson.M{"$set": bson.M{
			"messages":   messages,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to persist turn for conversation %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation removes a conversation.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.db.Collection(collConversations).DeleteOne(ctx, bson.M{"conversation_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
