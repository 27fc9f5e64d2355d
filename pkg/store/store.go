// Package store persists conversations, the model catalog, prompt
// templates, and user profiles in MongoDB.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/maestrohq/maestro/pkg/config"
	"github.com/maestrohq/maestro/pkg/logger"
)

// Collection names.
const (
	collConversations = "conversations"
	collModels        = "models"
	collPrompts       = "prompts"
	collUsers         = "users"
)

// Store wraps the Mongo client and database handles.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// New connects to MongoDB and verifies the connection with a ping.
func New(ctx context.Context, cfg *config.StoreConfig) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	logger.GetLogger().Info("connected to mongodb", "database", cfg.Database)

	return &Store{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: timeout,
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// opCtx bounds one store operation.
func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}
