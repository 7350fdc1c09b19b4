// Package mongo persists per-user attributes in MongoDB.
package mongo

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	defaultURI      = "mongodb://localhost:27017"
	defaultDatabase = "alexa_assistant"
)

// Config holds the connection settings for the attribute database.
type Config struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
}

// NewConfigFromEnv reads MONGODB_URI and MONGODB_DATABASE. The attribute
// workload is a handful of point reads and upserts per exchange, so the
// pool stays small.
func NewConfigFromEnv() Config {
	config := Config{
		URI:            os.Getenv("MONGODB_URI"),
		Database:       os.Getenv("MONGODB_DATABASE"),
		MaxPoolSize:    10,
		MinPoolSize:    1,
		ConnectTimeout: 10 * time.Second,
	}
	if config.URI == "" {
		config.URI = defaultURI
	}
	if config.Database == "" {
		config.Database = defaultDatabase
	}
	return config
}

// Client owns the connection and the attribute database handle.
type Client struct {
	client   *mongo.Client
	Database *mongo.Database
	logger   *zap.Logger
}

// Connect dials the database and verifies it answers before returning.
func Connect(ctx context.Context, config Config, logger *zap.Logger) (*Client, error) {
	opts := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(config.MaxPoolSize).
		SetMinPoolSize(config.MinPoolSize).
		SetConnectTimeout(config.ConnectTimeout)

	ctx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Connected to attribute database", zap.String("database", config.Database))

	return &Client{
		client:   client,
		Database: client.Database(config.Database),
		logger:   logger,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		c.logger.Error("Failed to disconnect from attribute database", zap.Error(err))
		return err
	}
	c.logger.Info("Disconnected from attribute database")
	return nil
}
