package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMaxPoolSize            = 100
	defaultMinPoolSize            = 10
	defaultConnectTimeout         = 10 * time.Second
	defaultServerSelectionTimeout = 5 * time.Second
)

// MongoConfig describes the storefront database connection. Zero pool sizes
// and timeouts fall back to the defaults above.
type MongoConfig struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	MinPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

func (c MongoConfig) clientOptions() *options.ClientOptions {
	maxPool, minPool := c.MaxPoolSize, c.MinPoolSize
	if maxPool == 0 {
		maxPool = defaultMaxPoolSize
	}
	if minPool == 0 {
		minPool = defaultMinPoolSize
	}
	if minPool > maxPool {
		minPool = maxPool
	}
	connectTimeout := c.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	selectionTimeout := c.ServerSelectionTimeout
	if selectionTimeout <= 0 {
		selectionTimeout = defaultServerSelectionTimeout
	}

	return options.Client().
		ApplyURI(c.URI).
		SetAppName("inkdesk-storefront").
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(selectionTimeout).
		SetMaxPoolSize(maxPool).
		SetMinPoolSize(minPool)
}

// ConnectMongoDB connects and pings the server. The client is released when
// the ping fails.
func ConnectMongoDB(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb: database name is required")
	}

	client, err := mongo.Connect(ctx, cfg.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client.Database(cfg.Database), nil
}
