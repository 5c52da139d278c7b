package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	appName            = "bazar-catalog"
	dialTimeout        = 10 * time.Second
	pingTimeout        = 5 * time.Second
	disconnectTimeout  = 5 * time.Second
	maxCatalogConns    = 50
	minIdleCatalogConn = 2
)

var ErrNoDatabase = errors.New("mongo database name is empty")

func clientOptions(uri string) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetAppName(appName).
		SetRetryWrites(true).
		SetConnectTimeout(dialTimeout).
		SetServerSelectionTimeout(pingTimeout).
		SetMaxPoolSize(maxCatalogConns).
		SetMinPoolSize(minIdleCatalogConn)
}

// Connect returns the catalog database once the primary answers a ping.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	if database == "" {
		return nil, ErrNoDatabase
	}

	client, err := mongo.Connect(ctx, clientOptions(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect %s: %w", database, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping %s: %w", database, err)
	}

	return client.Database(database), nil
}

// Disconnect closes the client behind db, waiting at most disconnectTimeout
// for in-flight operations.
func Disconnect(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return db.Client().Disconnect(ctx)
}
