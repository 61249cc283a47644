package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const disconnectTimeout = 5 * time.Second

// ConnectDB dials the cloud store and verifies it is reachable. The
// timeout covers both the dial and the liveness ping; non-positive
// values fall back to 10s.
func ConnectDB(uri string, timeout time.Duration) (*mongo.Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to cloud store: %w", err)
	}

	// Connect alone does not guarantee a live server; ping the primary
	// before handing the client out.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		discCtx, discCancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer discCancel()
		_ = client.Disconnect(discCtx)
		return nil, fmt.Errorf("pinging cloud store: %w", err)
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the cloud store client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}
