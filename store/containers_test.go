package store_test

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startMongo(ctx context.Context) (*mongodb.MongoDBContainer, string, error) {
	container, err := mongodb.Run(ctx, "mongo:7.0")
	if err != nil {
		return nil, "", fmt.Errorf("mongodb.Run: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	return container, uri, nil
}

func startRedis(ctx context.Context) (*tcredis.RedisContainer, string, error) {
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, "", fmt.Errorf("redis.Run: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	return container, uri, nil
}
