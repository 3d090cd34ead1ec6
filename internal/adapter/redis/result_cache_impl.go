package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pmajay/image-verifier/internal/entity"
)

const resultKeyPrefix = "verification:"

// ResultCacheImpl provides a concrete implementation for the ResultCache interface using Redis.
type ResultCacheImpl struct {
	client *redis.Client
}

// NewResultCache creates a new instance of ResultCacheImpl.
func NewResultCache(client *redis.Client) *ResultCacheImpl {
	return &ResultCacheImpl{client: client}
}

func (r *ResultCacheImpl) generateKey(hash string) string {
	return fmt.Sprintf("%s%s", resultKeyPrefix, hash)
}

// Get looks up a cached result. A missing key is a miss, not an error.
func (r *ResultCacheImpl) Get(ctx context.Context, hash string) (*entity.AnalysisResult, bool, error) {
	raw, err := r.client.Get(ctx, r.generateKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result entity.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

// Set stores the result as JSON. A zero expiry disables caching.
func (r *ResultCacheImpl) Set(ctx context.Context, hash string, result *entity.AnalysisResult, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return r.client.SetEx(ctx, r.generateKey(hash), raw, expiry).Err()
}

func (r *ResultCacheImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
