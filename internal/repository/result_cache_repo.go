package repository

import (
	"context"
	"time"

	"github.com/pmajay/image-verifier/internal/entity"
)

// ResultCache stores finished analyses keyed by a content hash so identical
// re-uploads are not analysed twice.
type ResultCache interface {
	// Get returns the cached result and whether it was found.
	Get(ctx context.Context, key string) (*entity.AnalysisResult, bool, error)
	// Set stores a result with the given expiry.
	Set(ctx context.Context, key string, result *entity.AnalysisResult, expiry time.Duration) error
	Ping(ctx context.Context) error
}
