package repository

import (
	"context"
	"errors"

	"github.com/pmajay/image-verifier/internal/entity"
)

// ErrNotFound is returned when a verification record does not exist.
var ErrNotFound = errors.New("verification record not found")

// VerificationRepository defines the interface for persisting verification outcomes.
type VerificationRepository interface {
	// SaveAll stores records atomically; either every record is written or none.
	SaveAll(ctx context.Context, records []*entity.VerificationRecord) error
	// FindByID retrieves a record, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*entity.VerificationRecord, error)
	// ListRecent returns at most limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*entity.VerificationRecord, error)
	Ping(ctx context.Context) error
}
