package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pmajay/image-verifier/internal/analyzer"
	"github.com/pmajay/image-verifier/internal/entity"
	"github.com/pmajay/image-verifier/internal/repository"
	"github.com/pmajay/image-verifier/pkg/metrics"
	"github.com/pmajay/image-verifier/pkg/utils"
)

var (
	ErrEmptyBatch       = errors.New("no images provided")
	ErrTooManyFiles     = errors.New("too many images in one request")
	ErrNotFound         = errors.New("verification not found")
	ErrStoreUnavailable = errors.New("verification history is not configured")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ImageAnalyzer is the part of analyzer.Analyzer the use case depends on.
type ImageAnalyzer interface {
	AnalyzeAll(inputs []entity.ImageInput) []entity.AnalysisResult
}

// Verifier defines the interface for verifying uploads and reading past outcomes.
type Verifier interface {
	VerifyImage(ctx context.Context, input entity.ImageInput) (entity.AnalysisResult, error)
	VerifyBatch(ctx context.Context, inputs []entity.ImageInput) (entity.BatchSummary, error)
	Get(ctx context.Context, id string) (*entity.VerificationRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.VerificationRecord, error)
	Health(ctx context.Context) map[string]string
}

// VerifierConfig holds the limits applied by the use case.
type VerifierConfig struct {
	MaxFiles int
	CacheTTL time.Duration
	// MaxPhotoAge must match the analyzer's limit; cached results whose
	// capture date has since crossed it are analysed again.
	MaxPhotoAge time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type verifierUseCase struct {
	analyzer ImageAnalyzer
	cache    repository.ResultCache
	store    repository.VerificationRepository
	cfg      VerifierConfig
	logger   *zap.Logger
}

// NewVerifier creates a new Verifier use case. cache and store may be nil, in
// which case caching and history are skipped.
func NewVerifier(
	a ImageAnalyzer,
	cache repository.ResultCache,
	store repository.VerificationRepository,
	cfg VerifierConfig,
	logger *zap.Logger,
) Verifier {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &verifierUseCase{
		analyzer: a,
		cache:    cache,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

func (uc *verifierUseCase) VerifyImage(ctx context.Context, input entity.ImageInput) (entity.AnalysisResult, error) {
	results, err := uc.verifyAll(ctx, []entity.ImageInput{input})
	if err != nil {
		return entity.AnalysisResult{}, err
	}
	return results[0], nil
}

func (uc *verifierUseCase) VerifyBatch(ctx context.Context, inputs []entity.ImageInput) (entity.BatchSummary, error) {
	if uc.cfg.MaxFiles > 0 && len(inputs) > uc.cfg.MaxFiles {
		return entity.BatchSummary{}, fmt.Errorf("%w: got %d, limit %d", ErrTooManyFiles, len(inputs), uc.cfg.MaxFiles)
	}
	results, err := uc.verifyAll(ctx, inputs)
	if err != nil {
		return entity.BatchSummary{}, err
	}
	metrics.BatchSize.Observe(float64(len(inputs)))
	return analyzer.Summarize(results), nil
}

// verifyAll resolves cached results first and analyses only the rest. Cache
// and store failures never fail the request.
func (uc *verifierUseCase) verifyAll(ctx context.Context, inputs []entity.ImageInput) ([]entity.AnalysisResult, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}

	results := make([]entity.AnalysisResult, len(inputs))
	hashes := make([]string, len(inputs))
	var (
		pending    []entity.ImageInput
		pendingIdx []int
	)

	for i, in := range inputs {
		hashes[i] = utils.HashContent(in.Filename, in.Data)
		if cached, ok := uc.lookup(ctx, hashes[i]); ok {
			results[i] = *cached
			results[i].Timestamp = uc.cfg.Now()
			continue
		}
		pending = append(pending, in)
		pendingIdx = append(pendingIdx, i)
	}

	if len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		analysed := uc.analyzer.AnalyzeAll(pending)
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

		for j, res := range analysed {
			i := pendingIdx[j]
			results[i] = res
			if res.Degraded {
				metrics.FallbacksTotal.Inc()
				uc.logger.Warn("analysis failed open",
					zap.String("filename", res.Filename),
					zap.String("error", res.Error),
				)
				continue
			}
			uc.remember(ctx, hashes[i], &results[i])
		}
	}

	records := make([]*entity.VerificationRecord, len(results))
	for i := range results {
		results[i].ID = uuid.NewString()
		metrics.VerificationsTotal.WithLabelValues(string(results[i].Verdict)).Inc()
		records[i] = newRecord(results[i], hashes[i])
	}
	uc.persist(ctx, records)

	return results, nil
}

func (uc *verifierUseCase) lookup(ctx context.Context, hash string) (*entity.AnalysisResult, bool) {
	if uc.cache == nil {
		return nil, false
	}
	cached, found, err := uc.cache.Get(ctx, hash)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		uc.logger.Warn("result cache lookup failed", zap.String("hash", hash), zap.Error(err))
		return nil, false
	case !found:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if uc.aged(cached) {
		metrics.CacheLookupsTotal.WithLabelValues("stale").Inc()
		return nil, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return cached, true
}

// aged reports whether the photo-age rule would now flag a cached result it
// passed when the result was computed.
func (uc *verifierUseCase) aged(res *entity.AnalysisResult) bool {
	taken := res.Metadata.DateTaken
	if uc.cfg.MaxPhotoAge <= 0 || taken == nil || res.DetectionDetails["isOldPhoto"] {
		return false
	}
	return uc.cfg.Now().Sub(*taken) > uc.cfg.MaxPhotoAge
}

func (uc *verifierUseCase) remember(ctx context.Context, hash string, res *entity.AnalysisResult) {
	if uc.cache == nil || uc.cfg.CacheTTL <= 0 {
		return
	}
	if err := uc.cache.Set(ctx, hash, res, uc.cfg.CacheTTL); err != nil {
		uc.logger.Warn("result cache store failed", zap.String("hash", hash), zap.Error(err))
	}
}

func (uc *verifierUseCase) persist(ctx context.Context, records []*entity.VerificationRecord) {
	if uc.store == nil {
		return
	}
	if err := uc.store.SaveAll(ctx, records); err != nil {
		uc.logger.Error("failed to save verification records", zap.Int("count", len(records)), zap.Error(err))
	}
}

func (uc *verifierUseCase) Get(ctx context.Context, id string) (*entity.VerificationRecord, error) {
	if uc.store == nil {
		return nil, ErrStoreUnavailable
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	rec, err := uc.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (uc *verifierUseCase) ListRecent(ctx context.Context, limit int) ([]*entity.VerificationRecord, error) {
	if uc.store == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return uc.store.ListRecent(ctx, min(limit, maxListLimit))
}

// Health reports each configured backend as healthy or unhealthy.
func (uc *verifierUseCase) Health(ctx context.Context) map[string]string {
	status := map[string]string{"analyzer": "healthy"}
	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			uc.logger.Error("health check failed", zap.String("component", name), zap.Error(err))
			status[name] = "unhealthy"
			return
		}
		status[name] = "healthy"
	}
	if uc.store != nil {
		check("postgres", uc.store.Ping)
	}
	if uc.cache != nil {
		check("redis", uc.cache.Ping)
	}
	return status
}

func newRecord(res entity.AnalysisResult, hash string) *entity.VerificationRecord {
	return &entity.VerificationRecord{
		ID:          res.ID,
		ContentHash: hash,
		Filename:    res.Filename,
		IsAuthentic: res.IsAuthentic,
		Confidence:  res.Confidence,
		Verdict:     res.Verdict,
		Percentages: res.Percentages,
		Warnings:    res.Warnings,
		Degraded:    res.Degraded,
		CreatedAt:   res.Timestamp,
	}
}
