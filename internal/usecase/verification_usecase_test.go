package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/pmajay/image-verifier/internal/adapter/redis"
	"github.com/pmajay/image-verifier/internal/analyzer"
	"github.com/pmajay/image-verifier/internal/entity"
	"github.com/pmajay/image-verifier/internal/repository"
	"github.com/pmajay/image-verifier/pkg/utils"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// countingAnalyzer wraps the real analyzer and records how many images it saw.
type countingAnalyzer struct {
	inner analyzer.Analyzer
	mu    sync.Mutex
	seen  int
}

func (c *countingAnalyzer) AnalyzeAll(inputs []entity.ImageInput) []entity.AnalysisResult {
	c.mu.Lock()
	c.seen += len(inputs)
	c.mu.Unlock()
	return c.inner.AnalyzeAll(inputs)
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*entity.VerificationRecord
	order   []string
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]*entity.VerificationRecord{}}
}

func (m *memoryStore) SaveAll(_ context.Context, records []*entity.VerificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, r := range records {
		m.records[r.ID] = r
		m.order = append(m.order, r.ID)
	}
	return nil
}

func (m *memoryStore) FindByID(_ context.Context, id string) (*entity.VerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r, nil
}

func (m *memoryStore) ListRecent(_ context.Context, limit int) ([]*entity.VerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.VerificationRecord, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[m.order[i]])
	}
	return out, nil
}

func (m *memoryStore) Ping(context.Context) error { return nil }

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 11), uint8(x + y), 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	verifier Verifier
	analyzer *countingAnalyzer
	store    *memoryStore
	redis    *miniredis.Miniredis
	cache    *redisadapter.ResultCacheImpl
	now      *time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := fixedNow
	clock := func() time.Time { return now }
	ca := &countingAnalyzer{inner: analyzer.New(analyzer.WithClock(clock))}
	store := newMemoryStore()
	cache := redisadapter.NewResultCache(client)
	v := NewVerifier(ca, cache, store, VerifierConfig{
		MaxFiles:    3,
		CacheTTL:    time.Hour,
		MaxPhotoAge: 30 * 24 * time.Hour,
		Now:         clock,
	}, nil)
	return fixture{verifier: v, analyzer: ca, store: store, redis: mr, cache: cache, now: &now}
}

func TestVerifyImage_AnalysesPersistsAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := entity.ImageInput{Data: gradientPNG(t, 64, 48), Filename: "site.png"}

	first, err := f.verifier.VerifyImage(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "site.png", first.Filename)
	assert.False(t, first.Degraded)
	assert.Equal(t, 1, f.analyzer.seen)
	assert.Len(t, f.redis.Keys(), 1)

	second, err := f.verifier.VerifyImage(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, f.analyzer.seen, "identical upload is served from the cache")
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Percentages, second.Percentages)
	assert.Equal(t, first.Verdict, second.Verdict)

	rec, err := f.verifier.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Confidence, rec.Confidence)
	assert.Len(t, rec.ContentHash, 64)
}

func TestVerifyImage_CacheHitIsStampedWithCurrentTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := entity.ImageInput{Data: gradientPNG(t, 64, 48), Filename: "site.png"}

	first, err := f.verifier.VerifyImage(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, first.Timestamp)

	later := fixedNow.Add(10 * time.Minute)
	*f.now = later
	second, err := f.verifier.VerifyImage(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, f.analyzer.seen)
	assert.Equal(t, later, second.Timestamp)

	rec, err := f.verifier.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, later, rec.CreatedAt)

	recent, err := f.verifier.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, second.ID, recent[0].ID)
}

func TestVerifyImage_CachedResultPastPhotoAgeIsReanalysed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := entity.ImageInput{Data: gradientPNG(t, 64, 48), Filename: "site.png"}

	taken := fixedNow.Add(-29 * 24 * time.Hour)
	cached := &entity.AnalysisResult{
		Filename:         "site.png",
		IsAuthentic:      true,
		Confidence:       90,
		Verdict:          entity.VerdictVerified,
		Metadata:         entity.Metadata{Format: "png", DateTaken: &taken},
		DetectionDetails: map[string]bool{"isOldPhoto": false},
		Timestamp:        fixedNow,
	}
	require.NoError(t, f.cache.Set(ctx, utils.HashContent(in.Filename, in.Data), cached, time.Hour))

	res, err := f.verifier.VerifyImage(ctx, in)
	require.NoError(t, err)
	assert.Zero(t, f.analyzer.seen, "still inside the age limit")
	assert.Equal(t, 90, res.Confidence)

	*f.now = fixedNow.Add(2 * 24 * time.Hour)
	_, err = f.verifier.VerifyImage(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, f.analyzer.seen)
}

func TestVerifyImage_UndecodableFailsOpenAndIsNotCached(t *testing.T) {
	f := newFixture(t)
	in := entity.ImageInput{Data: []byte("definitely not an image"), Filename: "notes.txt"}

	res, err := f.verifier.VerifyImage(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.True(t, res.IsAuthentic)
	assert.Equal(t, entity.VerdictUnverified, res.Verdict)
	assert.Equal(t, []string{analyzer.FallbackWarning}, res.Warnings)
	assert.Empty(t, f.redis.Keys())
	assert.Len(t, f.store.records, 1)
}

func TestVerifyBatch_KeepsOrderAndSummarises(t *testing.T) {
	f := newFixture(t)
	inputs := []entity.ImageInput{
		{Data: gradientPNG(t, 32, 32), Filename: "a.png"},
		{Data: []byte{0x00}, Filename: "b.bin"},
		{Data: gradientPNG(t, 40, 20), Filename: "screenshot.png"},
	}

	summary, err := f.verifier.VerifyBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, summary.Details, 3)
	for i, in := range inputs {
		assert.Equal(t, in.Filename, summary.Details[i].Filename)
	}
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, summary.Total, summary.Authentic+summary.Warnings+summary.Rejected)
	assert.True(t, summary.Details[1].Degraded)
	assert.Len(t, f.store.records, 3)
}

func TestVerifyBatch_Limits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.verifier.VerifyBatch(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	in := entity.ImageInput{Data: []byte{1}, Filename: "x"}
	_, err = f.verifier.VerifyBatch(ctx, []entity.ImageInput{in, in, in, in})
	assert.ErrorIs(t, err, ErrTooManyFiles)
	assert.Zero(t, f.analyzer.seen)
}

func TestVerify_InfrastructureFailuresDoNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("connection refused")
	f.redis.Close()

	res, err := f.verifier.VerifyImage(context.Background(), entity.ImageInput{Data: gradientPNG(t, 16, 16), Filename: "p.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Verdict)
	assert.Empty(t, f.store.records)

	health := f.verifier.Health(context.Background())
	assert.Equal(t, "unhealthy", health["redis"])
	assert.Equal(t, "healthy", health["postgres"])
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.verifier.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.verifier.Get(ctx, "6f1c1c52-4d36-4a0e-9d8e-0a4f7d3f0c11")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, name := range []string{"1.png", "2.png"} {
		_, err := f.verifier.VerifyImage(ctx, entity.ImageInput{Data: gradientPNG(t, 8, 8), Filename: name})
		require.NoError(t, err)
	}

	recent, err := f.verifier.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2.png", recent[0].Filename)
}

func TestWithoutBackends(t *testing.T) {
	v := NewVerifier(analyzer.New(), nil, nil, VerifierConfig{}, nil)
	ctx := context.Background()

	_, err := v.VerifyImage(ctx, entity.ImageInput{Data: []byte("x"), Filename: "x"})
	require.NoError(t, err)

	_, err = v.Get(ctx, "6f1c1c52-4d36-4a0e-9d8e-0a4f7d3f0c11")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = v.ListRecent(ctx, 5)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, map[string]string{"analyzer": "healthy"}, v.Health(ctx))
}
