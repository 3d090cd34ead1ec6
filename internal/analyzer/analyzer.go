// Package analyzer scores uploaded images for authenticity.
//
// Every image goes through the same sequence: container metadata and the
// embedded EXIF block are read, raw pixel statistics are computed, six fixed
// heuristic rules adjust three running scores (authentic, AI-generated,
// manipulated) and the clamped scores are turned into a confidence value and a
// verdict. The rules are deliberately simple and explainable; they flag
// obviously suspicious uploads and are not a forensic tool.
package analyzer

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/pmajay/image-verifier/internal/entity"
)

// FallbackWarning is the only warning attached to a fail-open result.
const FallbackWarning = "Unable to fully verify image - proceeding with caution"

const (
	defaultMaxPhotoAge = 30 * 24 * time.Hour
	fallbackConfidence = 50
)

var (
	// ErrUndecodableImage is recorded when the payload is not a readable image.
	ErrUndecodableImage = errors.New("image could not be decoded")
	// ErrAnalysisPanic is recorded when the pipeline panicked.
	ErrAnalysisPanic = errors.New("image analysis aborted")
)

// Analyzer is safe for concurrent use: it only carries immutable options and
// every call works on its own input and result. The zero value is usable and
// behaves like New() without options, except that batches are unbounded.
type Analyzer struct {
	logger      *zap.Logger
	now         func() time.Time
	maxPhotoAge time.Duration
	workers     int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for absorbed failures.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides the time source used for timestamps and photo age.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithMaxPhotoAge sets how old a capture date may be before it is flagged.
func WithMaxPhotoAge(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.maxPhotoAge = d
		}
	}
}

// WithWorkers bounds the number of images analysed concurrently in a batch.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// New returns an Analyzer with the given options applied.
func New(opts ...Option) Analyzer {
	a := Analyzer{
		logger:      zap.NewNop(),
		now:         time.Now,
		maxPhotoAge: defaultMaxPhotoAge,
		workers:     runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func (a Analyzer) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}

func (a Analyzer) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a Analyzer) photoAgeLimit() time.Duration {
	if a.maxPhotoAge <= 0 {
		return defaultMaxPhotoAge
	}
	return a.maxPhotoAge
}

// AnalyzeImage runs the full pipeline on one image. It never fails: payloads
// that cannot be decoded and panics inside the pipeline both produce the
// fail-open result from fallbackResult.
func (a Analyzer) AnalyzeImage(input entity.ImageInput) (result entity.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrAnalysisPanic, r)
			a.log().Error("image analysis panicked", zap.String("filename", input.Filename), zap.Error(err))
			result = a.fallbackResult(input.Filename, err)
		}
	}()

	meta := a.ExtractMetadata(input.Data)
	if !meta.Decoded() {
		a.log().Warn("image not decodable, failing open", zap.String("filename", input.Filename))
		return a.fallbackResult(input.Filename, ErrUndecodableImage)
	}

	pixels := a.AnalyzePixels(input.Data)
	return a.Score(meta, pixels, input.Filename)
}

// fallbackResult is the fail-open branch: the image is let through as
// authentic with neutral confidence and a single explanatory warning.
func (a Analyzer) fallbackResult(filename string, cause error) entity.AnalysisResult {
	return entity.AnalysisResult{
		Filename:    filename,
		IsAuthentic: true,
		Confidence:  fallbackConfidence,
		Percentages: entity.Percentages{
			True:        neutralScore,
			Fake:        neutralScore,
			Manipulated: neutralScore,
		},
		Warnings:         []string{FallbackWarning},
		DetectionDetails: map[string]bool{},
		Verdict:          entity.VerdictUnverified,
		Timestamp:        a.clock(),
		Error:            cause.Error(),
		Degraded:         true,
	}
}
