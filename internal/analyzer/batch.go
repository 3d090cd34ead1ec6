package analyzer

import (
	"golang.org/x/sync/errgroup"

	"github.com/pmajay/image-verifier/internal/entity"
)

// AnalyzeBatch analyses every input concurrently and summarises the results.
// Results keep the input order. A single image cannot fail the batch.
func (a Analyzer) AnalyzeBatch(inputs []entity.ImageInput) entity.BatchSummary {
	return Summarize(a.AnalyzeAll(inputs))
}

// AnalyzeAll returns one result per input, in input order.
func (a Analyzer) AnalyzeAll(inputs []entity.ImageInput) []entity.AnalysisResult {
	results := make([]entity.AnalysisResult, len(inputs))

	var g errgroup.Group
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = a.AnalyzeImage(in)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Summarize reduces results into a BatchSummary. An empty list yields a zero
// average confidence.
func Summarize(results []entity.AnalysisResult) entity.BatchSummary {
	summary := entity.BatchSummary{
		Total:   len(results),
		Details: results,
	}
	if summary.Details == nil {
		summary.Details = []entity.AnalysisResult{}
	}

	var total int
	for _, r := range results {
		total += r.Confidence
		switch {
		case !r.IsAuthentic:
			summary.Rejected++
		case r.Confidence >= verifiedFrom:
			summary.Authentic++
		default:
			summary.Warnings++
		}
	}

	if len(results) > 0 {
		summary.AverageConfidence = float64(total) / float64(len(results))
	}
	return summary
}
