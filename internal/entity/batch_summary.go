package entity

import "fmt"

// BatchSummary aggregates the results of a batch verification.
type BatchSummary struct {
	Total             int              `json:"total"`
	Authentic         int              `json:"authentic"`
	Warnings          int              `json:"warnings"`
	Rejected          int              `json:"rejected"`
	AverageConfidence float64          `json:"averageConfidence"`
	Details           []AnalysisResult `json:"details"`
}

// Message renders the one-line summary shown to the uploader.
func (s BatchSummary) Message() string {
	return fmt.Sprintf("Verified %d images - %d authentic, %d with warnings, %d rejected",
		s.Total, s.Authentic, s.Warnings, s.Rejected)
}
