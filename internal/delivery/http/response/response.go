package response

import (
	"time"

	"github.com/pmajay/image-verifier/internal/entity"
)

// Envelope wraps every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerificationResponse is a DTO for a stored verification, mirroring entity.VerificationRecord.
type VerificationResponse struct {
	ID          string             `json:"id"`
	Filename    string             `json:"filename"`
	IsAuthentic bool               `json:"isAuthentic"`
	Confidence  int                `json:"confidence"`
	Verdict     string             `json:"verdict"`
	Percentages entity.Percentages `json:"percentages"`
	Warnings    []string           `json:"warnings"`
	Degraded    bool               `json:"degraded"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func FromRecord(rec *entity.VerificationRecord) VerificationResponse {
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return VerificationResponse{
		ID:          rec.ID,
		Filename:    rec.Filename,
		IsAuthentic: rec.IsAuthentic,
		Confidence:  rec.Confidence,
		Verdict:     string(rec.Verdict),
		Percentages: rec.Percentages,
		Warnings:    warnings,
		Degraded:    rec.Degraded,
		CreatedAt:   rec.CreatedAt,
	}
}

// SingleMessage is the message attached to a single-image verification.
func SingleMessage(res entity.AnalysisResult) string {
	if res.IsAuthentic {
		return "Image verified successfully"
	}
	return "Image failed verification"
}
