package entity

import "time"

// Verdict is the human readable outcome of an analysis.
type Verdict string

const (
	VerdictVerified            Verdict = "VERIFIED"
	VerdictWarning             Verdict = "WARNING (may be manipulated)"
	VerdictRejectedAI          Verdict = "REJECTED (AI-generated)"
	VerdictRejectedManipulated Verdict = "REJECTED (manipulated)"
	VerdictRejectedLowScore    Verdict = "REJECTED (low authenticity)"
	// VerdictUnverified is only produced by the fail-open fallback.
	VerdictUnverified Verdict = "UNVERIFIED"
)

// Percentages are the three clamped scores reported to the caller.
type Percentages struct {
	True        int `json:"true"`
	Fake        int `json:"fake"`
	Manipulated int `json:"manipulated"`
}

// AnalysisResult is produced once per image and never mutated afterwards.
type AnalysisResult struct {
	ID               string          `json:"id,omitempty"`
	Filename         string          `json:"filename"`
	IsAuthentic      bool            `json:"isAuthentic"`
	Confidence       int             `json:"confidence"`
	Percentages      Percentages     `json:"percentages"`
	Warnings         []string        `json:"warnings"`
	Metadata         Metadata        `json:"metadata"`
	DetectionDetails map[string]bool `json:"detectionDetails"`
	Verdict          Verdict         `json:"verdict"`
	Timestamp        time.Time       `json:"timestamp"`
	Error            string          `json:"error,omitempty"`
	// Degraded is set when the result comes from the fail-open branch
	// rather than from an actual analysis.
	Degraded bool `json:"degraded"`
}
