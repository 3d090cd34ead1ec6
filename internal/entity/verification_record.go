package entity

import "time"

// VerificationRecord mirrors the `verifications` PostgreSQL table schema.
type VerificationRecord struct {
	ID          string
	ContentHash string
	Filename    string
	IsAuthentic bool
	Confidence  int
	Verdict     Verdict
	Percentages Percentages
	Warnings    []string // Stored as JSONB in PostgreSQL
	Degraded    bool
	CreatedAt   time.Time
}
