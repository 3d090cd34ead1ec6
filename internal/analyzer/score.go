package analyzer

import (
	"math"

	"github.com/pmajay/image-verifier/internal/entity"
)

const neutralScore = 50

// Verdict thresholds on the clamped percentages.
const (
	rejectFakeAbove        = 70
	rejectManipulatedAbove = 70
	verifiedFrom           = 60
	warningFrom            = 40
)

// scoreState holds the three running scores of one analysis.
type scoreState struct {
	authenticity int
	aiGeneration int
	manipulation int
}

func newScoreState() scoreState {
	return scoreState{neutralScore, neutralScore, neutralScore}
}

func (s *scoreState) apply(d delta) {
	s.authenticity += d.authenticity
	s.aiGeneration += d.aiGeneration
	s.manipulation += d.manipulation
}

func (s scoreState) percentages() entity.Percentages {
	return entity.Percentages{
		True:        clamp(s.authenticity),
		Fake:        clamp(s.aiGeneration),
		Manipulated: clamp(s.manipulation),
	}
}

func clamp(v int) int {
	return max(0, min(100, v))
}

// Score runs every rule against the extracted metadata and pixel statistics
// and aggregates the outcome.
func (a Analyzer) Score(meta entity.Metadata, pixels entity.PixelStats, filename string) entity.AnalysisResult {
	now := a.clock()
	in := ruleInput{
		meta:     meta,
		pixels:   pixels,
		filename: filename,
		now:      now,
		maxAge:   a.photoAgeLimit(),
	}

	state, warnings, details := evaluate(in)

	pct := state.percentages()
	verdict, authentic := verdictFor(pct)

	return entity.AnalysisResult{
		Filename:         filename,
		IsAuthentic:      authentic,
		Confidence:       overallConfidence(pct),
		Percentages:      pct,
		Warnings:         warnings,
		Metadata:         meta,
		DetectionDetails: details,
		Verdict:          verdict,
		Timestamp:        now,
	}
}

// evaluate runs every rule in order and returns the unclamped scores, the
// warnings of triggered rules and the detection flags.
func evaluate(in ruleInput) (scoreState, []string, map[string]bool) {
	state := newScoreState()
	warnings := make([]string, 0, len(rules))
	details := make(map[string]bool, len(detectionKeys))

	for _, r := range rules {
		sig := r.check(in)
		if r.detail != "" {
			details[r.detail] = sig.Triggered
		}
		if r.describe != nil {
			r.describe(in, details)
		}
		if sig.Triggered {
			state.apply(r.triggered)
			if sig.Reason != "" {
				warnings = append(warnings, sig.Reason)
			}
			continue
		}
		state.apply(r.passed)
	}
	return state, warnings, details
}

// overallConfidence weights the true score highest and the inverted fake and
// manipulation scores after it. The result is always in [0,100].
func overallConfidence(p entity.Percentages) int {
	c := float64(p.True)*0.6 + float64(100-p.Fake)*0.25 + float64(100-p.Manipulated)*0.15
	return clamp(int(math.Round(c)))
}

// verdictFor applies the verdict rules in priority order; the first match
// wins. The WARNING band still counts as authentic so uploads are not blocked.
func verdictFor(p entity.Percentages) (entity.Verdict, bool) {
	switch {
	case p.Fake > rejectFakeAbove:
		return entity.VerdictRejectedAI, false
	case p.Manipulated > rejectManipulatedAbove:
		return entity.VerdictRejectedManipulated, false
	case p.True >= verifiedFrom:
		return entity.VerdictVerified, true
	case p.True >= warningFrom:
		return entity.VerdictWarning, true
	default:
		return entity.VerdictRejectedLowScore, false
	}
}
