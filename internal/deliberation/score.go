package deliberation

// Score formulas for the five phases. Inputs are the acting agent's
// performance snapshot, whether conversational context was supplied, and the
// round complexity; jitter comes from the engine's seeded source.

const (
	// degradedScore replaces a phase score when content generation fails or
	// times out for a team. The round continues with this placeholder.
	degradedScore = 0.3

	// maxJitter bounds the jitter term added to synthesis quality and
	// selection scores.
	maxJitter = 0.05
)

// confidenceScore is the hypothesis-phase confidence:
// 0.6 + performance*0.3 + 0.2 if context + complexity/10*0.1, capped at 0.95.
func confidenceScore(performance float64, hasContext bool, complexity int) float64 {
	s := 0.6 + performance*0.3
	if hasContext {
		s += 0.2
	}
	if complexity > 10 {
		complexity = 10
	}
	s += float64(complexity) / 10 * 0.1
	return min(s, 0.95)
}

// feasibilityScore is the solution-phase feasibility:
// 0.5 + performance*0.4 + 0.1 if context, capped at 0.9.
func feasibilityScore(performance float64, hasContext bool) float64 {
	s := 0.5 + performance*0.4
	if hasContext {
		s += 0.1
	}
	return min(s, 0.9)
}

// qualityScore is the synthesis-phase quality:
// performance*0.7 + 0.2 if context + jitter, capped at 0.95.
func qualityScore(performance float64, hasContext bool, jitter float64) float64 {
	s := performance * 0.7
	if hasContext {
		s += 0.2
	}
	s += jitter
	return min(s, 0.95)
}

// selectionScore is the management layer's per-team score during winner
// selection.
func selectionScore(quality, jitter float64) float64 {
	return quality*0.7 + jitter
}

// pickWinner returns the index of the maximum score. Comparison is
// strictly-greater in ascending order, so equal scores resolve to the lowest
// team id. This replaces the source system's tie-break-by-jitter with a
// deterministic rule.
func pickWinner(scores []float64) int {
	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best
}
