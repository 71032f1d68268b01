// Package generator provides the production ContentGenerator. It is a
// template-driven heuristic: it produces role-flavored text without calling
// any external backend, so the pipeline stays self-contained. LLM-backed
// strategies plug in through the same interface.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/agora-dev/agora/internal/deliberation"
)

// Heuristic is a seeded, deterministic-per-seed content strategy.
type Heuristic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristic creates a Heuristic seeded with seed.
func NewHeuristic(seed int64) *Heuristic {
	return &Heuristic{rng: rand.New(rand.NewSource(seed))}
}

var hypothesisAngles = []string{
	"reduce the problem to its highest-leverage constraint",
	"invert the problem and work backwards from the desired outcome",
	"decompose the problem into independently verifiable sub-claims",
	"look for a prior solved problem with the same shape",
	"treat the dominant cost as the variable to eliminate first",
}

var critiqueAngles = []string{
	"the plan assumes resources that were never established",
	"the riskiest step is sequenced last, hiding failure until late",
	"no measurable success criterion is attached to the outcome",
	"the approach degrades badly if the inputs are noisy",
	"a simpler baseline was never ruled out",
}

// Generate implements deliberation.ContentGenerator.
func (h *Heuristic) Generate(ctx context.Context, req deliberation.Request) (deliberation.Output, error) {
	if err := ctx.Err(); err != nil {
		return deliberation.Output{}, fmt.Errorf("generator: %w", err)
	}

	h.mu.Lock()
	score := 0.5 + h.rng.Float64()*0.5
	angle := hypothesisAngles[h.rng.Intn(len(hypothesisAngles))]
	critique := critiqueAngles[h.rng.Intn(len(critiqueAngles))]
	h.mu.Unlock()

	var text string
	switch req.Phase {
	case deliberation.PhaseHypothesis:
		text = fmt.Sprintf("Team %d proposes: for %q, %s. Complexity is rated %d/10%s.",
			req.TeamID, req.Topic, angle, req.Complexity, contextNote(req.Context))
	case deliberation.PhaseSolution:
		text = fmt.Sprintf("Team %d solution: building on the proposition (%s), stage the work as analyse, prototype, and verify, with an explicit rollback point after each stage.",
			req.TeamID, truncate(req.Proposition, 80))
	case deliberation.PhaseCritique:
		text = fmt.Sprintf("Team %d challenges team %d: %s.",
			req.TeamID, req.TargetTeam, critique)
	case deliberation.PhaseSynthesis:
		text = fmt.Sprintf("Team %d synthesis on %q: merging the proposition and solution while addressing %d standing challenges; the strongest objections are folded in as explicit guard conditions.",
			req.TeamID, req.Topic, len(req.Challenges))
	default:
		return deliberation.Output{}, fmt.Errorf("generator: unsupported phase %s", req.Phase)
	}

	return deliberation.Output{Text: text, Score: score}, nil
}

func contextNote(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	return fmt.Sprintf(", informed by %d context notes", len(notes))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "…"
}
