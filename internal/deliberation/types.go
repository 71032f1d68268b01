// Package deliberation implements the five-phase multi-team deliberation
// pipeline and the engine that owns its state.
package deliberation

import (
	"context"
	"time"

	"github.com/agora-dev/agora/internal/agent"
)

// Phase numbers the five barriers of a deliberation round.
type Phase int

const (
	PhaseHypothesis Phase = iota + 1
	PhaseSolution
	PhaseCritique
	PhaseSynthesis
	PhaseSelection
)

func (p Phase) String() string {
	switch p {
	case PhaseHypothesis:
		return "hypothesis"
	case PhaseSolution:
		return "solution"
	case PhaseCritique:
		return "critique"
	case PhaseSynthesis:
		return "synthesis"
	case PhaseSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// Challenge is one adversarial critique issued by one team against another
// team's solution.
type Challenge struct {
	FromTeam   int    `json:"from_team"`
	TargetTeam int    `json:"target_team"`
	Text       string `json:"text"`
}

// Result is the immutable record of one completed deliberation round.
type Result struct {
	Topic              string         `json:"topic"`
	Propositions       map[int]string `json:"propositions"`
	Solutions          map[int]string `json:"solutions"`
	Critiques          []string       `json:"critiques"`
	Challenges         []Challenge    `json:"challenges"`
	WinningTeam        int            `json:"winning_team"`
	WinningPerformance float64        `json:"winning_performance"`
	Synthesis          string         `json:"synthesis"`
	Confidence         float64        `json:"confidence"`
	Trace              []string       `json:"trace"`
	Participants       []string       `json:"participants"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Request carries the inputs for one content-generation call.
type Request struct {
	Phase      Phase
	Role       agent.Role
	TeamID     int
	Topic      string
	Context    []string
	Complexity int

	// Phase-dependent material. Solution carries the target team's solution
	// during the critique phase.
	Proposition string
	Solution    string
	TargetTeam  int
	Challenges  []Challenge
}

// Output is what a ContentGenerator produces: the text and the generator's
// own raw quality estimate in [0, 1]. Phase scores are computed by the
// engine; the raw score is recorded in the reasoning trace.
type Output struct {
	Text  string
	Score float64
}

// ContentGenerator is the injected strategy that produces proposition,
// solution, challenge, and synthesis text. Implementations must respect ctx:
// a blocking backend is cut off by the engine's generation timeout and the
// affected team degrades instead of stalling the phase barrier.
type ContentGenerator interface {
	Generate(ctx context.Context, req Request) (Output, error)
}

// TeamMorale is the per-team telemetry row returned by AnalyzeTeamMorale.
type TeamMorale struct {
	TeamID          int     `json:"team_id"`
	Morale          float64 `json:"morale"`
	MeanPerformance float64 `json:"mean_performance"`
}
