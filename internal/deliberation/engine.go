package deliberation

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agora-dev/agora/internal/agent"
)

const (
	defaultGenTimeout = 30 * time.Second
	defaultReadiness  = 0.8
)

// Engine owns the agent registry, runs deliberation rounds, and keeps the
// append-only result history. One engine instance per roster; there is no
// package-level state.
type Engine struct {
	registry   *agent.Registry
	gen        ContentGenerator
	log        *zap.Logger
	genTimeout time.Duration
	readiness  float64

	mu      sync.Mutex // guards rng and history
	rng     *rand.Rand
	history []*Result

	// OnPhase and OnResult, when set, are called from Deliberate as each
	// phase barrier opens and when the round completes.
	OnPhase  func(Phase)
	OnResult func(*Result)
}

// NewEngine creates an engine over the given registry and content strategy.
// The seed drives the jitter terms in synthesis and selection scoring.
func NewEngine(registry *agent.Registry, gen ContentGenerator, seed int64, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		registry:   registry,
		gen:        gen,
		log:        log,
		genTimeout: defaultGenTimeout,
		readiness:  defaultReadiness,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// SetGenerationTimeout bounds each ContentGenerator call. A call exceeding
// the bound degrades that team's contribution instead of stalling the phase.
func (e *Engine) SetGenerationTimeout(d time.Duration) { e.genTimeout = d }

// SetReadinessThreshold overrides the mean-performance gate (default 0.8).
func (e *Engine) SetReadinessThreshold(t float64) { e.readiness = t }

// Registry exposes the engine's registry for sanctioning and inspection.
func (e *Engine) Registry() *agent.Registry { return e.registry }

// Agents returns snapshots of all registered agents.
func (e *Engine) Agents() []agent.Agent { return e.registry.Agents() }

// AgentByID returns a snapshot of one agent, or agent.ErrNotFound.
func (e *Engine) AgentByID(id string) (agent.Agent, error) { return e.registry.Get(id) }

// Teams returns team id -> member snapshots.
func (e *Engine) Teams() map[int][]agent.Agent { return e.registry.Teams() }

// History returns the completed results in creation order.
func (e *Engine) History() []*Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Result, len(e.history))
	copy(out, e.history)
	return out
}

// LoadHistory seeds the history with previously journaled results, oldest
// first. Used for restart recovery before any new round runs.
func (e *Engine) LoadHistory(results []*Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, results...)
}

// MeetsThreshold reports whether the mean performance across all registered
// agents is at or above the readiness threshold. Pure read.
func (e *Engine) MeetsThreshold() bool {
	return e.registry.MeanPerformance() >= e.readiness
}

// AnalyzeTeamMorale returns per-team morale telemetry in ascending team
// order. Morale is mean over members of mean(satisfaction, confidence) -
// frustration, deliberately unclamped.
func (e *Engine) AnalyzeTeamMorale() []TeamMorale {
	teams := e.registry.Teams()
	out := make([]TeamMorale, 0, len(teams))
	for _, teamID := range e.registry.TeamIDs() {
		members := teams[teamID]
		var morale, perf float64
		for _, m := range members {
			morale += m.Morale()
			perf += m.Performance
		}
		n := float64(len(members))
		out = append(out, TeamMorale{
			TeamID:          teamID,
			Morale:          morale / n,
			MeanPerformance: perf / n,
		})
	}
	return out
}

// Deliberate runs one full five-phase round and returns its immutable
// result. The registry must hold the fixed team/role structure; a violation
// is fatal and no round is attempted. Generation failures and timeouts
// degrade the affected team and the round still completes with one winner.
func (e *Engine) Deliberate(ctx context.Context, topic string, notes []string, complexity int) (*Result, error) {
	if err := e.registry.Validate(); err != nil {
		e.log.Error("deliberation refused", zap.Error(err))
		return nil, err
	}
	if complexity < 1 {
		complexity = 1
	} else if complexity > 10 {
		complexity = 10
	}
	hasContext := len(notes) > 0
	n := e.registry.TeamCount()

	res := &Result{
		Topic:        topic,
		Propositions: make(map[int]string, n),
		Solutions:    make(map[int]string, n),
		CreatedAt:    time.Now().UTC(),
	}

	e.log.Info("deliberation started",
		zap.String("topic", topic),
		zap.Int("teams", n),
		zap.Int("complexity", complexity),
	)

	props := e.hypothesisPhase(ctx, res, topic, notes, complexity, hasContext)
	solutions := e.solutionPhase(ctx, res, topic, notes, complexity, hasContext, props)
	challenges := e.critiquePhase(ctx, res, topic, notes, complexity, solutions)
	syntheses, qualities := e.synthesisPhase(ctx, res, topic, notes, complexity, hasContext, props, solutions, challenges)
	e.selectionPhase(res, syntheses, qualities)

	for team := 1; team <= n; team++ {
		res.Propositions[team] = props[team-1]
		res.Solutions[team] = solutions[team-1]
	}
	res.Challenges = challenges
	res.Critiques = make([]string, len(challenges))
	for i, c := range challenges {
		res.Critiques[i] = c.Text
	}

	e.mu.Lock()
	e.history = append(e.history, res)
	e.mu.Unlock()

	e.log.Info("deliberation completed",
		zap.Int("winning_team", res.WinningTeam),
		zap.Float64("confidence", res.Confidence),
	)
	if e.OnResult != nil {
		e.OnResult(res)
	}
	return res, nil
}

// hypothesisPhase has every team's proposer produce a proposition and a
// clamped confidence score.
func (e *Engine) hypothesisPhase(ctx context.Context, res *Result, topic string, notes []string, complexity int, hasContext bool) []string {
	n := e.registry.TeamCount()
	e.phaseStart(PhaseHypothesis)

	props := make([]string, n)
	confs := make([]float64, n)
	actors := make([]agent.Agent, n)
	degraded := make([]bool, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		team := i + 1
		i := i
		g.Go(func() error {
			a, _ := e.registry.TeamAgent(team, agent.RoleProposer)
			out, bad := e.generate(ctx, Request{
				Phase:      PhaseHypothesis,
				Role:       agent.RoleProposer,
				TeamID:     team,
				Topic:      topic,
				Context:    notes,
				Complexity: complexity,
			})
			conf := confidenceScore(a.Performance, hasContext, complexity)
			if bad {
				conf = degradedScore
			}
			props[i], confs[i], actors[i], degraded[i] = out.Text, conf, a, bad
			e.registry.Update(a.ID, func(x *agent.Agent) {
				x.Emotions.Apply(agent.EmotionalState{Curiosity: 0.1, Confidence: 0.05})
				x.Handled++
			})
			return nil
		})
	}
	g.Wait()

	for i := 0; i < n; i++ {
		res.Participants = append(res.Participants, actors[i].ID)
		res.Trace = append(res.Trace, fmt.Sprintf(
			"phase 1 (hypothesis): team %d proposer %s confidence %.2f%s",
			i+1, shortID(actors[i].ID), confs[i], degradedNote(degraded[i])))
	}
	return props
}

// solutionPhase has every team's solver extend its own proposition into a
// solution with a feasibility score.
func (e *Engine) solutionPhase(ctx context.Context, res *Result, topic string, notes []string, complexity int, hasContext bool, props []string) []string {
	n := e.registry.TeamCount()
	e.phaseStart(PhaseSolution)

	solutions := make([]string, n)
	feas := make([]float64, n)
	actors := make([]agent.Agent, n)
	degraded := make([]bool, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		team := i + 1
		i := i
		g.Go(func() error {
			a, _ := e.registry.TeamAgent(team, agent.RoleSolver)
			out, bad := e.generate(ctx, Request{
				Phase:       PhaseSolution,
				Role:        agent.RoleSolver,
				TeamID:      team,
				Topic:       topic,
				Context:     notes,
				Complexity:  complexity,
				Proposition: props[i],
			})
			f := feasibilityScore(a.Performance, hasContext)
			if bad {
				f = degradedScore
			}
			solutions[i], feas[i], actors[i], degraded[i] = out.Text, f, a, bad
			e.registry.Update(a.ID, func(x *agent.Agent) {
				x.Emotions.Apply(agent.EmotionalState{Satisfaction: 0.1})
				x.Handled++
			})
			return nil
		})
	}
	g.Wait()

	for i := 0; i < n; i++ {
		res.Participants = append(res.Participants, actors[i].ID)
		res.Trace = append(res.Trace, fmt.Sprintf(
			"phase 2 (solution): team %d solver %s feasibility %.2f%s",
			i+1, shortID(actors[i].ID), feas[i], degradedNote(degraded[i])))
	}
	return solutions
}

// critiquePhase has every team's adversary challenge every other team's
// completed solution. Challenges are ordered by issuing team, then target.
func (e *Engine) critiquePhase(ctx context.Context, res *Result, topic string, notes []string, complexity int, solutions []string) []Challenge {
	n := e.registry.TeamCount()
	e.phaseStart(PhaseCritique)

	perTeam := make([][]Challenge, n)
	actors := make([]agent.Agent, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		team := i + 1
		i := i
		g.Go(func() error {
			a, _ := e.registry.TeamAgent(team, agent.RoleAdversary)
			actors[i] = a
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				out, _ := e.generate(ctx, Request{
					Phase:      PhaseCritique,
					Role:       agent.RoleAdversary,
					TeamID:     team,
					Topic:      topic,
					Context:    notes,
					Complexity: complexity,
					Solution:   solutions[j],
					TargetTeam: j + 1,
				})
				perTeam[i] = append(perTeam[i], Challenge{
					FromTeam:   team,
					TargetTeam: j + 1,
					Text:       out.Text,
				})
			}
			e.registry.Update(a.ID, func(x *agent.Agent) {
				x.Emotions.Apply(agent.EmotionalState{Confidence: 0.08, Frustration: 0.05})
				x.Handled++
			})
			return nil
		})
	}
	g.Wait()

	var challenges []Challenge
	for i := 0; i < n; i++ {
		challenges = append(challenges, perTeam[i]...)
		res.Participants = append(res.Participants, actors[i].ID)
		res.Trace = append(res.Trace, fmt.Sprintf(
			"phase 3 (critique): team %d adversary %s issued %d challenges",
			i+1, shortID(actors[i].ID), len(perTeam[i])))
	}
	return challenges
}

// synthesisPhase has every team's handler merge its proposition, solution,
// and the full challenge list into one candidate answer with a quality score.
func (e *Engine) synthesisPhase(ctx context.Context, res *Result, topic string, notes []string, complexity int, hasContext bool, props, solutions []string, challenges []Challenge) ([]string, []float64) {
	n := e.registry.TeamCount()
	e.phaseStart(PhaseSynthesis)

	// Jitter is drawn up front in team order so seeded runs are reproducible
	// regardless of goroutine scheduling.
	jitters := e.drawJitters(n)

	syntheses := make([]string, n)
	qualities := make([]float64, n)
	actors := make([]agent.Agent, n)
	degraded := make([]bool, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		team := i + 1
		i := i
		g.Go(func() error {
			a, _ := e.registry.TeamAgent(team, agent.RoleHandler)
			out, bad := e.generate(ctx, Request{
				Phase:       PhaseSynthesis,
				Role:        agent.RoleHandler,
				TeamID:      team,
				Topic:       topic,
				Context:     notes,
				Complexity:  complexity,
				Proposition: props[i],
				Solution:    solutions[i],
				Challenges:  challenges,
			})
			q := qualityScore(a.Performance, hasContext, jitters[i])
			if bad {
				q = degradedScore
			}
			syntheses[i], qualities[i], actors[i], degraded[i] = out.Text, q, a, bad
			e.registry.Update(a.ID, func(x *agent.Agent) {
				x.Emotions.Apply(agent.EmotionalState{Satisfaction: 0.12})
				x.Handled++
			})
			return nil
		})
	}
	g.Wait()

	for i := 0; i < n; i++ {
		res.Participants = append(res.Participants, actors[i].ID)
		res.Trace = append(res.Trace, fmt.Sprintf(
			"phase 4 (synthesis): team %d handler %s quality %.2f%s",
			i+1, shortID(actors[i].ID), qualities[i], degradedNote(degraded[i])))
	}
	return syntheses, qualities
}

// selectionPhase scores each synthesis and picks the winner, then applies
// the win/loss performance and emotion updates to every team agent.
func (e *Engine) selectionPhase(res *Result, syntheses []string, qualities []float64) {
	n := e.registry.TeamCount()
	e.phaseStart(PhaseSelection)

	jitters := e.drawJitters(n)
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = selectionScore(qualities[i], jitters[i])
	}
	winner := pickWinner(scores) + 1

	manager := e.registry.Management(agent.RoleManager)[0]
	e.registry.Update(manager.ID, func(x *agent.Agent) { x.Handled++ })
	res.Participants = append(res.Participants, manager.ID)

	// Winning-team average performance is recorded at selection time, before
	// the win/loss adjustments land.
	var winPerf float64
	winners := e.registry.Teams()[winner]
	for _, m := range winners {
		winPerf += m.Performance
	}
	winPerf /= float64(len(winners))

	for team := 1; team <= n; team++ {
		for _, role := range agent.TeamRoles() {
			a, _ := e.registry.TeamAgent(team, role)
			won := team == winner
			e.registry.Update(a.ID, func(x *agent.Agent) {
				if won {
					x.AdjustPerformance(0.05)
					x.Emotions.Apply(agent.EmotionalState{Satisfaction: 0.1, Confidence: 0.05})
				} else {
					x.AdjustPerformance(-0.02)
					x.Emotions.Apply(agent.EmotionalState{Frustration: 0.03})
				}
			})
		}
	}

	res.WinningTeam = winner
	res.WinningPerformance = winPerf
	res.Synthesis = syntheses[winner-1]
	res.Confidence = qualities[winner-1]
	res.Trace = append(res.Trace, fmt.Sprintf(
		"phase 5 (selection): manager %s selected team %d (score %.2f, avg performance %.2f)",
		shortID(manager.ID), winner, scores[winner-1], winPerf))
}

// generate runs one ContentGenerator call under the engine's timeout. On
// error or timeout it substitutes a fixed low-confidence placeholder so the
// round completes. The returned bool reports degradation.
func (e *Engine) generate(ctx context.Context, req Request) (Output, bool) {
	gctx := ctx
	if e.genTimeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, e.genTimeout)
		defer cancel()
	}
	out, err := e.gen.Generate(gctx, req)
	if err != nil {
		e.log.Warn("content generation degraded",
			zap.Stringer("phase", req.Phase),
			zap.Int("team", req.TeamID),
			zap.Error(err),
		)
		return Output{
			Text:  fmt.Sprintf("[degraded] team %d produced no %s output", req.TeamID, req.Phase),
			Score: degradedScore,
		}, true
	}
	if out.Score < 0 {
		out.Score = 0
	} else if out.Score > 1 {
		out.Score = 1
	}
	return out, false
}

func (e *Engine) phaseStart(p Phase) {
	if e.OnPhase != nil {
		e.OnPhase(p)
	}
}

// drawJitters returns count jitter values in [0, maxJitter) from the seeded
// source, in a deterministic order.
func (e *Engine) drawJitters(count int) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]float64, count)
	for i := range out {
		out[i] = e.rng.Float64() * maxJitter
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func degradedNote(d bool) string {
	if d {
		return " [degraded]"
	}
	return ""
}
