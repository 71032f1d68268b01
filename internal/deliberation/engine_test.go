package deliberation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agora-dev/agora/internal/agent"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubGenerator returns canned text tagged with the phase and team.
type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, req Request) (Output, error) {
	return Output{
		Text:  fmt.Sprintf("%s output from team %d", req.Phase, req.TeamID),
		Score: 0.9,
	}, nil
}

// failingGenerator errors for one team's calls and delegates the rest.
type failingGenerator struct {
	failTeam int
}

func (g failingGenerator) Generate(ctx context.Context, req Request) (Output, error) {
	if req.TeamID == g.failTeam {
		return Output{}, errors.New("backend unavailable")
	}
	return stubGenerator{}.Generate(ctx, req)
}

// slowGenerator blocks until its context is cancelled.
type slowGenerator struct{}

func (slowGenerator) Generate(ctx context.Context, _ Request) (Output, error) {
	<-ctx.Done()
	return Output{}, ctx.Err()
}

func newTestEngine(t *testing.T, gen ContentGenerator) *Engine {
	t.Helper()
	registry := agent.NewRegistry(3, 11, nil)
	return NewEngine(registry, gen, 13, nil)
}

func TestDeliberateScenario(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})

	result, err := e.Deliberate(context.Background(), "reduce latency", nil, 5)
	require.NoError(t, err)

	assert.Equal(t, "reduce latency", result.Topic)
	assert.Len(t, result.Propositions, 3)
	assert.Len(t, result.Solutions, 3)
	// 3 teams x 2 opponents.
	assert.Len(t, result.Challenges, 6)
	assert.Len(t, result.Critiques, 6)
	assert.GreaterOrEqual(t, result.WinningTeam, 1)
	assert.LessOrEqual(t, result.WinningTeam, 3)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.NotEmpty(t, result.Synthesis)
	assert.False(t, result.CreatedAt.IsZero())

	// One trace line and one participant per team per phase, plus the
	// manager in selection.
	assert.Len(t, result.Trace, 13)
	assert.Len(t, result.Participants, 13)

	for _, c := range result.Challenges {
		assert.NotEqual(t, c.FromTeam, c.TargetTeam)
		assert.Contains(t, c.Text, fmt.Sprintf("team %d", c.FromTeam))
	}
}

func TestDeliberateRefusesBrokenRegistry(t *testing.T) {
	registry := agent.NewRegistry(0, 1, nil)
	e := NewEngine(registry, stubGenerator{}, 1, nil)

	_, err := e.Deliberate(context.Background(), "topic", nil, 5)
	assert.ErrorIs(t, err, agent.ErrInvariant)
	assert.Empty(t, e.History())
}

func TestDeliberateDegradesFailedTeamAndStillCompletes(t *testing.T) {
	e := newTestEngine(t, failingGenerator{failTeam: 2})

	result, err := e.Deliberate(context.Background(), "topic", []string{"note"}, 5)
	require.NoError(t, err)

	assert.Contains(t, result.Propositions[2], "[degraded]")
	assert.NotContains(t, result.Propositions[1], "[degraded]")
	assert.GreaterOrEqual(t, result.WinningTeam, 1)
	assert.LessOrEqual(t, result.WinningTeam, 3)
	// A degraded synthesis scores 0.3, so team 2 cannot beat healthy teams.
	assert.NotEqual(t, 2, result.WinningTeam)
}

func TestDeliberateTimeoutDegradesInsteadOfStalling(t *testing.T) {
	e := newTestEngine(t, slowGenerator{})
	e.SetGenerationTimeout(10 * time.Millisecond)

	done := make(chan struct{})
	var result *Result
	var err error
	go func() {
		result, err = e.Deliberate(context.Background(), "topic", nil, 5)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deliberation stalled on a blocking generator")
	}
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.WinningTeam, 1)
	for team := 1; team <= 3; team++ {
		assert.Contains(t, result.Propositions[team], "[degraded]")
	}
}

func TestDeliberatePerformanceUpdates(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	before := make(map[string]float64)
	for _, a := range e.Agents() {
		before[a.ID] = a.Performance
	}

	result, err := e.Deliberate(context.Background(), "topic", nil, 5)
	require.NoError(t, err)

	for team, members := range e.Teams() {
		for _, m := range members {
			if team == result.WinningTeam {
				want := min(before[m.ID]+0.05, 1.0)
				assert.InDelta(t, want, m.Performance, 1e-9, "winner %s", m.Role)
			} else {
				want := max(before[m.ID]-0.02, 0.1)
				assert.InDelta(t, want, m.Performance, 1e-9, "loser %s", m.Role)
			}
		}
	}
}

func TestDeliberateWinningPerformanceRecordedAtSelectionTime(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	before := make(map[string]float64)
	for _, a := range e.Agents() {
		before[a.ID] = a.Performance
	}

	result, err := e.Deliberate(context.Background(), "topic", nil, 5)
	require.NoError(t, err)

	var want float64
	winners := e.Teams()[result.WinningTeam]
	for _, m := range winners {
		want += before[m.ID]
	}
	want /= float64(len(winners))
	assert.InDelta(t, want, result.WinningPerformance, 1e-9)
}

func TestDeliberateEmotionalUpdates(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	result, err := e.Deliberate(context.Background(), "topic", nil, 5)
	require.NoError(t, err)

	for team := 1; team <= 3; team++ {
		proposer, err := e.Registry().TeamAgent(team, agent.RoleProposer)
		require.NoError(t, err)
		// 0.5 base + 0.1 hypothesis-phase bump.
		assert.InDelta(t, 0.6, proposer.Emotions.Curiosity, 1e-9)
		assert.Equal(t, int64(1), proposer.Handled)

		adversary, err := e.Registry().TeamAgent(team, agent.RoleAdversary)
		require.NoError(t, err)
		if team == result.WinningTeam {
			assert.InDelta(t, 0.5+0.08+0.05, adversary.Emotions.Confidence, 1e-9)
		} else {
			assert.InDelta(t, 0.5+0.08, adversary.Emotions.Confidence, 1e-9)
			assert.InDelta(t, 0.5+0.05+0.03, adversary.Emotions.Frustration, 1e-9)
		}
	}
}

func TestDeliberateManyRoundsKeepInvariants(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	for i := 0; i < 10; i++ {
		_, err := e.Deliberate(context.Background(), fmt.Sprintf("round %d", i), []string{"ctx"}, 8)
		require.NoError(t, err)
	}

	for _, a := range e.Agents() {
		assert.GreaterOrEqual(t, a.Performance, agent.PerformanceFloor)
		assert.LessOrEqual(t, a.Performance, agent.PerformanceCeil)
		for _, v := range []float64{
			a.Emotions.Empathy, a.Emotions.Curiosity, a.Emotions.Confidence,
			a.Emotions.Frustration, a.Emotions.Satisfaction,
		} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
	assert.Len(t, e.History(), 10)
}

func TestDeliberateDeterministicWithFixedSeeds(t *testing.T) {
	run := func() *Result {
		registry := agent.NewRegistry(3, 21, nil)
		e := NewEngine(registry, stubGenerator{}, 23, nil)
		r, err := e.Deliberate(context.Background(), "topic", []string{"a", "b"}, 7)
		require.NoError(t, err)
		return r
	}
	first := run()
	second := run()
	assert.Equal(t, first.WinningTeam, second.WinningTeam)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Propositions, second.Propositions)
}

func TestHistoryIsAppendOnlyInOrder(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	topics := []string{"first", "second", "third"}
	for _, topic := range topics {
		_, err := e.Deliberate(context.Background(), topic, nil, 3)
		require.NoError(t, err)
	}
	history := e.History()
	require.Len(t, history, 3)
	for i, topic := range topics {
		assert.Equal(t, topic, history[i].Topic)
	}
}

func TestPhaseCallbackOrder(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	var phases []Phase
	e.OnPhase = func(p Phase) { phases = append(phases, p) }
	var got *Result
	e.OnResult = func(r *Result) { got = r }

	result, err := e.Deliberate(context.Background(), "topic", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseHypothesis, PhaseSolution, PhaseCritique, PhaseSynthesis, PhaseSelection}, phases)
	assert.Same(t, result, got)
}

func TestMeetsThreshold(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	for _, a := range e.Agents() {
		require.NoError(t, e.Registry().Update(a.ID, func(x *agent.Agent) { x.Performance = 0.8 }))
	}
	assert.True(t, e.MeetsThreshold())

	first := e.Agents()[0]
	require.NoError(t, e.Registry().Update(first.ID, func(x *agent.Agent) { x.Performance = 0.79999 }))
	assert.False(t, e.MeetsThreshold())
}

func TestAnalyzeTeamMorale(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	rows := e.AnalyzeTeamMorale()
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, i+1, row.TeamID)
		// Fresh roster is emotionally neutral.
		assert.InDelta(t, 0.0, row.Morale, 1e-9)
		assert.GreaterOrEqual(t, row.MeanPerformance, 0.7)
	}

	// Sink one team's frustration and check its morale drops.
	for _, role := range agent.TeamRoles() {
		a, err := e.Registry().TeamAgent(2, role)
		require.NoError(t, err)
		require.NoError(t, e.Registry().Update(a.ID, func(x *agent.Agent) {
			x.Emotions.Apply(agent.EmotionalState{Frustration: 0.5})
		}))
	}
	rows = e.AnalyzeTeamMorale()
	assert.InDelta(t, -0.5, rows[1].Morale, 1e-9)
	assert.InDelta(t, 0.0, rows[0].Morale, 1e-9)
}

func TestConcurrentDeliberations(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	const rounds = 8
	errs := make(chan error, rounds)
	for i := 0; i < rounds; i++ {
		go func() {
			_, err := e.Deliberate(context.Background(), "parallel", nil, 5)
			errs <- err
		}()
	}
	for i := 0; i < rounds; i++ {
		require.NoError(t, <-errs)
	}
	assert.Len(t, e.History(), rounds)
	for _, a := range e.Agents() {
		assert.GreaterOrEqual(t, a.Performance, agent.PerformanceFloor)
		assert.LessOrEqual(t, a.Performance, agent.PerformanceCeil)
	}
}

func TestParticipantsMayRepeatAcrossPhases(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	result, err := e.Deliberate(context.Background(), "topic", nil, 5)
	require.NoError(t, err)

	// Every id must resolve to a live agent; phase roles are distinct here,
	// so this round has no duplicates, but the list allows them.
	seen := map[string]int{}
	for _, id := range result.Participants {
		seen[id]++
		_, err := e.AgentByID(id)
		assert.NoError(t, err)
	}
	assert.Len(t, seen, 13)
}

func TestTraceReadsInPhaseOrder(t *testing.T) {
	e := newTestEngine(t, stubGenerator{})
	result, err := e.Deliberate(context.Background(), "topic", nil, 5)
	require.NoError(t, err)

	var phaseSeq []int
	for _, line := range result.Trace {
		var phase int
		_, err := fmt.Sscanf(line, "phase %d", &phase)
		require.NoError(t, err, "unparseable trace line %q", line)
		phaseSeq = append(phaseSeq, phase)
	}
	assert.True(t, sortedAscending(phaseSeq), "trace phases out of order: %v", phaseSeq)
	assert.True(t, strings.HasPrefix(result.Trace[len(result.Trace)-1], "phase 5"))
}

func sortedAscending(xs []int) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return false
		}
	}
	return true
}
