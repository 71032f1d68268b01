// Package sanction implements the counsellor-vote sanction mechanism and the
// agent replacement it can trigger.
package sanction

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/agora-dev/agora/internal/agent"
)

// Reason is the ground on which an agent is nominated for sanctioning.
type Reason string

const (
	ReasonIrrelevancy Reason = "irrelevancy"
	ReasonLaziness    Reason = "laziness"
	ReasonComplacency Reason = "complacency"
	ReasonEthics      Reason = "ethics"
)

// ParseReason validates a reason string.
func ParseReason(s string) (Reason, error) {
	switch Reason(s) {
	case ReasonIrrelevancy, ReasonLaziness, ReasonComplacency, ReasonEthics:
		return Reason(s), nil
	}
	return "", fmt.Errorf("sanction: unknown reason %q", s)
}

// DefaultThreshold is the sanction count at which an agent is replaced.
const DefaultThreshold = 3

// Voter decides one counsellor's vote on a nominated agent. Production uses
// a heuristic; tests inject fixed vote sequences.
type Voter interface {
	Approve(counsellor, target agent.Agent, reason Reason) bool
}

// Controller polls the counsellors and applies sanctions and replacements.
type Controller struct {
	registry  *agent.Registry
	voter     Voter
	threshold int
	log       *zap.Logger
}

// NewController creates a Controller with the default replacement threshold.
func NewController(registry *agent.Registry, voter Voter, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		registry:  registry,
		voter:     voter,
		threshold: DefaultThreshold,
		log:       log,
	}
}

// SetThreshold overrides the replacement threshold.
func (c *Controller) SetThreshold(n int) { c.threshold = n }

// Evaluate polls all counsellors on the nominated agent. A majority (>50%)
// increments the agent's sanction counter; reaching the threshold replaces
// the agent atomically (new id, reset sanctions, re-seeded performance,
// neutral emotions, same role and team slot). The returned bool reports
// whether a replacement happened. An unknown id returns agent.ErrNotFound
// with no side effects.
func (c *Controller) Evaluate(id string, reason Reason) (bool, error) {
	target, err := c.registry.Get(id)
	if err != nil {
		return false, err
	}

	counsellors := c.registry.Counsellors()
	approvals := 0
	for _, counsellor := range counsellors {
		if c.voter.Approve(counsellor, target, reason) {
			approvals++
		}
	}
	c.log.Info("sanction vote",
		zap.String("agent", id),
		zap.String("reason", string(reason)),
		zap.Int("approvals", approvals),
		zap.Int("counsellors", len(counsellors)),
	)
	if approvals*2 <= len(counsellors) {
		return false, nil
	}

	var count int
	if err := c.registry.Update(id, func(a *agent.Agent) {
		a.Sanctions++
		count = a.Sanctions
	}); err != nil {
		// The agent was replaced between the vote and the write. Treat the
		// nomination as moot.
		if errors.Is(err, agent.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if count < c.threshold {
		return false, nil
	}

	if _, err := c.registry.Replace(id); err != nil {
		if errors.Is(err, agent.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HeuristicVoter is the production Voter: a seeded judgment weighing the
// target's performance, its sanction history, the reason, and the
// counsellor's own empathy.
type HeuristicVoter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewHeuristicVoter creates a HeuristicVoter seeded with seed.
func NewHeuristicVoter(seed int64) *HeuristicVoter {
	return &HeuristicVoter{rng: rand.New(rand.NewSource(seed))}
}

// Approve implements Voter.
func (v *HeuristicVoter) Approve(counsellor, target agent.Agent, reason Reason) bool {
	p := 0.25 + (1-target.Performance)*0.5
	if reason == ReasonEthics {
		p += 0.2
	}
	if target.Sanctions > 0 {
		p += 0.1
	}
	// Empathetic counsellors lean against sanctioning.
	p -= (counsellor.Emotions.Empathy - 0.5) * 0.2
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rng.Float64() < p
}
