package agent

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound reports an unknown agent or team id.
	ErrNotFound = errors.New("agent: not found")
	// ErrInvariant reports a registry that no longer has the required
	// team/role structure. It is fatal for deliberation rounds.
	ErrInvariant = errors.New("agent: registry invariant violated")
)

// Registry is the single source of truth for all agent records. Writes to a
// given agent are serialized through a per-agent lock; reads return
// point-in-time copies. Team composition changes only through Replace.
type Registry struct {
	mu         sync.RWMutex
	agents     map[string]*entry
	order      []string            // stable listing order
	teams      map[int]map[Role]string
	management map[Role][]string
	teamCount  int
	rng        *rand.Rand // guarded by mu
	log        *zap.Logger
}

type entry struct {
	mu sync.Mutex
	a  Agent
}

// NewRegistry builds the fixed roster: teams teams of four role-bound agents
// plus the management layer. The seed drives initial performance values.
func NewRegistry(teams int, seed int64, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		agents:     make(map[string]*entry),
		teams:      make(map[int]map[Role]string),
		management: make(map[Role][]string),
		teamCount:  teams,
		rng:        rand.New(rand.NewSource(seed)),
		log:        log,
	}
	for team := 1; team <= teams; team++ {
		slots := make(map[Role]string, len(TeamRoles()))
		for _, role := range TeamRoles() {
			a := r.newAgent(role, team)
			slots[role] = a.ID
		}
		r.teams[team] = slots
	}
	for _, m := range managementRoster {
		for i := 0; i < m.Count; i++ {
			a := r.newAgent(m.Role, 0)
			r.management[m.Role] = append(r.management[m.Role], a.ID)
		}
	}
	return r
}

// newAgent inserts a freshly seeded agent. Caller must hold r.mu or be the
// single-threaded constructor.
func (r *Registry) newAgent(role Role, team int) Agent {
	a := Agent{
		ID:          uuid.NewString(),
		Role:        role,
		TeamID:      team,
		Performance: baselineMin + r.rng.Float64()*(baselineMax-baselineMin),
		Emotions:    NeutralEmotions(),
		Tags:        append([]string(nil), defaultTags[role]...),
	}
	r.agents[a.ID] = &entry{a: a}
	r.order = append(r.order, a.ID)
	return a
}

// TeamCount returns the number of teams in the roster.
func (r *Registry) TeamCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.teamCount
}

// Get returns a snapshot of the agent with the given id.
func (r *Registry) Get(id string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.agents[id]
	if !ok {
		return Agent{}, fmt.Errorf("%w: agent %s", ErrNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.a), nil
}

// Agents returns snapshots of every registered agent in stable order.
func (r *Registry) Agents() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Agent, 0, len(r.order))
	for _, id := range r.order {
		e := r.agents[id]
		e.mu.Lock()
		out = append(out, snapshot(e.a))
		e.mu.Unlock()
	}
	return out
}

// Teams returns team id -> member snapshots in role order, for teams 1..N.
func (r *Registry) Teams() map[int][]Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int][]Agent, len(r.teams))
	for team, slots := range r.teams {
		members := make([]Agent, 0, len(slots))
		for _, role := range TeamRoles() {
			e := r.agents[slots[role]]
			e.mu.Lock()
			members = append(members, snapshot(e.a))
			e.mu.Unlock()
		}
		out[team] = members
	}
	return out
}

// TeamAgent returns a snapshot of the agent filling role on the given team.
func (r *Registry) TeamAgent(team int, role Role) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slots, ok := r.teams[team]
	if !ok {
		return Agent{}, fmt.Errorf("%w: team %d", ErrNotFound, team)
	}
	id, ok := slots[role]
	if !ok {
		return Agent{}, fmt.Errorf("%w: team %d has no %s", ErrNotFound, team, role)
	}
	e := r.agents[id]
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot(e.a), nil
}

// Management returns snapshots of the agents holding a management role.
func (r *Registry) Management(role Role) []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.management[role]
	out := make([]Agent, 0, len(ids))
	for _, id := range ids {
		e := r.agents[id]
		e.mu.Lock()
		out = append(out, snapshot(e.a))
		e.mu.Unlock()
	}
	return out
}

// Counsellors returns the five counsellor agents.
func (r *Registry) Counsellors() []Agent {
	return r.Management(RoleCounsellor)
}

// Update applies fn to the agent under its per-agent lock. fn sees and
// mutates the live record; it must use the clamped setters for performance
// and emotions. The update is all-or-nothing with respect to other writers.
func (r *Registry) Update(id string, fn func(*Agent)) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.agents[id]
	if !ok {
		return fmt.Errorf("%w: agent %s", ErrNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.a)
	return nil
}

// Replace retires the agent with the given id and installs a fresh agent in
// the same role and team slot: new id, zero sanctions, re-seeded baseline
// performance, neutral emotions. Registry size is constant and no
// intermediate state with an empty or doubled slot is observable.
func (r *Registry) Replace(id string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.agents[id]
	if !ok {
		return Agent{}, fmt.Errorf("%w: agent %s", ErrNotFound, id)
	}
	role, team := old.a.Role, old.a.TeamID
	delete(r.agents, id)

	fresh := Agent{
		ID:          uuid.NewString(),
		Role:        role,
		TeamID:      team,
		Performance: baselineMin + r.rng.Float64()*(baselineMax-baselineMin),
		Emotions:    NeutralEmotions(),
		Tags:        append([]string(nil), defaultTags[role]...),
	}
	r.agents[fresh.ID] = &entry{a: fresh}

	for i, oid := range r.order {
		if oid == id {
			r.order[i] = fresh.ID
			break
		}
	}
	if team > 0 {
		r.teams[team][role] = fresh.ID
	} else {
		ids := r.management[role]
		for i, oid := range ids {
			if oid == id {
				ids[i] = fresh.ID
				break
			}
		}
	}

	r.log.Info("agent replaced",
		zap.String("old_id", id),
		zap.String("new_id", fresh.ID),
		zap.String("role", string(role)),
		zap.Int("team", team),
	)
	return snapshot(fresh), nil
}

// Validate checks the fixed team/role structure: every team 1..N has exactly
// one agent per required role, and the management layer is complete.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.teamCount < 1 {
		return fmt.Errorf("%w: no teams configured", ErrInvariant)
	}
	for team := 1; team <= r.teamCount; team++ {
		slots, ok := r.teams[team]
		if !ok {
			return fmt.Errorf("%w: team %d missing", ErrInvariant, team)
		}
		for _, role := range TeamRoles() {
			id, ok := slots[role]
			if !ok {
				return fmt.Errorf("%w: team %d has no %s", ErrInvariant, team, role)
			}
			if _, ok := r.agents[id]; !ok {
				return fmt.Errorf("%w: team %d %s points at unknown agent", ErrInvariant, team, role)
			}
		}
	}
	for _, m := range managementRoster {
		if got := len(r.management[m.Role]); got != m.Count {
			return fmt.Errorf("%w: expected %d %s agents, have %d", ErrInvariant, m.Count, m.Role, got)
		}
	}
	return nil
}

// MeanPerformance is the arithmetic mean of performance across all agents.
func (r *Registry) MeanPerformance() float64 {
	agents := r.Agents()
	if len(agents) == 0 {
		return 0
	}
	var sum float64
	for _, a := range agents {
		sum += a.Performance
	}
	return sum / float64(len(agents))
}

// TeamIDs returns the team ids in ascending order.
func (r *Registry) TeamIDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int, 0, len(r.teams))
	for id := range r.teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func snapshot(a Agent) Agent {
	a.Tags = append([]string(nil), a.Tags...)
	return a
}
