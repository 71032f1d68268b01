// Package agent defines agent identities, roles, emotional state, and the
// registry that owns them.
package agent

// Role identifies an agent's function, either within a team or in the
// management layer.
type Role string

const (
	RoleProposer  Role = "proposer"
	RoleSolver    Role = "solver"
	RoleAdversary Role = "adversary"
	RoleHandler   Role = "handler"

	RoleManager      Role = "manager"
	RoleCounsellor   Role = "counsellor"
	RoleSecurity     Role = "security"
	RoleBoss         Role = "boss"
	RolePuppetMaster Role = "puppet_master"
)

// TeamRoles returns the four roles every team must fill, in pipeline order.
func TeamRoles() []Role {
	return []Role{RoleProposer, RoleSolver, RoleAdversary, RoleHandler}
}

// managementRoster maps management roles to how many agents hold each one.
var managementRoster = []struct {
	Role  Role
	Count int
}{
	{RoleManager, 1},
	{RoleSecurity, 1},
	{RoleCounsellor, 5},
	{RoleBoss, 1},
	{RolePuppetMaster, 1},
}

// defaultTags lists the specialization tags seeded onto new agents per role.
var defaultTags = map[Role][]string{
	RoleProposer:     {"ideation", "hypothesis"},
	RoleSolver:       {"execution", "planning"},
	RoleAdversary:    {"critique", "stress-testing"},
	RoleHandler:      {"synthesis", "arbitration"},
	RoleManager:      {"oversight", "selection"},
	RoleCounsellor:   {"judgment", "ethics"},
	RoleSecurity:     {"safety"},
	RoleBoss:         {"strategy"},
	RolePuppetMaster: {"orchestration"},
}

const (
	// PerformanceFloor and PerformanceCeil bound every agent's performance.
	PerformanceFloor = 0.1
	PerformanceCeil  = 1.0

	// Replacement agents (and the initial roster) start in [baselineMin, baselineMax).
	baselineMin = 0.7
	baselineMax = 1.0
)

// Agent is an immutable snapshot of one agent. Mutation happens only through
// Registry.Update and Registry.Replace.
type Agent struct {
	ID          string         `json:"id"`
	Role        Role           `json:"role"`
	TeamID      int            `json:"team_id"` // 0 for management-layer agents
	Sanctions   int            `json:"sanctions"`
	Performance float64        `json:"performance"`
	Emotions    EmotionalState `json:"emotions"`
	Tags        []string       `json:"tags"`
	Handled     int64          `json:"handled"`
}

// AdjustPerformance adds delta to the agent's performance, clamped to
// [PerformanceFloor, PerformanceCeil].
func (a *Agent) AdjustPerformance(delta float64) {
	a.Performance = clamp(a.Performance+delta, PerformanceFloor, PerformanceCeil)
}

// Morale is the agent's derived telemetry value:
// mean(satisfaction, confidence) - frustration. The output is deliberately
// unclamped; it is reporting-only.
func (a Agent) Morale() float64 {
	return a.Emotions.Morale()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
