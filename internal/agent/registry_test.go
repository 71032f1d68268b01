package agent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRoster(t *testing.T) {
	r := NewRegistry(3, 1, nil)
	require.NoError(t, r.Validate())

	// 3 teams x 4 roles + 9 management agents.
	assert.Len(t, r.Agents(), 21)
	assert.Equal(t, []int{1, 2, 3}, r.TeamIDs())

	teams := r.Teams()
	require.Len(t, teams, 3)
	for team, members := range teams {
		require.Len(t, members, 4)
		for i, role := range TeamRoles() {
			assert.Equal(t, role, members[i].Role)
			assert.Equal(t, team, members[i].TeamID)
		}
	}

	assert.Len(t, r.Counsellors(), 5)
	assert.Len(t, r.Management(RoleManager), 1)
	assert.Len(t, r.Management(RoleSecurity), 1)
	assert.Len(t, r.Management(RoleBoss), 1)
	assert.Len(t, r.Management(RolePuppetMaster), 1)
}

func TestInitialAgentsSeededInBaseline(t *testing.T) {
	r := NewRegistry(3, 42, nil)
	for _, a := range r.Agents() {
		assert.GreaterOrEqual(t, a.Performance, 0.7, "agent %s", a.ID)
		assert.Less(t, a.Performance, 1.0, "agent %s", a.ID)
		assert.Equal(t, NeutralEmotions(), a.Emotions)
		assert.Zero(t, a.Sanctions)
		assert.NotEmpty(t, a.Tags)
	}
}

func TestGetUnknownAgent(t *testing.T) {
	r := NewRegistry(2, 1, nil)
	_, err := r.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTeamAgentUnknownTeam(t *testing.T) {
	r := NewRegistry(2, 1, nil)
	_, err := r.TeamAgent(9, RoleProposer)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateIsSerializedPerAgent(t *testing.T) {
	r := NewRegistry(2, 1, nil)
	target, err := r.TeamAgent(1, RoleSolver)
	require.NoError(t, err)

	const writers = 100
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Update(target.ID, func(a *Agent) { a.Handled++ })
		}()
	}
	wg.Wait()

	got, err := r.Get(target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), got.Handled, "lost updates")
}

func TestSnapshotIsolation(t *testing.T) {
	r := NewRegistry(2, 1, nil)
	a, err := r.TeamAgent(1, RoleProposer)
	require.NoError(t, err)

	a.Tags[0] = "mutated"
	a.Performance = 0

	fresh, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", fresh.Tags[0])
	assert.NotZero(t, fresh.Performance)
}

func TestReplaceTeamAgent(t *testing.T) {
	r := NewRegistry(3, 7, nil)
	old, err := r.TeamAgent(2, RoleAdversary)
	require.NoError(t, err)

	r.Update(old.ID, func(a *Agent) {
		a.Sanctions = 3
		a.Emotions.Apply(EmotionalState{Frustration: 0.4})
	})

	fresh, err := r.Replace(old.ID)
	require.NoError(t, err)

	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Equal(t, RoleAdversary, fresh.Role)
	assert.Equal(t, 2, fresh.TeamID)
	assert.Zero(t, fresh.Sanctions)
	assert.Equal(t, NeutralEmotions(), fresh.Emotions)
	assert.GreaterOrEqual(t, fresh.Performance, 0.7)
	assert.Less(t, fresh.Performance, 1.0)

	// Old id is retired, registry size is constant, structure intact.
	_, err = r.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, r.Agents(), 21)
	require.NoError(t, r.Validate())

	slot, err := r.TeamAgent(2, RoleAdversary)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, slot.ID)
}

func TestReplaceManagementAgent(t *testing.T) {
	r := NewRegistry(3, 7, nil)
	old := r.Counsellors()[2]

	fresh, err := r.Replace(old.ID)
	require.NoError(t, err)

	assert.Equal(t, RoleCounsellor, fresh.Role)
	assert.Zero(t, fresh.TeamID)
	assert.Len(t, r.Counsellors(), 5)
	require.NoError(t, r.Validate())

	ids := make(map[string]bool)
	for _, c := range r.Counsellors() {
		ids[c.ID] = true
	}
	assert.True(t, ids[fresh.ID])
	assert.False(t, ids[old.ID])
}

func TestReplaceUnknownAgent(t *testing.T) {
	r := NewRegistry(2, 1, nil)
	_, err := r.Replace("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateRejectsEmptyRoster(t *testing.T) {
	r := NewRegistry(0, 1, nil)
	assert.ErrorIs(t, r.Validate(), ErrInvariant)
}

func TestMeanPerformanceBoundary(t *testing.T) {
	r := NewRegistry(3, 1, nil)
	for _, a := range r.Agents() {
		require.NoError(t, r.Update(a.ID, func(x *Agent) { x.Performance = 0.8 }))
	}
	assert.InDelta(t, 0.8, r.MeanPerformance(), 1e-12)

	// Dropping one agent just below pulls the mean under 0.8.
	first := r.Agents()[0]
	require.NoError(t, r.Update(first.ID, func(x *Agent) { x.Performance = 0.79999 }))
	assert.Less(t, r.MeanPerformance(), 0.8)
}
