// internal/agent/qtable_test.go
package agent

import (
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emerald-bridge/internal/env"
)

func TestQTableUpdateMovesTowardTarget(t *testing.T) {
	q := NewQTable(MoveActions)
	s := StateKey{X: 1, Y: 1}
	next := StateKey{X: 1, Y: 2}

	// Seed the next state so maxQ(next) is nonzero.
	q.Update(next, "UP", 1.0, StateKey{X: 9}, 1.0, 0)
	require.InDelta(t, 1.0, q.Max(next), 1e-9)

	// Q(s,a) += alpha * (r + gamma*maxQ(next) - Q(s,a))
	q.Update(s, "DOWN", 2.0, next, 0.1, 0.99)
	assert.InDelta(t, 0.1*(2.0+0.99*1.0), q.Get(s, "DOWN"), 1e-9)

	// Unrelated entries stay zero.
	assert.Zero(t, q.Get(s, "UP"))
}

func TestQTableBestDeterministicTieBreak(t *testing.T) {
	q := NewQTable(MoveActions)
	s := StateKey{X: 5}
	assert.Equal(t, MoveActions[0], q.Best(s), "all-zero row breaks ties by action order")

	q.Update(s, "LEFT", 10, s, 1.0, 0)
	assert.Equal(t, "LEFT", q.Best(s))
}

func TestQTableSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qtable.json")

	q := NewQTable(MoveActions)
	q.Update(StateKey{X: 1, Y: 2, MapBank: 0, MapNum: 9}, "A", 5, StateKey{}, 1.0, 0)
	q.Update(StateKey{X: 3, Y: 4, MapBank: 1, MapNum: 0, InBattle: true}, "B", -2, StateKey{}, 1.0, 0)
	require.NoError(t, q.Save(path))

	loaded := NewQTable(MoveActions)
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, q.Len(), loaded.Len())
	assert.InDelta(t, 5.0, loaded.Get(StateKey{X: 1, Y: 2, MapBank: 0, MapNum: 9}, "A"), 1e-9)
	assert.InDelta(t, -2.0, loaded.Get(StateKey{X: 3, Y: 4, MapBank: 1, MapNum: 0, InBattle: true}, "B"), 1e-9)
}

func TestQTableExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qtable.csv")
	q := NewQTable(MoveActions)
	q.Update(StateKey{X: 1}, "UP", 1, StateKey{}, 1.0, 0)
	require.NoError(t, q.ExportCSV(path))
}

func TestQLearningEpsilonDecaysToFloor(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	p := NewQLearning(NewQTable(MoveActions), rng)

	prev := p.Epsilon()
	require.Equal(t, 1.0, prev)
	for i := 0; i < 20000; i++ {
		p.Observe(env.State{}, "UP", 0, env.State{})
		if p.Epsilon() > prev {
			t.Fatal("epsilon must be non-increasing")
		}
		prev = p.Epsilon()
	}
	assert.InDelta(t, 0.05, p.Epsilon(), 1e-9, "epsilon bottoms out at the floor")
}

func TestQLearningGreedyWhenEpsilonExhausted(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	table := NewQTable(MoveActions)
	p := NewQLearning(table, rng)
	for p.Epsilon() > 0.05 {
		p.Observe(env.State{}, "UP", 0, env.State{})
	}

	s := env.State{X: 2, Y: 3}
	table.Update(KeyFromState(s), "RIGHT", 100, StateKey{}, 1.0, 0)

	greedy := 0
	for i := 0; i < 1000; i++ {
		if p.ChooseAction(s) == "RIGHT" {
			greedy++
		}
	}
	// With epsilon at 0.05, ~95% of choices are greedy.
	assert.Greater(t, greedy, 900)
}

func TestRandomPolicyStaysInActionSet(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	p := NewRandom(rng)
	valid := make(map[string]bool)
	for _, a := range MoveActions {
		valid[a] = true
	}
	for i := 0; i < 100; i++ {
		assert.True(t, valid[p.ChooseAction(env.State{})])
	}
}
