// internal/agent/agent.go
package agent

import (
	"math/rand/v2"

	"emerald-bridge/internal/env"
)

// Policy chooses actions and learns from transitions. Random ignores the
// learning half of the interface.
type Policy interface {
	ChooseAction(s env.State) string
	Observe(prev env.State, action string, reward float64, next env.State)
}

// Random is a uniform-random policy over the movement action set, useful as
// a baseline and for stress-testing the bridge.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random policy seeded from the given source.
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

// ChooseAction implements Policy.
func (r *Random) ChooseAction(env.State) string {
	return MoveActions[r.rng.IntN(len(MoveActions))]
}

// Observe implements Policy as a no-op.
func (r *Random) Observe(env.State, string, float64, env.State) {}

// QLearning is an epsilon-greedy tabular Q-learning policy. Epsilon decays
// multiplicatively toward a floor as transitions are observed, shifting from
// exploration to exploitation over training.
type QLearning struct {
	Table *QTable

	alpha      float64
	gamma      float64
	epsilon    float64
	epsilonMin float64
	decay      float64

	rng *rand.Rand
}

// NewQLearning returns a QLearning policy with the training defaults:
// alpha 0.1, gamma 0.99, epsilon 1.0 decaying by 0.9995 to a 0.05 floor.
func NewQLearning(table *QTable, rng *rand.Rand) *QLearning {
	return &QLearning{
		Table:      table,
		alpha:      0.1,
		gamma:      0.99,
		epsilon:    1.0,
		epsilonMin: 0.05,
		decay:      0.9995,
		rng:        rng,
	}
}

// Epsilon returns the current exploration rate.
func (q *QLearning) Epsilon() float64 { return q.epsilon }

// ChooseAction implements Policy: explore with probability epsilon, else the
// greedy action for the current state.
func (q *QLearning) ChooseAction(s env.State) string {
	if q.rng.Float64() < q.epsilon {
		return q.Table.Actions()[q.rng.IntN(len(q.Table.Actions()))]
	}
	return q.Table.Best(KeyFromState(s))
}

// Observe implements Policy: applies the Q update and decays epsilon.
func (q *QLearning) Observe(prev env.State, action string, reward float64, next env.State) {
	q.Table.Update(KeyFromState(prev), action, reward, KeyFromState(next), q.alpha, q.gamma)
	if q.epsilon > q.epsilonMin {
		q.epsilon *= q.decay
		if q.epsilon < q.epsilonMin {
			q.epsilon = q.epsilonMin
		}
	}
}
