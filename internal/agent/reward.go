// internal/agent/reward.go
package agent

import "emerald-bridge/internal/env"

// MapGoal awards a one-time bonus for reaching a map.
type MapGoal struct {
	MapBank int
	MapNum  int
	Bonus   float64
}

// DefaultGoals mirrors the bridge's terminal maps: the big prize north of
// the starting route and a smaller one to the west.
func DefaultGoals() []MapGoal {
	return []MapGoal{
		{MapBank: 0, MapNum: 16, Bonus: 50},
		{MapBank: 1, MapNum: 0, Bonus: 25},
	}
}

// RewardSystem shapes the learning signal: +1 for every tile never visited
// this episode, a one-time bonus per goal map, and a small cost on every
// action so the agent prefers short routes.
type RewardSystem struct {
	visited map[[4]int]struct{}
	pending []MapGoal
	goals   []MapGoal
	total   float64
}

const actionCost = 0.1

// NewRewardSystem returns a RewardSystem with the given goal maps.
func NewRewardSystem(goals []MapGoal) *RewardSystem {
	r := &RewardSystem{goals: goals}
	r.Reset()
	return r
}

// Update scores one transition and returns the step reward. Error-flagged
// states earn nothing beyond the action cost.
func (r *RewardSystem) Update(s env.State) float64 {
	reward := -actionCost
	if !s.Err {
		key := s.Key()
		if _, seen := r.visited[key]; !seen {
			r.visited[key] = struct{}{}
			reward++
		}
		for i, g := range r.pending {
			if s.MapBank == g.MapBank && s.MapNum == g.MapNum {
				reward += g.Bonus
				r.pending = append(r.pending[:i], r.pending[i+1:]...)
				break
			}
		}
	}
	r.total += reward
	return reward
}

// Total returns the cumulative episode reward.
func (r *RewardSystem) Total() float64 { return r.total }

// Reset clears visited tiles, restores the pending goals and zeroes the
// cumulative reward.
func (r *RewardSystem) Reset() {
	r.visited = make(map[[4]int]struct{})
	r.pending = append([]MapGoal(nil), r.goals...)
	r.total = 0
}
