// internal/agent/qtable.go
package agent

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"emerald-bridge/internal/env"
)

// MoveActions is the action set the tabular agent learns over. Menu keys are
// excluded: START/SELECT/L/R only grow the state space without helping the
// navigation task.
var MoveActions = []string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B"}

// StateKey is the tabular state abstraction: position, map identity and the
// battle flag.
type StateKey struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	MapBank  int  `json:"mapBank"`
	MapNum   int  `json:"mapNum"`
	InBattle bool `json:"inBattle"`
}

// KeyFromState projects a bridge state onto the tabular key.
func KeyFromState(s env.State) StateKey {
	return StateKey{X: s.X, Y: s.Y, MapBank: s.MapBank, MapNum: s.MapNum, InBattle: s.InBattle}
}

// QTable holds action values per visited state. Unvisited states read as all
// zeros; rows materialize on first write.
type QTable struct {
	actions []string
	values  map[StateKey]map[string]float64
}

// NewQTable returns an empty table over the given action set.
func NewQTable(actions []string) *QTable {
	return &QTable{
		actions: actions,
		values:  make(map[StateKey]map[string]float64),
	}
}

// Actions returns the table's action set.
func (q *QTable) Actions() []string { return q.actions }

// Len returns the number of materialized state rows.
func (q *QTable) Len() int { return len(q.values) }

func (q *QTable) row(state StateKey) map[string]float64 {
	r, ok := q.values[state]
	if !ok {
		r = make(map[string]float64, len(q.actions))
		for _, a := range q.actions {
			r[a] = 0
		}
		q.values[state] = r
	}
	return r
}

// Get returns Q(state, action).
func (q *QTable) Get(state StateKey, action string) float64 {
	if r, ok := q.values[state]; ok {
		return r[action]
	}
	return 0
}

// Max returns max over actions of Q(state, ·).
func (q *QTable) Max(state StateKey) float64 {
	r, ok := q.values[state]
	if !ok {
		return 0
	}
	best := r[q.actions[0]]
	for _, a := range q.actions[1:] {
		if r[a] > best {
			best = r[a]
		}
	}
	return best
}

// Best returns the highest-valued action for state, breaking ties by action
// order so the result is deterministic.
func (q *QTable) Best(state StateKey) string {
	best := q.actions[0]
	bestV := q.Get(state, best)
	for _, a := range q.actions[1:] {
		if v := q.Get(state, a); v > bestV {
			best, bestV = a, v
		}
	}
	return best
}

// Update applies the one-step Q-learning rule:
// Q(s,a) += alpha * (r + gamma*maxQ(s') - Q(s,a)).
func (q *QTable) Update(state StateKey, action string, reward float64, next StateKey, alpha, gamma float64) {
	r := q.row(state)
	r[action] += alpha * (reward + gamma*q.Max(next) - r[action])
}

// qRow is the serialized form of one (state, action) value.
type qRow struct {
	StateKey
	Action string  `json:"action"`
	Q      float64 `json:"q"`
}

func (q *QTable) rows() []qRow {
	out := make([]qRow, 0, len(q.values)*len(q.actions))
	for state, r := range q.values {
		for _, a := range q.actions {
			out = append(out, qRow{StateKey: state, Action: a, Q: r[a]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.StateKey != b.StateKey {
			if a.MapBank != b.MapBank {
				return a.MapBank < b.MapBank
			}
			if a.MapNum != b.MapNum {
				return a.MapNum < b.MapNum
			}
			if a.X != b.X {
				return a.X < b.X
			}
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			return !a.InBattle && b.InBattle
		}
		return a.Action < b.Action
	})
	return out
}

// Save writes the table as JSON rows.
func (q *QTable) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	return enc.Encode(q.rows())
}

// Load replaces the table contents from a file written by Save.
func (q *QTable) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var rows []qRow
	if err := json.NewDecoder(f).Decode(&rows); err != nil {
		return fmt.Errorf("decode q-table %s: %w", path, err)
	}
	q.values = make(map[StateKey]map[string]float64)
	for _, row := range rows {
		q.row(row.StateKey)[row.Action] = row.Q
	}
	return nil
}

// ExportCSV writes the table in the flat format the log visualizers consume.
func (q *QTable) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"pos_x", "pos_y", "map_bank", "map_num", "in_battle", "action", "q_value"}); err != nil {
		return err
	}
	for _, row := range q.rows() {
		rec := []string{
			strconv.Itoa(row.X),
			strconv.Itoa(row.Y),
			strconv.Itoa(row.MapBank),
			strconv.Itoa(row.MapNum),
			strconv.FormatBool(row.InBattle),
			row.Action,
			strconv.FormatFloat(row.Q, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
