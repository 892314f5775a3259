// internal/agent/store.go
package agent

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"emerald-bridge/internal/env"
)

// Store persists episode transitions to a local sqlite database so training
// runs can be replayed and charted after the fact.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS episodes (
	id           TEXT PRIMARY KEY,
	started_at   TIMESTAMP NOT NULL,
	finished_at  TIMESTAMP,
	steps        INTEGER NOT NULL DEFAULT 0,
	total_reward REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS steps (
	episode_id TEXT NOT NULL REFERENCES episodes(id),
	step       INTEGER NOT NULL,
	action     TEXT NOT NULL,
	x          INTEGER NOT NULL,
	y          INTEGER NOT NULL,
	map_bank   INTEGER NOT NULL,
	map_num    INTEGER NOT NULL,
	in_battle  INTEGER NOT NULL,
	done       INTEGER NOT NULL,
	err        INTEGER NOT NULL,
	reward     REAL NOT NULL,
	PRIMARY KEY (episode_id, step)
);
`

// OpenStore opens (creating if needed) the episode database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// BeginEpisode registers a new episode row.
func (s *Store) BeginEpisode(id uuid.UUID, startedAt time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO episodes (id, started_at) VALUES (?, ?)`,
		id.String(), startedAt.UTC(),
	)
	return err
}

// RecordStep appends one transition to the episode.
func (s *Store) RecordStep(id uuid.UUID, step int, action string, st env.State, reward float64) error {
	_, err := s.db.Exec(
		`INSERT INTO steps (episode_id, step, action, x, y, map_bank, map_num, in_battle, done, err, reward)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), step, action, st.X, st.Y, st.MapBank, st.MapNum,
		st.InBattle, st.Done, st.Err, reward,
	)
	return err
}

// FinishEpisode stamps the episode's final step count and reward total.
func (s *Store) FinishEpisode(id uuid.UUID, finishedAt time.Time, steps int, totalReward float64) error {
	_, err := s.db.Exec(
		`UPDATE episodes SET finished_at = ?, steps = ?, total_reward = ? WHERE id = ?`,
		finishedAt.UTC(), steps, totalReward, id.String(),
	)
	return err
}

// EpisodeSteps returns the number of recorded transitions for an episode.
func (s *Store) EpisodeSteps(id uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM steps WHERE episode_id = ?`, id.String(),
	).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
