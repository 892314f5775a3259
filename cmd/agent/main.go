// cmd/agent/main.go
//
// Training driver: connects to a running bridge and plays episodes with
// either a random or a tabular Q-learning policy, shaping rewards locally
// and persisting transitions plus the learned Q-table between runs.
package main

import (
	"errors"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"emerald-bridge/internal/agent"
	"emerald-bridge/internal/env"
)

func main() {
	godotenv.Load()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	addr := envOr("AGENT_BRIDGE_ADDR", "127.0.0.1:8888")
	policyName := envOr("AGENT_POLICY", "qlearn")
	episodes := envInt("AGENT_EPISODES", 100)
	tablePath := envOr("AGENT_QTABLE", "qtable.json")
	csvPath := envOr("AGENT_QTABLE_CSV", "")
	storePath := envOr("AGENT_STORE", "episodes.db")

	e := env.New(addr)
	if err := e.Connect(); err != nil {
		logrus.WithError(err).Fatal("cannot reach bridge; is it running?")
	}
	defer e.Close()
	if err := e.Ping(); err != nil {
		logrus.WithError(err).Fatal("ping failed")
	}
	logrus.WithField("addr", addr).Info("connected to bridge")

	seed := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))

	table := agent.NewQTable(agent.MoveActions)
	if _, err := os.Stat(tablePath); err == nil {
		if err := table.Load(tablePath); err != nil {
			logrus.WithError(err).Fatal("q-table load failed")
		}
		logrus.WithField("states", table.Len()).Info("resumed q-table")
	}

	var policy agent.Policy
	switch policyName {
	case "random":
		policy = agent.NewRandom(rng)
	case "qlearn":
		policy = agent.NewQLearning(table, rng)
	default:
		logrus.WithField("policy", policyName).Fatal("unknown policy")
	}

	var store *agent.Store
	if storePath != "" {
		var err error
		if store, err = agent.OpenStore(storePath); err != nil {
			logrus.WithError(err).Fatal("episode store open failed")
		}
		defer store.Close()
	}

	rewards := agent.NewRewardSystem(agent.DefaultGoals())

	for ep := 0; ep < episodes; ep++ {
		if err := runEpisode(e, policy, rewards, store); err != nil {
			logrus.WithError(err).WithField("episode", ep).Error("episode aborted")
			break
		}
		if policyName == "qlearn" {
			if err := table.Save(tablePath); err != nil {
				logrus.WithError(err).Error("q-table save failed")
			}
			if csvPath != "" {
				if err := table.ExportCSV(csvPath); err != nil {
					logrus.WithError(err).Error("q-table export failed")
				}
			}
		}
	}
}

func runEpisode(e *env.Env, policy agent.Policy, rewards *agent.RewardSystem, store *agent.Store) error {
	id := uuid.New()
	log := logrus.WithField("episode", id.String())
	start := time.Now()

	if store != nil {
		if err := store.BeginEpisode(id, start); err != nil {
			return err
		}
	}
	if err := e.Reset(); err != nil {
		return err
	}
	rewards.Reset()

	state, err := e.State()
	if err != nil {
		return err
	}

	steps := 0
	for !state.Done {
		action := policy.ChooseAction(state)
		next, err := e.Step(action)
		if errors.Is(err, env.ErrActionInProgress) {
			// A previous action still owns the frame budget; back off.
			time.Sleep(50 * time.Millisecond)
			continue
		}
		if err != nil {
			return err
		}
		r := rewards.Update(next)
		policy.Observe(state, action, r, next)
		steps++
		if store != nil {
			if err := store.RecordStep(id, steps, action, next, r); err != nil {
				log.WithError(err).Warn("step not recorded")
			}
		}
		state = next
	}

	if store != nil {
		if err := store.FinishEpisode(id, time.Now(), steps, rewards.Total()); err != nil {
			log.WithError(err).Warn("episode not finalized")
		}
	}
	fields := logrus.Fields{
		"steps":    steps,
		"reward":   rewards.Total(),
		"duration": time.Since(start).Round(time.Second).String(),
	}
	if q, ok := policy.(*agent.QLearning); ok {
		fields["epsilon"] = q.Epsilon()
	}
	log.WithFields(fields).Info("episode finished")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField(key, v).Warn("ignoring malformed value")
		return fallback
	}
	return n
}
