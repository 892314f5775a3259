// cmd/bridge/main.go
//
// Runs the bridge against the in-process sim emulator. Useful for exercising
// agents and clients without mGBA attached; with a real emulator the same
// bridge.Session is driven from the emulator's per-frame callback instead of
// the ticker below.
package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"emerald-bridge/internal/bridge"
	"emerald-bridge/internal/emu"
	"emerald-bridge/internal/episode"
)

func main() {
	godotenv.Load()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if envOr("BRIDGE_DEBUG", "") != "" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	epCfg := episode.DefaultConfig()
	epCfg.MaxSteps = envUint("BRIDGE_MAX_STEPS", epCfg.MaxSteps)
	epCfg.MaxSoftlock = envUint("BRIDGE_MAX_SOFTLOCK", epCfg.MaxSoftlock)

	cfg := bridge.Config{
		Addr:         envOr("BRIDGE_ADDR", ":8888"),
		SnapshotPath: envOr("BRIDGE_SNAPSHOT", "emerald.ss1"),
		Episode:      epCfg,
	}

	sim := emu.NewSim()
	sess, err := bridge.New(cfg, sim, sim, sim)
	if err != nil {
		// A misconfigured port is a deployment error, not a runtime
		// condition to tolerate.
		logrus.WithError(err).Fatal("listen failed")
	}
	defer sess.Close()
	logrus.WithField("addr", sess.Addr()).Info("bridge listening")

	hz := envUint("BRIDGE_TICK_HZ", 60)
	if hz == 0 {
		hz = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-stop:
			logrus.Info("shutting down")
			return
		case <-ticker.C:
			sess.Tick()
			sim.Advance()
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint) uint {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		logrus.WithField(key, v).Warn("ignoring malformed value")
		return fallback
	}
	return uint(n)
}
