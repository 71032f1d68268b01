package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agora-dev/agora/internal/agent"
	"github.com/agora-dev/agora/internal/config"
	"github.com/agora-dev/agora/internal/deliberation"
	"github.com/agora-dev/agora/internal/deliberation/generator"
	"github.com/agora-dev/agora/internal/sanction"
)

// runtime bundles everything a subcommand needs after setup.
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *agent.Registry
	engine   *deliberation.Engine
	sanction *sanction.Controller
	seed     int64
}

// setup loads config, applies root flag overrides, and assembles the
// registry, engine, and sanction controller.
func setup(cmd *cobra.Command) (*runtime, error) {
	flags := cmd.Root().PersistentFlags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("journal") {
		cfg.JournalPath, _ = flags.GetString("journal")
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	registry := agent.NewRegistry(cfg.Teams, seed, log)
	engine := deliberation.NewEngine(registry, generator.NewHeuristic(seed+1), seed+2, log)
	engine.SetGenerationTimeout(cfg.GenerationTimeout)
	engine.SetReadinessThreshold(cfg.ReadinessThreshold)

	controller := sanction.NewController(registry, sanction.NewHeuristicVoter(seed+3), log)
	controller.SetThreshold(cfg.SanctionThreshold)

	return &runtime{
		cfg:      cfg,
		log:      log,
		registry: registry,
		engine:   engine,
		sanction: controller,
		seed:     seed,
	}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}
