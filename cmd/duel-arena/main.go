package main

import (
	"github.com/ericogr/duel-arena/internal/api"
	"github.com/ericogr/duel-arena/internal/bot"
	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/hub"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/rewards"
	"github.com/ericogr/duel-arena/internal/service"
	"github.com/ericogr/duel-arena/internal/version"
)

func main() {
	env := loadEnvOrExit()
	logging.SetLevel(env.LogLevel)

	cfg := loadConfigOrExit(env.ConfigPath)
	env.Apply(cfg)
	repo := createRepositoryOrExit(env.Database, cfg)

	dispatcher := rewards.NewDispatcher(repo, constants.RewardWorkers, constants.RewardQueueSize)
	dispatcher.Start()

	brain := bot.NewBrain(nil)
	lobby := service.NewLobby(service.Deps{
		Hub:         hub.New(),
		Roster:      bot.NewRoster(cfg.Bots),
		Profiles:    repo,
		Reporter:    dispatcher,
		Brain:       brain,
		AcceptDelay: brain.Between,
		Timing:      cfg.Timing,
		Rewards:     cfg.Rewards,
	})
	sched := startSweeper(lobby)

	handler := api.NewGameHandler(lobby, repo, env.AllowedOrigins)
	router := api.NewRouter(handler, api.SessionSecret(env.JWTSecret))

	logging.Info("arena configured", logging.Fields{
		"version": version.Version,
		"bots":    len(cfg.Bots),
		"classes": len(cfg.Classes),
	})
	serve(cfg.ServerAddress, router, func() {
		if err := sched.Shutdown(); err != nil {
			logging.Error("scheduler shutdown failed", err, nil)
		}
		lobby.Shutdown()
		dispatcher.Stop()
	})
}
