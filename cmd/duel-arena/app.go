package main

import (
	"github.com/ericogr/duel-arena/internal/config"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/storage"
)

func loadEnvOrExit() config.Env {
	env, err := config.LoadEnv()
	if err != nil {
		logging.Fatal("Invalid environment", err, nil)
	}
	return env
}

func loadConfigOrExit(path string) *config.LoadedConfig {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Fatal("Missing or invalid arena configuration", err, logging.Fields{
			"config_path": path,
			"hint":        "create an arena_config.json with a 'bot_list' array of bots (id,name,difficulty,predictability,class,attributes,equipment) and optional keys: server.address, timing, rewards, class_list",
		})
	}
	return cfg
}

func createRepositoryOrExit(dsn string, cfg *config.LoadedConfig) storage.Repository {
	db, err := storage.OpenDB(dsn)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	return storage.NewGormRepository(db, cfg.Rewards, cfg.Classes)
}
