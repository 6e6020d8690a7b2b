package main

import (
	"log"

	"github.com/andhikadk/smi-test/config"
	"github.com/andhikadk/smi-test/internal/repository"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := repository.Migrate(cfg.Migrations.Path, cfg.Database.DSN()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("migrations applied from %s", cfg.Migrations.Path)
}
