package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/mudler/xlog"
	"github.com/shadow7/omnichunk/pkg/config"
)

func main() {
	// a missing .env is fine, the environment may be set already
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		xlog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	startAPI(cfg)
}
