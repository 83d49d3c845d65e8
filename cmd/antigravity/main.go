package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/antigravity/trader/cmd/antigravity/cmd"
)

func main() {
	// Optional .env for API credentials; absence is fine.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
