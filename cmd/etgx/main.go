package main

import (
	"github.com/joho/godotenv"

	"github.com/mvp-joe/etg-extract/internal/cli"
)

func main() {
	// ETGX_* overrides may come from a .env file in the working directory.
	_ = godotenv.Load()

	cli.Execute()
}
