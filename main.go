package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"sjsage522/projectwatcher/cmd"
	"sjsage522/projectwatcher/logger"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	if err := cmd.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
