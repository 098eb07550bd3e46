package main

import (
	"os"

	"github.com/joho/godotenv"

	"tracelink/internal/logging"
)

func main() {
	// A .env next to the invocation may carry TRACELINK_* overrides.
	// Missing files are the normal case.
	_ = godotenv.Load()

	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
