package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ilyakh/marginalia/internal/cli"
)

func main() {
	// A local .env may carry provider API keys; absence is fine.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
