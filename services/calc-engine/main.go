package main

import (
	"os"

	"github.com/joho/godotenv"

	"property_projection/services/calc-engine/commands"
)

func main() {
	_ = godotenv.Load()

	if err := commands.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
