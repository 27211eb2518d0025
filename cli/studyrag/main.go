package main

import (
	"os"

	"github.com/joho/godotenv"

	studyragcmder "github.com/papercomputeco/studyrag/cmd/studyrag"
)

func main() {
	// Provider API keys may live in a .env file next to the working directory.
	_ = godotenv.Load()

	cmd := studyragcmder.NewStudyragCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
