package main

import (
	"os"

	_ "time/tzdata"

	"github.com/wonny/soywatch/backend/cmd/soywatch/commands"
)

// main is the entry point for the soywatch CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/soywatch [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
