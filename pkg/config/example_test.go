package config_test

import (
	"fmt"

	"github.com/wonny/soywatch/backend/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Look-ahead months: %d\n", cfg.Calendar.LookAhead)
	fmt.Printf("Varieties: %d\n", len(cfg.Calendar.Varieties))
	fmt.Printf("Today: %s\n", cfg.Today())
}
