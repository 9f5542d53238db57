package logger_test

import (
	"errors"

	"github.com/wonny/soywatch/backend/pkg/config"
	"github.com/wonny/soywatch/backend/pkg/logger"
)

// Example_withFields demonstrates structured logging around one contract fetch
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	contractLog := log.WithFields(map[string]interface{}{
		"contract": "m2405",
		"quote_id": "114.m2405",
	})
	contractLog.Info("Contract fetched")
}

// Example_withError demonstrates error logging on a failed attempt
func Example_withError() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "warn",
		LogFormat: "console",
	}

	log := logger.New(cfg)

	err := errors.New("connection reset by peer")
	log.WithError(err).
		WithFields(map[string]interface{}{
			"attempt": 1,
			"delay":   "2s",
		}).
		Warn("Fetch attempt failed, backing off")
}
