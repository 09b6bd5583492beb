// Package telemetry builds the application logger.
package telemetry

import (
	"go.uber.org/zap"
)

// NewLogger constructs the process-wide zap logger. Development mode gets the
// human-readable console encoder; anything else gets production JSON.
func NewLogger(environment string) (*zap.Logger, error) {
	if environment == "development" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
