package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the engine's root logger. Production environments get
// JSON output at info level; everything else gets the human-readable
// development console at debug level. Components derive their own loggers
// from the root with .Named().
func NewLogger(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch env {
	case "production":
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.With(zap.String("service", "localpulse-engine")), nil
}
