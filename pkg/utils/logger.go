package utils

import "go.uber.org/zap"

// NewLogger returns the service logger. Debug mode uses zap's development
// config (console output, debug level); otherwise production config (JSON,
// info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
