package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true it uses the development
// config (console, debug level); otherwise the production config (JSON, info
// level) writing to stderr so stdout stays free for command output.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
