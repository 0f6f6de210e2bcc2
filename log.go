package sheetquiz

import "go.uber.org/zap"

// NewLogger builds the application logger. Production gets JSON output at
// info level; every other environment gets the development console logger.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
