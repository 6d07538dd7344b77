package log

import "go.uber.org/zap"

// Init builds the process logger. It is constructed once in main and handed
// to every component that needs it; nothing in this codebase mutates global
// output state.
func Init(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
