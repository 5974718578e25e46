package cli

import "go.uber.org/zap"

// newLogger builds a JSON debug logger on stderr when --verbose is set and a
// no-op logger otherwise.
func newLogger(globals *Globals) *zap.SugaredLogger {
	if globals == nil || !globals.Verbose {
		return zap.NewNop().Sugar()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
