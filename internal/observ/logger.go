package observ

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Without a path and without verbose
// output it is a no-op; verbose logs go to stderr, a path receives JSON
// lines. The caller owns Sync.
func NewLogger(verbose bool, path string) (*zap.Logger, error) {
	if !verbose && path == "" {
		return zap.NewNop(), nil
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	var cores []zapcore.Core
	if verbose {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.TimeKey = ""
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(os.Stderr)), level))
	}
	if path != "" {
		sink, _, err := zap.Open(path)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, level))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}
