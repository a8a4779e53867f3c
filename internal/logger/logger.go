package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON production logger. Entries whose message contains any of
// the suppress substrings are dropped by this logger only; process-wide
// output is left untouched.
func New(level string, suppress []string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return NewFilterCore(core, suppress)
	}))
}

type filterCore struct {
	zapcore.Core
	suppress []string
}

// NewFilterCore wraps core so that entries matching any suppress substring
// are never written.
func NewFilterCore(core zapcore.Core, suppress []string) zapcore.Core {
	cleaned := make([]string, 0, len(suppress))
	for _, s := range suppress {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return core
	}
	return &filterCore{Core: core, suppress: cleaned}
}

func (c *filterCore) With(fields []zapcore.Field) zapcore.Core {
	return &filterCore{Core: c.Core.With(fields), suppress: c.suppress}
}

func (c *filterCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	for _, s := range c.suppress {
		if strings.Contains(ent.Message, s) {
			return ce
		}
	}
	return c.Core.Check(ent, ce)
}
