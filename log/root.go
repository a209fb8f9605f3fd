package log

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the [log] section. Levels overrides Level per component, keyed by
// the logger name without brackets, e.g. levels = { miner = "debug" }.
type Config struct {
	Path   string            `toml:"log_path"`
	File   string            `toml:"log_file"`
	Level  string            `toml:"log_level"`
	Levels map[string]string `toml:"levels"`
}

func Init(config *Config) {
	base := parseLevel(config.Level)
	overrides := make(map[string]zapcore.Level, len(config.Levels))
	lowest := base
	for name, text := range config.Levels {
		level := parseLevel(text)
		overrides[strings.Trim(name, "[]")] = level
		lowest = min(lowest, level)
	}

	core := zapcore.NewCore(newEncoder(), newWriteSyncer(config), lowest)
	logger := zap.New(&componentCore{Core: core, base: base, overrides: overrides}, zap.AddCaller())
	zap.ReplaceGlobals(logger)
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(text string) zapcore.Level {
	level, err := zapcore.ParseLevel(text)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// componentCore filters entries by the level configured for their logger name.
type componentCore struct {
	zapcore.Core
	base      zapcore.Level
	overrides map[string]zapcore.Level
}

func (c *componentCore) levelFor(loggerName string) zapcore.Level {
	if level, ok := c.overrides[strings.Trim(loggerName, "[]")]; ok {
		return level
	}
	return c.base
}

func (c *componentCore) With(fields []zapcore.Field) zapcore.Core {
	return &componentCore{Core: c.Core.With(fields), base: c.base, overrides: c.overrides}
}

func (c *componentCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.Level < c.levelFor(ent.LoggerName) {
		return ce
	}
	return ce.AddCore(ent, c)
}

func newEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		FunctionKey:      zapcore.OmitKey,
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       bracketTime,
		EncodeDuration:   zapcore.SecondsDurationEncoder,
		ConsoleSeparator: " ",
	})
}

// newWriteSyncer rotates into log_path/log_file, or writes to stdout when no
// file is configured.
func newWriteSyncer(config *Config) zapcore.WriteSyncer {
	if config.File == "" {
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(config.Path, config.File),
		MaxSize:    200,
		MaxBackups: 10,
		MaxAge:     30,
	})
}

func bracketTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format("2006-01-02 15:04:05.000") + "]")
}
