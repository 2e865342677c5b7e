package logger

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var zapLevels = map[Level]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
}

// ParseLevel maps a config string onto a Level. Unknown values map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

var (
	level     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	redactPII atomic.Bool
	base      atomic.Pointer[zap.Logger]
)

func init() {
	redactPII.Store(true)
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		l = zap.NewNop()
	}
	base.Store(l)
}

// Init configures the default logger for an environment: JSON output in
// production, console output otherwise.
func Init(environment, lvl string) error {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.Level = level

	l, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(2))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	SetLevel(ParseLevel(lvl))
	base.Store(l)
	return nil
}

// UseCore routes the default logger to core. Tests use it with
// zaptest/observer.
func UseCore(core zapcore.Core) {
	base.Store(zap.New(core, zap.AddCallerSkip(2)))
}

// Sync flushes buffered entries.
func Sync() error {
	return base.Load().Sync()
}

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) {
	if zl, ok := zapLevels[l]; ok {
		level.SetLevel(zl)
	}
}

// SetRedactPII enables or disables PII redaction for the default logger.
func SetRedactPII(r bool) { redactPII.Store(r) }

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { log(zapcore.DebugLevel, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { log(zapcore.InfoLevel, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { log(zapcore.WarnLevel, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { log(zapcore.ErrorLevel, msg, fields...) }

func log(lvl zapcore.Level, msg string, fields ...interface{}) {
	if !level.Enabled(lvl) {
		return
	}
	ce := base.Load().Check(lvl, msg)
	if ce == nil {
		return
	}
	ce.Write(toZapFields(fields)...)
}

// toZapFields reads fields as key-value pairs. A trailing key without a
// value is dropped.
func toZapFields(fields []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields)/2)
	redact := redactPII.Load()
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case string:
			if redact {
				v = redactPIIValue(key, v)
			}
			out = append(out, zap.String(key, v))
		case error:
			s := v.Error()
			if redact {
				s = redactPIIValue(key, s)
			}
			out = append(out, zap.String(key, s))
		case fmt.Stringer:
			s := v.String()
			if redact {
				s = redactPIIValue(key, s)
			}
			out = append(out, zap.String(key, s))
		default:
			out = append(out, zap.Any(key, v))
		}
	}
	return out
}
