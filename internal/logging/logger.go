package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level        string
	Format       string
	LogstashAddr string
}

// New builds the process logger. Output always goes to stdout; when a
// Logstash address is set, JSON entries are teed to it as well. The returned
// closer flushes and releases the Logstash connection.
func New(opts Options) (*zap.Logger, io.Closer, error) {
	level := zap.NewAtomicLevelAt(parseLevel(opts.Level))

	cores := []zapcore.Core{
		zapcore.NewCore(buildEncoder(opts.Format), zapcore.Lock(os.Stdout), level),
	}

	var closer io.Closer = nopCloser{}
	if strings.TrimSpace(opts.LogstashAddr) != "" {
		writer, err := NewLogstashWriter(LogstashConfig{Addr: opts.LogstashAddr})
		if err != nil {
			return nil, nil, err
		}
		cores = append(cores, zapcore.NewCore(buildEncoder("json"), writer, level))
		closer = writer
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, syncCloser{logger: logger, next: closer}, nil
}

func buildEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	if strings.EqualFold(format, "text") || strings.EqualFold(format, "console") {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type syncCloser struct {
	logger *zap.Logger
	next   io.Closer
}

func (c syncCloser) Close() error {
	_ = c.logger.Sync()
	return c.next.Close()
}
