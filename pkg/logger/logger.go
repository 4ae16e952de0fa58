package logger

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const documentKey ctxKey = "document"

// Config mirrors config.LoggerConfig but avoids importing the config package here.
type Config struct {
	Level    string
	Encoding string
}

// New builds a zap.Logger writing to stderr, keeping stdout free for command
// output.
func New(cfg Config) (*zap.Logger, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter builds a zap.Logger writing to w.
func NewWithWriter(cfg Config, w io.Writer) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		// fall back to info level if parsing fails
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	switch cfg.Encoding {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(w)),
		level,
	)

	return zap.New(core, zap.AddCaller()), nil
}

// ContextWithDocument attaches a document name to the provided context.
func ContextWithDocument(ctx context.Context, document string) context.Context {
	return context.WithValue(ctx, documentKey, document)
}

// DocumentFromContext returns the document name stored in ctx, if any.
func DocumentFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	name, ok := ctx.Value(documentKey).(string)
	return name, ok && name != ""
}

// WithDocument enriches the logger with the document name stored in the context.
func WithDocument(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		return base
	}
	if name, ok := DocumentFromContext(ctx); ok {
		return base.With(zap.String("document", name))
	}
	return base
}
