// Package osascript runs host scripts through the osascript command line
// tool and decodes the property lists they print.
package osascript

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"howett.net/plist"

	"github.com/fastygo/planbridge/internal/config"
	"github.com/fastygo/planbridge/pkg/logger"
)

// Runner implements domain.QueryBridge and domain.MutationBridge.
type Runner struct {
	path    string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Runner for the configured osascript binary.
func New(cfg config.HostConfig, log *zap.Logger) *Runner {
	if cfg.OsascriptPath == "" {
		cfg.OsascriptPath = "osascript"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		path:    cfg.OsascriptPath,
		timeout: cfg.Timeout,
		logger:  log,
	}
}

// Query runs script and returns its trimmed output.
func (r *Runner) Query(ctx context.Context, script string, args ...string) ([]byte, error) {
	out, err := r.run(ctx, script, args)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Decode parses property list output into maps, slices and scalars.
func (r *Runner) Decode(raw []byte) (any, error) {
	return DecodePlist(raw)
}

// Mutate runs script and returns its trimmed output.
func (r *Runner) Mutate(ctx context.Context, script string, args ...string) (string, error) {
	return r.run(ctx, script, args)
}

func (r *Runner) run(ctx context.Context, script string, args []string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.path, append([]string{"-"}, args...)...)
	cmd.Stdin = strings.NewReader(script)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := logger.WithDocument(ctx, r.logger)
	started := time.Now()
	err := cmd.Run()
	log.Debug("host script finished",
		zap.Strings("args", args),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("output_bytes", stdout.Len()),
		zap.Error(err))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("run %s: %w", r.path, ctxErr)
		}
		return "", fmt.Errorf("run %s: %w: %s", r.path, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// DecodePlist parses XML, binary or OpenStep property list data. Integers
// come back as uint64, or int64 when negative.
func DecodePlist(raw []byte) (any, error) {
	var value any
	if _, err := plist.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode property list: %w", err)
	}
	return value, nil
}
