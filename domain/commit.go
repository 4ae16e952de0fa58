package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (t *Task) record(c ChangeRecord) {
	t.changes = append(t.changes, c)
}

// PendingChanges returns the records not yet committed, oldest first.
func (t *Task) PendingChanges() []ChangeRecord {
	return slices.Clone(t.changes)
}

// Dirty reports whether the task has uncommitted changes.
func (t *Task) Dirty() bool {
	return len(t.changes) > 0
}

// Commit writes pending changes to the host and returns the script that was
// sent. Pending records are dropped before anything is rendered or sent, so
// a failed commit is not retried by the next one. With dryRun set the
// script is only returned. Tasks of a snapshot document keep their records
// and fail with ErrSnapshotReadOnly.
func (t *Task) Commit(ctx context.Context, dryRun bool) (string, error) {
	if t.doc.snapshot {
		return "", fmt.Errorf("commit changes for task %d of document %q: %w", t.id, t.doc.name, ErrSnapshotReadOnly)
	}
	records := t.changes
	t.changes = nil
	if len(records) == 0 {
		return "", nil
	}

	var taskScoped, documentScoped []string
	for _, r := range records {
		line, err := r.Script()
		if err != nil {
			return "", fmt.Errorf("render %s change for task %d: %w", r.Property(), t.id, err)
		}
		if r.TargetsDocument() {
			documentScoped = append(documentScoped, line)
		} else {
			taskScoped = append(taskScoped, line)
		}
	}

	var b strings.Builder
	if len(taskScoped) > 0 {
		b.WriteString(t.scope(strings.Join(taskScoped, "\n")))
	}
	if len(documentScoped) > 0 {
		b.WriteString(t.doc.scope(strings.Join(documentScoped, "\n")))
	}
	script := b.String()

	log := t.doc.logger.With(
		zap.String("commit_id", uuid.NewString()),
		zap.String("document", t.doc.name),
		zap.Int64("task_id", t.id),
		zap.Int("changes", len(records)),
	)
	if dryRun {
		log.Debug("dry run, changes not sent", zap.String("script", script))
		return script, nil
	}
	if t.doc.mutator == nil {
		return script, ErrBridgeUnavailable
	}
	if _, err := t.doc.mutator.Mutate(ctx, script); err != nil {
		log.Error("commit failed", zap.Error(err))
		return script, WrapError(ErrCodeBridge, fmt.Sprintf("commit changes for task %d of document %q", t.id, t.doc.name), err)
	}
	log.Info("changes committed")
	return script, nil
}
