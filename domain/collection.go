package domain

import (
	"context"
	"iter"
	"slices"
)

// TaskCollection is a node owning an ordered list of child tasks. Both
// *Task and *Document implement it.
type TaskCollection interface {
	Children() []*Task
	Descendants() iter.Seq[*Task]
	// Parent is nil for the document.
	Parent() TaskCollection
	Document() *Document
	Level() int
	CreateTask(ctx context.Context, props TaskProperties) (*Task, error)

	addChild(task *Task) error
	scope(body string) string
}

type taskList struct {
	tasks []*Task
}

func (l *taskList) Children() []*Task {
	return slices.Clone(l.tasks)
}

// Descendants yields every task below the collection in depth-first
// pre-order. The sequence can be iterated any number of times.
func (l *taskList) Descendants() iter.Seq[*Task] {
	return func(yield func(*Task) bool) {
		l.walk(yield)
	}
}

func (l *taskList) walk(yield func(*Task) bool) bool {
	for _, child := range l.tasks {
		if !yield(child) {
			return false
		}
		if !child.walk(yield) {
			return false
		}
	}
	return true
}
