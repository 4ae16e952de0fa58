package testutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/fastygo/planbridge/internal/infrastructure/osascript"
	"github.com/fastygo/planbridge/pkg/applescript"
)

// Host implements the query and mutation bridges against in-memory
// documents. Documents are listed front window first.
type Host struct {
	mu        sync.Mutex
	names     []string
	documents map[string]string
	tasks     map[int64]string
	nextID    int64

	QueryErr  error
	MutateErr error

	queries   int
	mutations []string
}

// NewHost returns a host with no open documents. New tasks and resources get
// ids starting at 100.
func NewHost() *Host {
	return &Host{
		documents: map[string]string{},
		tasks:     map[int64]string{},
		nextID:    99,
	}
}

// OpenDocument adds or replaces a document. New documents go behind the
// ones already open.
func (h *Host) OpenDocument(name string, doc Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.documents[name]; !ok {
		h.names = append(h.names, name)
	}
	h.documents[name] = doc.Plist()
}

// PrepareTask sets the record returned when task id is queried after
// creation.
func (h *Host) PrepareTask(t Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks[t.ID] = t.Plist()
}

func (h *Host) Query(_ context.Context, script string, args ...string) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queries++
	if h.QueryErr != nil {
		return nil, h.QueryErr
	}
	switch script {
	case applescript.DocumentQuery:
		return []byte(h.documents[args[0]]), nil
	case applescript.TaskQuery:
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return nil, err
		}
		return []byte(h.tasks[id]), nil
	}
	for i, name := range h.names {
		if script == applescript.NthDocumentName(i+1) {
			return []byte(name + "\n"), nil
		}
	}
	if strings.Contains(script, "document of window") {
		return []byte("\n"), nil
	}
	return nil, fmt.Errorf("unexpected script:\n%s", script)
}

func (h *Host) Decode(raw []byte) (any, error) {
	return osascript.DecodePlist(raw)
}

func (h *Host) Mutate(_ context.Context, script string, _ ...string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mutations = append(h.mutations, script)
	if h.MutateErr != nil {
		return "", h.MutateErr
	}
	if strings.Contains(script, "make new task") || strings.Contains(script, "make new resource") {
		h.nextID++
		return strconv.FormatInt(h.nextID, 10), nil
	}
	return "", nil
}

// Queries returns the number of queries run so far.
func (h *Host) Queries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.queries
}

// Mutations returns the scripts sent so far.
func (h *Host) Mutations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.mutations...)
}
