package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planbridge/domain"
	"github.com/fastygo/planbridge/internal/config"
	"github.com/fastygo/planbridge/internal/infrastructure/monitor"
	"github.com/fastygo/planbridge/internal/infrastructure/snapshot"
	"github.com/fastygo/planbridge/internal/services/lifecycle"
	"github.com/fastygo/planbridge/internal/testutil"
	"github.com/fastygo/planbridge/usecase/project"
)

func testConfig() *config.Config {
	return &config.Config{
		Cache:   config.CacheConfig{Backend: config.CacheNone, Retention: 24 * time.Hour},
		Refresh: config.RefreshConfig{Interval: time.Minute},
		Context: config.ContextConfig{CommandTimeout: 5 * time.Second, ShutdownTimeout: time.Second},
	}
}

func sampleHost() *testutil.Host {
	host := testutil.NewHost()
	host.OpenDocument("Plan.oplx", testutil.Document{
		Tasks: []testutil.Task{
			{ID: 1, Name: "Design", Outline: "1", CustomData: map[string]string{"phase": "alpha"}},
			{ID: 2, Name: "Build", Outline: "2", Prerequisites: []int64{1}, Children: []testutil.Task{
				{ID: 3, Name: "Backend", Outline: "2.1", CustomData: map[string]string{"phase": "alpha"}},
			}},
		},
		Resources: []testutil.Resource{{ID: 10, Name: "Ada"}},
	})
	host.OpenDocument("Roadmap.oplx", testutil.Document{
		Tasks: []testutil.Task{{ID: 1, Name: "Q1"}},
	})
	return host
}

// execute runs planctl against host and returns what it printed.
func execute(t *testing.T, host *testutil.Host, store *snapshot.Store, args ...string) (string, error) {
	t.Helper()
	var built *runtime
	factory := func(_ context.Context, _ globalOptions) (*runtime, error) {
		cfg := testConfig()
		var (
			opts        []project.Option
			monitorOpts []monitor.Option
		)
		rt := &runtime{cfg: cfg, logger: zap.NewNop(), lifecycle: lifecycle.New(time.Second, nil)}
		if store != nil {
			cfg.Cache.Backend = config.CacheBolt
			opts = append(opts, project.WithSnapshots(store, time.Hour))
			monitorOpts = append(monitorOpts, monitor.WithStore(store))
			rt.cleaner = store
		}
		rt.projects = project.New(host, host, nil, opts...)
		rt.monitor = monitor.New(rt.projects, nil, monitorOpts...)
		built = rt
		return rt, nil
	}

	a := newApp(factory)
	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	err := a.run(context.Background(), root, args)
	if built != nil && a.rt != nil {
		t.Error("runtime was not released")
	}
	return out.String(), err
}

func openStore(t *testing.T) *snapshot.Store {
	t.Helper()
	store, err := snapshot.Open(filepath.Join(t.TempDir(), "snapshots.db"), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDocsCommand(t *testing.T) {
	out, err := execute(t, sampleHost(), nil, "docs")
	if err != nil {
		t.Fatalf("docs failed: %v", err)
	}
	if out != "1\tPlan.oplx\n2\tRoadmap.oplx\n" {
		t.Errorf("output = %q", out)
	}

	out, err = execute(t, testutil.NewHost(), nil, "docs")
	if err != nil || !strings.Contains(out, "No open documents") {
		t.Errorf("empty host: %q, %v", out, err)
	}
}

func TestTreeCommand(t *testing.T) {
	out, err := execute(t, sampleHost(), nil, "tree")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	want := "Plan.oplx\nTask 1: Design\nTask 2: Build\n--Task 3: Backend\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	out, err = execute(t, sampleHost(), nil, "tree", "--doc", "Roadmap.oplx")
	if err != nil || !strings.Contains(out, "Task 1: Q1") {
		t.Errorf("--doc: %q, %v", out, err)
	}
}

func TestShowCommand(t *testing.T) {
	out, err := execute(t, sampleHost(), nil, "show", "2")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"Task 2: Build", "depends on:", "Task 1: Design", "subtasks:", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, sampleHost(), nil, "show", "42"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("unknown task error = %v", err)
	}
	if _, err := execute(t, sampleHost(), nil, "show", "x"); err == nil {
		t.Error("expected invalid id error")
	}
}

func TestFindCommand(t *testing.T) {
	out, err := execute(t, sampleHost(), nil, "find", "phase", "alpha")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if out != "1\t1\tDesign\n3\t2.1\tBackend\n" {
		t.Errorf("output = %q", out)
	}

	out, _ = execute(t, sampleHost(), nil, "find", "phase", "beta")
	if !strings.Contains(out, "No tasks") {
		t.Errorf("output = %q", out)
	}
}

func TestSetEffortCommand(t *testing.T) {
	host := sampleHost()
	out, err := execute(t, host, nil, "set-effort", "1", "2.5", "--dry-run")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(out, "set effort to 72000") {
		t.Errorf("script = %q", out)
	}
	if len(host.Mutations()) != 0 {
		t.Errorf("dry run sent %d scripts", len(host.Mutations()))
	}

	out, err = execute(t, host, nil, "set-effort", "1", "2.5")
	if err != nil {
		t.Fatalf("set-effort failed: %v", err)
	}
	if !strings.Contains(out, "1.0 workdays -> 2.5 workdays") {
		t.Errorf("output = %q", out)
	}
	if m := host.Mutations(); len(m) != 1 || !strings.Contains(m[0], "set effort to 72000") {
		t.Errorf("mutations = %q", m)
	}

	if _, err := execute(t, host, nil, "set-effort", "1", "lots"); err == nil {
		t.Error("expected error for unparsable effort")
	}
}

func TestSetCustomCommand(t *testing.T) {
	host := sampleHost()
	if _, err := execute(t, host, nil, "set-custom", "2", "phase", "beta"); err != nil {
		t.Fatalf("set-custom failed: %v", err)
	}
	m := host.Mutations()
	if len(m) != 1 || !strings.Contains(m[0], `"phase"`) || !strings.Contains(m[0], `"beta"`) {
		t.Errorf("mutations = %q", m)
	}
}

func TestAssignCommand(t *testing.T) {
	host := sampleHost()
	out, err := execute(t, host, nil, "assign", "3", "Ada", "--units", "0.5", "--dry-run")
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if !strings.Contains(out, `tell document "Plan.oplx"`) || !strings.Contains(out, "assign resource 10 to task 3 units 0.5") {
		t.Errorf("script = %q", out)
	}

	if _, err := execute(t, host, nil, "assign", "3", "Grace"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("unknown resource error = %v", err)
	}
	if _, err := execute(t, host, nil, "assign", "3", "Ada", "--units", "0"); err == nil {
		t.Error("expected error for zero units")
	}
}

func TestAddTaskCommand(t *testing.T) {
	host := sampleHost()
	host.PrepareTask(testutil.Task{ID: 100, Name: "Frontend"})

	out, err := execute(t, host, nil, "add-task", "Frontend", "--parent", "2", "--effort", "3")
	if err != nil {
		t.Fatalf("add-task failed: %v", err)
	}
	if !strings.Contains(out, "created Task 100: Frontend") {
		t.Errorf("output = %q", out)
	}
	m := host.Mutations()
	if len(m) != 1 || !strings.Contains(m[0], "make new task") || !strings.Contains(m[0], "tell task 2") {
		t.Errorf("mutations = %q", m)
	}
}

func TestCacheCommands(t *testing.T) {
	host := sampleHost()
	if _, err := execute(t, host, nil, "cache", "warm"); !errors.Is(err, errCacheDisabled) {
		t.Errorf("warm without cache = %v", err)
	}

	store := openStore(t)
	out, err := execute(t, host, store, "cache", "warm")
	if err != nil {
		t.Fatalf("warm failed: %v", err)
	}
	if !strings.Contains(out, "Snapshots refreshed") {
		t.Errorf("output = %q", out)
	}
	docs, err := store.Documents()
	if err != nil || len(docs) != 2 {
		t.Fatalf("stored documents = %v, %v", docs, err)
	}

	queries := host.Queries()
	if _, err := execute(t, host, store, "tree", "--doc", "Roadmap.oplx"); err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if host.Queries() != queries {
		t.Errorf("tree queried the host %d times, want the snapshot", host.Queries()-queries)
	}

	if _, err := execute(t, host, store, "cache", "drop", "Roadmap.oplx"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if docs, _ := store.Documents(); len(docs) != 1 || docs[0] != "Plan.oplx" {
		t.Errorf("documents after drop = %v", docs)
	}
}

func TestStatusCommand(t *testing.T) {
	store := openStore(t)
	out, err := execute(t, sampleHost(), store, "status")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{"ok (2 open)", "bolt", "ok (0 snapshots)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	host := sampleHost()
	host.QueryErr = errors.New("osascript not found")
	out, err = execute(t, host, nil, "status")
	if err == nil {
		t.Fatal("expected health check failure")
	}
	if !strings.Contains(out, "osascript not found") {
		t.Errorf("output = %q", out)
	}
}

func TestEditsDropTheCachedSnapshot(t *testing.T) {
	host := sampleHost()
	store := openStore(t)

	if _, err := execute(t, host, store, "set-effort", "1", "2", "--dry-run"); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if docs, _ := store.Documents(); len(docs) != 1 {
		t.Fatalf("a dry run keeps the snapshot, documents = %v", docs)
	}

	if _, err := execute(t, host, store, "set-effort", "1", "2"); err != nil {
		t.Fatalf("set-effort failed: %v", err)
	}
	if docs, _ := store.Documents(); len(docs) != 0 {
		t.Errorf("snapshot kept after edit: %v", docs)
	}

	// The host now reports the edit; reads must see it.
	host.OpenDocument("Plan.oplx", testutil.Document{
		Tasks: []testutil.Task{{ID: 1, Name: "Design", Effort: 2 * 8 * 60 * 60}},
	})
	out, err := execute(t, host, store, "show", "1")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "2.0 workdays") {
		t.Errorf("show after edit served stale data:\n%s", out)
	}

	host.PrepareTask(testutil.Task{ID: 100, Name: "Docs"})
	if _, err := execute(t, host, store, "add-task", "Docs"); err != nil {
		t.Fatalf("add-task failed: %v", err)
	}
	if docs, _ := store.Documents(); len(docs) != 0 {
		t.Errorf("snapshot kept after add-task: %v", docs)
	}
}
