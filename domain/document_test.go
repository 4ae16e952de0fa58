package domain

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/fastygo/planbridge/pkg/applescript"
)

func TestDocumentLoad(t *testing.T) {
	t.Parallel()

	doc, host := loadSample(t)

	if doc.Name() != "test.oplx" {
		t.Errorf("Name = %q", doc.Name())
	}
	if len(host.queries) != 1 || host.queries[0] != applescript.DocumentQuery {
		t.Errorf("queries = %d, want a single document query", len(host.queries))
	}
	if string(doc.Raw()) != "document" {
		t.Errorf("Raw = %q", doc.Raw())
	}
	if len(doc.Children()) != 4 {
		t.Errorf("top level tasks = %d, want 4", len(doc.Children()))
	}
	task := mustTask(t, doc, 2)
	if task.Effort() != Workdays(1) {
		t.Errorf("task 2 effort = %v, want 1 workday", task.Effort())
	}
	if task.StartingDate() == nil || task.StartingDate().Location().String() != "UTC" {
		t.Errorf("task 2 starting date = %v", task.StartingDate())
	}
}

func TestDocumentDependencies(t *testing.T) {
	t.Parallel()

	doc, _ := loadSample(t)
	task1 := mustTask(t, doc, 1)
	task2 := mustTask(t, doc, 2)
	task3 := mustTask(t, doc, 3)

	if got := taskIDs(task2.PrerequisiteTasks()); !slices.Equal(got, []int64{3}) {
		t.Errorf("task 2 prerequisites = %v, want [3]", got)
	}
	if got := taskIDs(task3.DependentTasks()); !slices.Equal(got, []int64{2}) {
		t.Errorf("task 3 dependents = %v, want [2]", got)
	}
	if got := task2.DependentTasks(); len(got) != 1 || got[0].Name() != "Task 1" {
		t.Errorf("task 2 dependents = %v, want Task 1", got)
	}
	if got := task2.PrerequisiteTasks(); len(got) != 1 || got[0].Name() != "Task 3" {
		t.Errorf("task 2 prerequisites = %v, want Task 3", got)
	}
	if task1.HasDependents() || !task1.HasPrerequisites() || !task1.HasDependencies() {
		t.Error("task 1 should only have prerequisites")
	}
	if mustTask(t, doc, 5).HasDependencies() {
		t.Error("task 5 has no dependencies")
	}

	dep := task2.Prerequisites()[0]
	if dep.Type() != "OPfs" {
		t.Errorf("dependency type = %q, want OPfs", dep.Type())
	}
	if dep.PrerequisiteTask() != task3 || dep.DependentTask() != task2 {
		t.Error("dependency endpoints are wrong")
	}
	if task3.Dependents()[0] != dep {
		t.Error("the same edge must be registered on both tasks")
	}
}

func TestDocumentResourcesAndSelection(t *testing.T) {
	t.Parallel()

	doc, _ := loadSample(t)

	resource, err := doc.ResourceForID(1)
	if err != nil {
		t.Fatalf("ResourceForID failed: %v", err)
	}
	if resource.Name() != "Resource 1" {
		t.Errorf("resource name = %q", resource.Name())
	}
	if got := taskIDs(resource.AssignedTasks()); !slices.Equal(got, []int64{2, 4}) {
		t.Errorf("assigned tasks = %v, want [2 4]", got)
	}

	task4 := mustTask(t, doc, 4)
	resources := task4.AssignedResources()
	if len(resources) != 1 || resources[0] != resource {
		t.Errorf("task 4 resources = %v", resources)
	}
	if units := task4.Assignments()[0].Units(); units != 0.5 {
		t.Errorf("units = %v, want 0.5", units)
	}

	byName, err := doc.ResourceForName("Resource 1")
	if err != nil || byName != resource {
		t.Errorf("ResourceForName = %v, %v", byName, err)
	}
	if _, err := doc.ResourceForName("Resource 2"); !errors.Is(err, ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound, got %v", err)
	}

	if got := taskIDs(doc.SelectedTasks()); !slices.Equal(got, []int64{2}) {
		t.Errorf("selected tasks = %v", got)
	}
	if got := doc.SelectedResources(); len(got) != 1 || got[0] != resource {
		t.Errorf("selected resources = %v", got)
	}
}

func TestDocumentLookups(t *testing.T) {
	t.Parallel()

	doc, _ := loadSample(t)

	task, err := doc.TaskForName("Task 3")
	if err != nil || task.ID() != 3 {
		t.Errorf("TaskForName = %v, %v", task, err)
	}
	if _, err := doc.TaskForID(99); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
	if !IsDomainError(func() error { _, err := doc.TaskForName("nope"); return err }(), ErrCodeNotFound) {
		t.Error("TaskForName miss should be a NOT_FOUND error")
	}

	if got := doc.TasksForCustomDataValue("CustomKey", "Custom Value 1"); len(got) != 1 || got[0].Name() != "Task 2" {
		t.Errorf("Custom Value 1 -> %v", got)
	}
	if got := doc.TasksForCustomDataValue("CustomKey", "Custom Value 2"); len(got) != 1 || got[0].Name() != "Task 4" {
		t.Errorf("Custom Value 2 -> %v", got)
	}
	if got := doc.TasksForCustomDataValue("CustomKey", "Custom Value 3"); len(got) != 2 {
		t.Errorf("Custom Value 3 -> %v, want 2 tasks", got)
	}
	if got := doc.TasksForCustomDataValue("DummyKey", "x"); len(got) != 0 {
		t.Errorf("unknown pair -> %v, want none", got)
	}
}

func TestDocumentLoadFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		host   func() *fakeHost
		code   ErrorCode
		target error
		text   string
	}{
		{
			name:   "document not open",
			host:   func() *fakeHost { return &fakeHost{} },
			code:   ErrCodeBridge,
			target: ErrDocumentNotOpen,
			text:   "test.oplx",
		},
		{
			name: "unparseable output",
			host: func() *fakeHost {
				return &fakeHost{document: sampleDocument(), decodeErr: errors.New("bad plist")}
			},
			code: ErrCodeBridge,
			text: "bad plist",
		},
		{
			name: "dangling prerequisite",
			host: func() *fakeHost {
				doc := sampleDocument()
				tasks := doc["child_tasks"].([]any)
				withPrerequisite(tasks[2].(map[string]any), 42, 3)
				return &fakeHost{document: doc}
			},
			code:   ErrCodeSchema,
			target: ErrTaskNotFound,
			text:   "task 42",
		},
		{
			name: "dangling assignment",
			host: func() *fakeHost {
				doc := sampleDocument()
				r := doc["resources"].([]any)[0].(map[string]any)
				r["task_assignments"] = []any{map[string]any{"task_id": int64(77), "units": 1.0}}
				return &fakeHost{document: doc}
			},
			code:   ErrCodeSchema,
			target: ErrTaskNotFound,
			text:   "task 77",
		},
		{
			name: "duplicate task id",
			host: func() *fakeHost {
				doc := sampleDocument()
				doc["child_tasks"] = append(doc["child_tasks"].([]any), taskRecord(1, "Again"))
				return &fakeHost{document: doc}
			},
			code: ErrCodeSchema,
			text: "duplicate task id 1",
		},
		{
			name: "missing selection",
			host: func() *fakeHost {
				doc := sampleDocument()
				delete(doc, "selected_resource_ids")
				return &fakeHost{document: doc}
			},
			code: ErrCodeSchema,
			text: "selected_resource_ids",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := NewDocument("test.oplx", tt.host(), nil)
			err := doc.Load(context.Background())
			if err == nil {
				t.Fatal("expected load to fail")
			}
			if !IsDomainError(err, tt.code) {
				t.Errorf("error %v is not a %s error", err, tt.code)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error %v does not wrap %v", err, tt.target)
			}
			if !strings.Contains(err.Error(), tt.text) {
				t.Errorf("error %q does not mention %q", err, tt.text)
			}
			if len(doc.Children()) != 0 {
				t.Error("a failed load must not leave a partial tree")
			}
		})
	}
}
