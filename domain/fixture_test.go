package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fastygo/planbridge/pkg/applescript"
)

const (
	valueOPTS = 1330664531 // "OPTS"
	valueOPTo = 1330664559 // "OPTo"
	valueOPfs = 1330669171 // "OPfs"
)

// fakeHost stands in for both bridges. Query output is a token that Decode
// maps back to the prepared payloads.
type fakeHost struct {
	document  map[string]any
	tasks     map[int64]map[string]any
	nextID    int64
	mutateErr error
	decodeErr error

	queries   []string
	mutations []string
}

func (f *fakeHost) Query(_ context.Context, script string, args ...string) ([]byte, error) {
	f.queries = append(f.queries, script)
	switch script {
	case applescript.DocumentQuery:
		if f.document == nil {
			return nil, nil
		}
		return []byte("document"), nil
	case applescript.TaskQuery:
		if len(args) != 2 {
			return nil, fmt.Errorf("task query expects 2 arguments, got %d", len(args))
		}
		return []byte("task:" + args[1]), nil
	}
	return nil, fmt.Errorf("unexpected script %q", script)
}

func (f *fakeHost) Decode(raw []byte) (any, error) {
	if f.decodeErr != nil {
		return nil, f.decodeErr
	}
	s := string(raw)
	if s == "document" {
		return f.document, nil
	}
	if idText, ok := strings.CutPrefix(s, "task:"); ok {
		id, err := strconv.ParseInt(idText, 10, 64)
		if err != nil {
			return nil, err
		}
		record, ok := f.tasks[id]
		if !ok {
			return nil, fmt.Errorf("no task %d", id)
		}
		return record, nil
	}
	return nil, errors.New("unparseable output")
}

func (f *fakeHost) Mutate(_ context.Context, script string, _ ...string) (string, error) {
	f.mutations = append(f.mutations, script)
	if f.mutateErr != nil {
		return "", f.mutateErr
	}
	if strings.Contains(script, "make new task") || strings.Contains(script, "make new resource") {
		f.nextID++
		return strconv.FormatInt(f.nextID, 10) + "\n", nil
	}
	return "", nil
}

func taskRecord(id int64, name string, children ...map[string]any) map[string]any {
	childList := make([]any, 0, len(children))
	for _, c := range children {
		childList = append(childList, c)
	}
	return map[string]any{
		"id":                       id,
		"name":                     name,
		"effort":                   int64(SecondsPerWorkday),
		"completed_effort":         int64(0),
		"remaining_effort":         int64(SecondsPerWorkday),
		"duration":                 int64(SecondsPerDay),
		"starting_date":            time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		"ending_date":              time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC),
		"starting_constraint_date": "",
		"ending_constraint_date":   "",
		"priority":                 int64(500),
		"total_cost":               0.0,
		"outline_number":           strconv.FormatInt(id, 10),
		"task_type":                int64(valueOPTS),
		"task_status":              int64(valueOPTo),
		"custom_data":              []any{},
		"prerequisites_data":       []any{},
		"child_tasks":              childList,
	}
}

func withCustomData(record map[string]any, pairs ...string) map[string]any {
	var list []any
	for i := 0; i+1 < len(pairs); i += 2 {
		list = append(list, map[string]any{"name": pairs[i], "value": pairs[i+1]})
	}
	record["custom_data"] = list
	return record
}

func withPrerequisite(record map[string]any, prerequisiteID, dependentID int64) map[string]any {
	list, _ := record["prerequisites_data"].([]any)
	record["prerequisites_data"] = append(list, map[string]any{
		"prerequisite_task_id": prerequisiteID,
		"dependent_task_id":    dependentID,
		"dependency_type":      int64(valueOPfs),
		"lead_time":            0.0,
		"lead_percentage":      0.0,
	})
	return record
}

// sampleDocument builds:
//
//	1 Task 1          depends on 2
//	2 Task 2          depends on 3, CustomKey=Custom Value 1
//	3 Task 3          CustomKey=Custom Value 3
//	4 Task 4          CustomKey=Custom Value 2
//	  5 Task 5        CustomKey=Custom Value 3
//
// Resource 1 is assigned to tasks 2 and 4; task 2 and resource 1 are selected.
func sampleDocument() map[string]any {
	task1 := withPrerequisite(taskRecord(1, "Task 1"), 2, 1)
	task2 := withPrerequisite(withCustomData(taskRecord(2, "Task 2"), "CustomKey", "Custom Value 1"), 3, 2)
	task3 := withCustomData(taskRecord(3, "Task 3"), "CustomKey", "Custom Value 3")
	task5 := withCustomData(taskRecord(5, "Task 5"), "CustomKey", "Custom Value 3")
	task4 := withCustomData(taskRecord(4, "Task 4", task5), "CustomKey", "Custom Value 2")

	return map[string]any{
		"child_tasks": []any{task1, task2, task3, task4},
		"resources": []any{
			map[string]any{
				"id":   int64(1),
				"name": "Resource 1",
				"task_assignments": []any{
					map[string]any{"task_id": int64(2), "units": 1.0},
					map[string]any{"task_id": int64(4), "units": 0.5},
				},
			},
		},
		"selected_task_ids":     []any{int64(2)},
		"selected_resource_ids": []any{int64(1)},
	}
}

func loadSample(t *testing.T) (*Document, *fakeHost) {
	t.Helper()
	host := &fakeHost{document: sampleDocument(), tasks: map[int64]map[string]any{}, nextID: 100}
	doc := NewDocument("test.oplx", host, host)
	if err := doc.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return doc, host
}

func mustTask(t *testing.T, doc *Document, id int64) *Task {
	t.Helper()
	task, err := doc.TaskForID(id)
	if err != nil {
		t.Fatalf("TaskForID(%d): %v", id, err)
	}
	return task
}

func taskIDs(tasks []*Task) []int64 {
	ids := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID())
	}
	return ids
}
