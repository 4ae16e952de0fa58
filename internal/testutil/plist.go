// Package testutil provides a scripted stand-in for the host application
// and builders for the property lists it prints.
package testutil

import (
	"maps"
	"slices"
	"time"

	"howett.net/plist"
)

// Four character codes as the host reports them.
const (
	TypeStandard   int64 = 1330664531 // "OPTS"
	StatusOK       int64 = 1330664559 // "OPTo"
	FinishToStart  int64 = 1330669171 // "OPfs"
	workdaySeconds int64 = 8 * 60 * 60
)

// Task describes one task record. Zero values get sensible defaults.
type Task struct {
	ID            int64
	Name          string
	Effort        int64 // seconds, one workday when zero
	Priority      int64
	Outline       string
	CustomData    map[string]string
	Prerequisites []int64
	Children      []Task
}

// Resource describes one resource and its assignments by task id.
type Resource struct {
	ID          int64
	Name        string
	Assignments map[int64]float64
}

// Document describes a whole document query result.
type Document struct {
	Tasks             []Task
	Resources         []Resource
	SelectedTasks     []int64
	SelectedResources []int64
}

var start = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func (t Task) record() map[string]any {
	effort := t.Effort
	if effort == 0 {
		effort = workdaySeconds
	}
	priority := t.Priority
	if priority == 0 {
		priority = 500
	}

	custom := []any{}
	for _, name := range slices.Sorted(maps.Keys(t.CustomData)) {
		custom = append(custom, map[string]any{"name": name, "value": t.CustomData[name]})
	}
	prereqs := []any{}
	for _, id := range t.Prerequisites {
		prereqs = append(prereqs, map[string]any{
			"prerequisite_task_id": id,
			"dependent_task_id":    t.ID,
			"dependency_type":      FinishToStart,
			"lead_time":            0.0,
			"lead_percentage":      0.0,
		})
	}
	children := []any{}
	for _, c := range t.Children {
		children = append(children, c.record())
	}

	return map[string]any{
		"id":                       t.ID,
		"name":                     t.Name,
		"effort":                   effort,
		"completed_effort":         int64(0),
		"remaining_effort":         effort,
		"duration":                 int64(24 * 60 * 60),
		"starting_date":            start,
		"ending_date":              start.Add(8 * time.Hour),
		"starting_constraint_date": "",
		"ending_constraint_date":   "",
		"priority":                 priority,
		"total_cost":               0.0,
		"outline_number":           t.Outline,
		"task_type":                TypeStandard,
		"task_status":              StatusOK,
		"custom_data":              custom,
		"prerequisites_data":       prereqs,
		"child_tasks":              children,
	}
}

// Plist renders the task as the task query prints it.
func (t Task) Plist() string {
	return marshal(t.record())
}

// Plist renders the document as the document query prints it.
func (d Document) Plist() string {
	tasks := []any{}
	for _, t := range d.Tasks {
		tasks = append(tasks, t.record())
	}
	resources := []any{}
	for _, r := range d.Resources {
		assignments := []any{}
		for _, id := range slices.Sorted(maps.Keys(r.Assignments)) {
			assignments = append(assignments, map[string]any{"task_id": id, "units": r.Assignments[id]})
		}
		resources = append(resources, map[string]any{
			"id":               r.ID,
			"name":             r.Name,
			"task_assignments": assignments,
		})
	}
	return marshal(map[string]any{
		"child_tasks":           tasks,
		"resources":             resources,
		"selected_task_ids":     ids(d.SelectedTasks),
		"selected_resource_ids": ids(d.SelectedResources),
	})
}

func ids(in []int64) []any {
	out := make([]any, 0, len(in))
	for _, id := range in {
		out = append(out, id)
	}
	return out
}

func marshal(v any) string {
	out, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	if err != nil {
		panic(err)
	}
	return string(out)
}
