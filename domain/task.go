package domain

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planbridge/pkg/applescript"
)

const childTasksKey = "child_tasks"

// PrerequisiteDescriptor is a dependency as reported by the host. It is
// resolved into a TaskDependency once the whole task tree is loaded.
type PrerequisiteDescriptor struct {
	PrerequisiteTaskID int64
	DependentTaskID    int64
	Type               FourCC
	LeadTime           float64
	LeadPercentage     float64
}

// Task is a node of the project tree.
type Task struct {
	taskList
	doc    *Document
	parent TaskCollection

	id                     int64
	name                   string
	effort                 WorkInterval
	completedEffort        WorkInterval
	remainingEffort        WorkInterval
	duration               TimeInterval
	startingDate           *time.Time
	endingDate             *time.Time
	startingConstraintDate *time.Time
	endingConstraintDate   *time.Time
	priority               int64
	totalCost              float64
	outlineNumber          string
	taskType               FourCC
	taskStatus             FourCC
	customData             map[string]string
	prerequisitesData      []PrerequisiteDescriptor

	prerequisites []*TaskDependency
	dependents    []*TaskDependency
	assignments   []*ResourceAssignment
	changes       []ChangeRecord
}

// newTask materializes a task and its subtree from a host record. Every key
// must be known and every required property present. Subtasks are only
// built once the record itself is valid, so a rejected record never leaves
// children in the document indices.
func newTask(doc *Document, parent TaskCollection, data map[string]any) (*Task, error) {
	t := &Task{doc: doc, parent: parent}

	keys := slices.Sorted(maps.Keys(data))
	for _, key := range keys {
		value := data[key]
		if key == childTasksKey {
			continue
		}
		prop, ok := taskProperties[key]
		if !ok {
			return nil, errorf(ErrCodeSchema, "unknown key %q in task data", key)
		}
		if err := prop.decode(t, value); err != nil {
			doc.logger.Error("unable to decode task value",
				zap.String("key", key),
				zap.String("type", fmt.Sprintf("%T", value)),
				zap.Error(err))
			return nil, WrapError(ErrCodeDecode, fmt.Sprintf("unable to decode value %#v for key %q", value, key), err)
		}
	}

	var missing []string
	for name := range taskProperties {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errorf(ErrCodeSchema, "missing key(s) in task data: %s", strings.Join(missing, ", "))
	}
	if t.customData == nil {
		t.customData = map[string]string{}
	}
	if children, ok := data[childTasksKey]; ok {
		if err := addTasksFromPayload(t, children); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func addTasksFromPayload(c TaskCollection, value any) error {
	items, err := wireList(value)
	if err != nil {
		return WrapError(ErrCodeSchema, "child tasks", err)
	}
	for _, item := range items {
		record, err := wireRecord(item)
		if err != nil {
			return WrapError(ErrCodeSchema, "child task", err)
		}
		task, err := newTask(c.Document(), c, record)
		if err != nil {
			return err
		}
		if err := c.addChild(task); err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) ID() int64                          { return t.id }
func (t *Task) Name() string                       { return t.name }
func (t *Task) Effort() WorkInterval               { return t.effort }
func (t *Task) CompletedEffort() WorkInterval      { return t.completedEffort }
func (t *Task) RemainingEffort() WorkInterval      { return t.remainingEffort }
func (t *Task) Duration() TimeInterval             { return t.duration }
func (t *Task) StartingDate() *time.Time           { return t.startingDate }
func (t *Task) EndingDate() *time.Time             { return t.endingDate }
func (t *Task) StartingConstraintDate() *time.Time { return t.startingConstraintDate }
func (t *Task) EndingConstraintDate() *time.Time   { return t.endingConstraintDate }
func (t *Task) Priority() int64                    { return t.priority }
func (t *Task) TotalCost() float64                 { return t.totalCost }
func (t *Task) OutlineNumber() string              { return t.outlineNumber }
func (t *Task) TaskType() FourCC                   { return t.taskType }
func (t *Task) TaskStatus() FourCC                 { return t.taskStatus }
func (t *Task) PrerequisitesData() []PrerequisiteDescriptor {
	return slices.Clone(t.prerequisitesData)
}

// CustomData returns a copy of the task's custom data.
func (t *Task) CustomData() map[string]string {
	return maps.Clone(t.customData)
}

func (t *Task) CustomDataValue(name string) (string, bool) {
	value, ok := t.customData[name]
	return value, ok
}

func (t *Task) SetName(name string) {
	t.record(newPropertyChange(t, "name", t.name, name))
	t.name = name
}

func (t *Task) SetEffort(effort WorkInterval) {
	t.record(newPropertyChange(t, "effort", t.effort, effort))
	t.effort = effort
}

func (t *Task) SetCompletedEffort(effort WorkInterval) {
	t.record(newPropertyChange(t, "completed_effort", t.completedEffort, effort))
	t.completedEffort = effort
}

func (t *Task) SetRemainingEffort(effort WorkInterval) {
	t.record(newPropertyChange(t, "remaining_effort", t.remainingEffort, effort))
	t.remainingEffort = effort
}

func (t *Task) SetPriority(priority int64) {
	t.record(newPropertyChange(t, "priority", t.priority, priority))
	t.priority = priority
}

// SetCustomDataValue stores a custom data value and moves the task to the
// matching bucket of the document's custom data index.
func (t *Task) SetCustomDataValue(name, value string) {
	old, had := t.customData[name]
	if t.customData == nil {
		t.customData = map[string]string{}
	}
	t.customData[name] = value
	if had && old != value {
		t.doc.customData.remove(name, old, t)
	}
	t.doc.customData.add(name, value, t)
	t.record(&CustomDataChange{task: t, name: name, value: value, oldValue: old, hadValue: had})
}

// AssignResource assigns r to the task with one unit.
func (t *Task) AssignResource(r *Resource) *ResourceAssignment {
	return t.AssignResourceUnits(r, 1)
}

// AssignResourceUnits assigns r to the task. The edge is visible on both
// sides immediately and written to the host on commit.
func (t *Task) AssignResourceUnits(r *Resource, units float64) *ResourceAssignment {
	a := newResourceAssignment(r, t, units)
	t.record(&AssignmentChange{assignment: a})
	return a
}

func (t *Task) Assignments() []*ResourceAssignment {
	return slices.Clone(t.assignments)
}

func (t *Task) AssignedResources() []*Resource {
	resources := make([]*Resource, 0, len(t.assignments))
	for _, a := range t.assignments {
		resources = append(resources, a.resource)
	}
	return resources
}

func (t *Task) Prerequisites() []*TaskDependency { return slices.Clone(t.prerequisites) }
func (t *Task) Dependents() []*TaskDependency    { return slices.Clone(t.dependents) }

// PrerequisiteTasks returns the tasks this task depends on.
func (t *Task) PrerequisiteTasks() []*Task {
	tasks := make([]*Task, 0, len(t.prerequisites))
	for _, d := range t.prerequisites {
		tasks = append(tasks, d.prerequisite)
	}
	return tasks
}

// DependentTasks returns the tasks depending on this task.
func (t *Task) DependentTasks() []*Task {
	tasks := make([]*Task, 0, len(t.dependents))
	for _, d := range t.dependents {
		tasks = append(tasks, d.dependent)
	}
	return tasks
}

func (t *Task) HasPrerequisites() bool { return len(t.prerequisites) > 0 }
func (t *Task) HasDependents() bool    { return len(t.dependents) > 0 }
func (t *Task) HasDependencies() bool  { return t.HasPrerequisites() || t.HasDependents() }

func (t *Task) Parent() TaskCollection { return t.parent }
func (t *Task) Document() *Document    { return t.doc }

func (t *Task) Level() int {
	if t.parent == nil {
		return 1
	}
	return t.parent.Level() + 1
}

// CreateTask creates a subtask in the host and appends it to this task.
func (t *Task) CreateTask(ctx context.Context, props TaskProperties) (*Task, error) {
	return createTask(ctx, t, props)
}

func (t *Task) addChild(child *Task) error {
	t.tasks = append(t.tasks, child)
	return t.doc.register(child)
}

func (t *Task) scope(body string) string {
	return t.doc.scope(applescript.TellTask(t.id, body))
}

func (t *Task) String() string {
	return fmt.Sprintf("Task %d: %s", t.id, t.name)
}
