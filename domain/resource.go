package domain

import (
	"fmt"
	"slices"
)

// Resource is a person or piece of equipment tasks can be assigned to.
type Resource struct {
	id          int64
	name        string
	assignments []*ResourceAssignment
}

func (r *Resource) ID() int64    { return r.id }
func (r *Resource) Name() string { return r.name }

func (r *Resource) Assignments() []*ResourceAssignment {
	return slices.Clone(r.assignments)
}

func (r *Resource) AssignedTasks() []*Task {
	tasks := make([]*Task, 0, len(r.assignments))
	for _, a := range r.assignments {
		tasks = append(tasks, a.task)
	}
	return tasks
}

func (r *Resource) String() string {
	return fmt.Sprintf("Resource %d: %s", r.id, r.name)
}

// ResourceAssignment links a task and a resource. It is always listed on
// both endpoints.
type ResourceAssignment struct {
	resource *Resource
	task     *Task
	units    float64
}

func newResourceAssignment(r *Resource, t *Task, units float64) *ResourceAssignment {
	a := &ResourceAssignment{resource: r, task: t, units: units}
	r.assignments = append(r.assignments, a)
	t.assignments = append(t.assignments, a)
	return a
}

func (a *ResourceAssignment) Resource() *Resource { return a.resource }
func (a *ResourceAssignment) Task() *Task         { return a.task }
func (a *ResourceAssignment) Units() float64      { return a.units }

// TaskDependency is an edge from a prerequisite task to a dependent task.
type TaskDependency struct {
	prerequisite   *Task
	dependent      *Task
	kind           FourCC
	leadTime       float64
	leadPercentage float64
}

// NewTaskDependency links two tasks, registering the edge on both of them.
func NewTaskDependency(prerequisite, dependent *Task, kind FourCC) *TaskDependency {
	d := &TaskDependency{prerequisite: prerequisite, dependent: dependent, kind: kind}
	prerequisite.dependents = append(prerequisite.dependents, d)
	dependent.prerequisites = append(dependent.prerequisites, d)
	return d
}

func (d *TaskDependency) PrerequisiteTask() *Task { return d.prerequisite }
func (d *TaskDependency) DependentTask() *Task    { return d.dependent }
func (d *TaskDependency) Type() FourCC            { return d.kind }
func (d *TaskDependency) LeadTime() float64       { return d.leadTime }
func (d *TaskDependency) LeadPercentage() float64 { return d.leadPercentage }
