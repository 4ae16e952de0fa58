package domain

import (
	"fmt"

	"github.com/fastygo/planbridge/pkg/applescript"
)

// ChangeRecord is a pending mutation of a task, rendered into host script
// text at commit time.
type ChangeRecord interface {
	Task() *Task
	Property() string
	// TargetsDocument reports whether the script must run in document scope
	// rather than task scope.
	TargetsDocument() bool
	Script() (string, error)
}

// PropertyChange records a write to a simple task property.
type PropertyChange struct {
	task     *Task
	property string
	oldValue any
	newValue any
}

func newPropertyChange(t *Task, property string, oldValue, newValue any) *PropertyChange {
	return &PropertyChange{task: t, property: property, oldValue: oldValue, newValue: newValue}
}

func (c *PropertyChange) Task() *Task           { return c.task }
func (c *PropertyChange) Property() string      { return c.property }
func (c *PropertyChange) OldValue() any         { return c.oldValue }
func (c *PropertyChange) NewValue() any         { return c.newValue }
func (c *PropertyChange) TargetsDocument() bool { return false }

func (c *PropertyChange) Script() (string, error) {
	prop, err := renderProperty(c.property, c.newValue)
	if err != nil {
		return "", err
	}
	return applescript.SetProperty(prop.Name, prop.Literal), nil
}

func (c *PropertyChange) String() string {
	return fmt.Sprintf("property change for %s: %s %v -> %v", c.task, c.property, c.oldValue, c.newValue)
}

// CustomDataChange records a custom data value set on a task.
type CustomDataChange struct {
	task     *Task
	name     string
	value    string
	oldValue string
	hadValue bool
}

func (c *CustomDataChange) Task() *Task           { return c.task }
func (c *CustomDataChange) Property() string      { return "custom_data" }
func (c *CustomDataChange) Name() string          { return c.name }
func (c *CustomDataChange) Value() string         { return c.value }
func (c *CustomDataChange) TargetsDocument() bool { return false }

// OldValue returns the previous value and whether there was one.
func (c *CustomDataChange) OldValue() (string, bool) {
	return c.oldValue, c.hadValue
}

func (c *CustomDataChange) Script() (string, error) {
	return applescript.MakeCustomDataEntry(c.name, c.value), nil
}

func (c *CustomDataChange) String() string {
	return fmt.Sprintf("custom data change for %s: %q = %q", c.task, c.name, c.value)
}

// AssignmentChange records a new resource assignment. Assignments are
// created on the document, so this record targets document scope.
type AssignmentChange struct {
	assignment *ResourceAssignment
}

func (c *AssignmentChange) Task() *Task                     { return c.assignment.task }
func (c *AssignmentChange) Property() string                { return "resource_assignments" }
func (c *AssignmentChange) Assignment() *ResourceAssignment { return c.assignment }
func (c *AssignmentChange) TargetsDocument() bool           { return true }

func (c *AssignmentChange) Script() (string, error) {
	a := c.assignment
	return applescript.AssignResource(a.resource.id, a.task.id, a.units), nil
}

func (c *AssignmentChange) String() string {
	return fmt.Sprintf("add resource assignment for %s: %s", c.assignment.task, c.assignment.resource)
}
