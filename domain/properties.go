package domain

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/fastygo/planbridge/pkg/applescript"
)

// TaskProperties holds domain values keyed by property name, e.g.
// {"name": "Design", "effort": Workdays(2)}. Only writable properties are
// accepted.
type TaskProperties map[string]any

type taskProperty struct {
	decode func(t *Task, wire any) error

	// writable properties only
	hostName string
	quoted   bool
	encode   func(value any) (any, error)
}

func (p taskProperty) writable() bool {
	return p.encode != nil
}

// taskProperties lists every key of a host task record. All of them are
// required.
var taskProperties = map[string]taskProperty{
	"id": {
		decode: func(t *Task, v any) (err error) {
			t.id, err = wireInt(v)
			return err
		},
	},
	"name": {
		decode: func(t *Task, v any) (err error) {
			t.name, err = wireString(v)
			return err
		},
		hostName: "name",
		quoted:   true,
		encode:   encodeText,
	},
	"effort": {
		decode:   decodeWork(func(t *Task) *WorkInterval { return &t.effort }),
		hostName: "effort",
		encode:   encodeWork,
	},
	"completed_effort": {
		decode:   decodeWork(func(t *Task) *WorkInterval { return &t.completedEffort }),
		hostName: "completed effort",
		encode:   encodeWork,
	},
	"remaining_effort": {
		decode:   decodeWork(func(t *Task) *WorkInterval { return &t.remainingEffort }),
		hostName: "remaining effort",
		encode:   encodeWork,
	},
	"duration": {
		decode: func(t *Task, v any) (err error) {
			t.duration, err = TimeIntervalConverter{}.Decode(v)
			return err
		},
	},
	"starting_date":            {decode: decodeDate(func(t *Task) **time.Time { return &t.startingDate })},
	"ending_date":              {decode: decodeDate(func(t *Task) **time.Time { return &t.endingDate })},
	"starting_constraint_date": {decode: decodeDate(func(t *Task) **time.Time { return &t.startingConstraintDate })},
	"ending_constraint_date":   {decode: decodeDate(func(t *Task) **time.Time { return &t.endingConstraintDate })},
	"priority": {
		decode: func(t *Task, v any) (err error) {
			t.priority, err = wireInt(v)
			return err
		},
		hostName: "priority",
		encode:   encodeInt,
	},
	"total_cost": {
		decode: func(t *Task, v any) (err error) {
			t.totalCost, err = wireFloat(v)
			return err
		},
	},
	"outline_number": {
		decode: func(t *Task, v any) error {
			t.outlineNumber = wireText(v)
			return nil
		},
	},
	"task_type": {
		decode: func(t *Task, v any) (err error) {
			t.taskType, err = FourCCConverter{}.Decode(v)
			return err
		},
	},
	"task_status": {
		decode: func(t *Task, v any) (err error) {
			t.taskStatus, err = FourCCConverter{}.Decode(v)
			return err
		},
	},
	"custom_data": {
		decode: func(t *Task, v any) (err error) {
			t.customData, err = CustomDataConverter{}.Decode(v)
			return err
		},
	},
	"prerequisites_data": {
		decode: func(t *Task, v any) (err error) {
			t.prerequisitesData, err = decodePrerequisites(v)
			return err
		},
	},
}

func decodeWork(field func(*Task) *WorkInterval) func(*Task, any) error {
	return func(t *Task, v any) error {
		w, err := WorkIntervalConverter{}.Decode(v)
		if err != nil {
			return err
		}
		*field(t) = w
		return nil
	}
}

func decodeDate(field func(*Task) **time.Time) func(*Task, any) error {
	return func(t *Task, v any) error {
		d, err := UTCDateConverter{}.Decode(v)
		if err != nil {
			return err
		}
		*field(t) = d
		return nil
	}
}

func decodePrerequisites(v any) ([]PrerequisiteDescriptor, error) {
	items, err := wireList(v)
	if err != nil {
		return nil, err
	}
	descriptors := make([]PrerequisiteDescriptor, 0, len(items))
	for i, item := range items {
		record, err := wireRecord(item)
		if err != nil {
			return nil, fmt.Errorf("prerequisite %d: %w", i, err)
		}
		var d PrerequisiteDescriptor
		if d.PrerequisiteTaskID, err = wireInt(record["prerequisite_task_id"]); err != nil {
			return nil, fmt.Errorf("prerequisite %d prerequisite_task_id: %w", i, err)
		}
		if d.DependentTaskID, err = wireInt(record["dependent_task_id"]); err != nil {
			return nil, fmt.Errorf("prerequisite %d dependent_task_id: %w", i, err)
		}
		if d.Type, err = (FourCCConverter{}).Decode(record["dependency_type"]); err != nil {
			return nil, fmt.Errorf("prerequisite %d dependency_type: %w", i, err)
		}
		if lead, ok := record["lead_time"]; ok {
			if d.LeadTime, err = wireFloat(lead); err != nil {
				return nil, fmt.Errorf("prerequisite %d lead_time: %w", i, err)
			}
		}
		if lead, ok := record["lead_percentage"]; ok {
			if d.LeadPercentage, err = wireFloat(lead); err != nil {
				return nil, fmt.Errorf("prerequisite %d lead_percentage: %w", i, err)
			}
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func encodeText(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func encodeWork(v any) (any, error) {
	w, ok := v.(WorkInterval)
	if !ok {
		return nil, fmt.Errorf("expected WorkInterval, got %T", v)
	}
	return WorkIntervalConverter{}.Encode(w), nil
}

func encodeInt(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

// renderProperty renders the host literal for a writable property.
func renderProperty(property string, value any) (applescript.Property, error) {
	prop, ok := taskProperties[property]
	if !ok || !prop.writable() {
		return applescript.Property{}, errorf(ErrCodeInternal, "property %q cannot be written to the host", property)
	}
	wire, err := prop.encode(value)
	if err != nil {
		return applescript.Property{}, WrapError(ErrCodeInvalid, fmt.Sprintf("encode %q", property), err)
	}
	literal, err := applescript.Literal(wire, prop.quoted)
	if err != nil {
		return applescript.Property{}, WrapError(ErrCodeInvalid, fmt.Sprintf("render %q", property), err)
	}
	return applescript.Property{Name: prop.hostName, Literal: literal}, nil
}

func (p TaskProperties) render() ([]applescript.Property, error) {
	rendered := make([]applescript.Property, 0, len(p))
	for _, name := range slices.Sorted(maps.Keys(p)) {
		prop, err := renderProperty(name, p[name])
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, prop)
	}
	return rendered, nil
}
