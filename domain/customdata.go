package domain

import "slices"

// CustomDataIndex maps custom data name and value to the tasks holding that
// pair. A task is listed once per pair and only under its current value.
type CustomDataIndex struct {
	values map[string]map[string][]*Task
}

func newCustomDataIndex() *CustomDataIndex {
	return &CustomDataIndex{values: make(map[string]map[string][]*Task)}
}

func (ix *CustomDataIndex) register(t *Task) {
	for name, value := range t.customData {
		ix.add(name, value, t)
	}
}

func (ix *CustomDataIndex) add(name, value string, t *Task) {
	byValue, ok := ix.values[name]
	if !ok {
		byValue = make(map[string][]*Task)
		ix.values[name] = byValue
	}
	if slices.Contains(byValue[value], t) {
		return
	}
	byValue[value] = append(byValue[value], t)
}

func (ix *CustomDataIndex) remove(name, value string, t *Task) {
	byValue := ix.values[name]
	tasks := slices.DeleteFunc(byValue[value], func(other *Task) bool { return other == t })
	if len(tasks) == 0 {
		delete(byValue, value)
		return
	}
	byValue[value] = tasks
}

// Tasks returns the tasks holding name=value. The result is empty, not an
// error, when nothing matches.
func (ix *CustomDataIndex) Tasks(name, value string) []*Task {
	return slices.Clone(ix.values[name][value])
}

// Values returns the distinct values recorded for name.
func (ix *CustomDataIndex) Values(name string) []string {
	values := make([]string, 0, len(ix.values[name]))
	for value := range ix.values[name] {
		values = append(values, value)
	}
	slices.Sort(values)
	return values
}
