// Package applescript renders the script text exchanged with the host
// application. Everything here is pure string templating; running the
// scripts is the job of the bridge implementations.
package applescript

import (
	"fmt"
	"strconv"
	"strings"
)

// Application is the scripting name of the host application.
const Application = "OmniPlan"

// Quote renders s as a string literal.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Literal renders a wire value. Text is only quoted when quoted is set, so
// callers can pass pre-rendered expressions through.
func Literal(v any, quoted bool) (string, error) {
	switch val := v.(type) {
	case string:
		if quoted {
			return Quote(val), nil
		}
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("no literal form for %T", v)
	}
}

// TellApplication wraps body in the application scope.
func TellApplication(body string) string {
	return fmt.Sprintf("tell application %s\n%s\nend tell\n", Quote(Application), body)
}

// TellDocument wraps body in the scope of the named document.
func TellDocument(document, body string) string {
	return fmt.Sprintf("tell document %s of application %s\n%s\nend tell\n", Quote(document), Quote(Application), body)
}

// TellTask wraps body in the scope of a task. It must itself be nested in a
// document scope.
func TellTask(id int64, body string) string {
	return fmt.Sprintf("tell task %d\n%s\nend tell", id, body)
}

// Property is one name/literal pair of a record literal.
type Property struct {
	Name    string
	Literal string
}

// Record renders {name: literal, ...}.
func Record(props []Property) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, p.Name+": "+p.Literal)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// SetProperty renders an assignment of a host property.
func SetProperty(name, literal string) string {
	return fmt.Sprintf("set %s to %s", name, literal)
}

// MakeTask creates a task in the current scope and returns its id.
func MakeTask(props []Property) string {
	return fmt.Sprintf("set newTask to make new task with properties %s\nreturn id of newTask", Record(props))
}

// MakeResource creates a resource in the current document and returns its id.
func MakeResource(name string) string {
	return fmt.Sprintf("set newResource to make new resource with properties {name: %s}\nreturn id of newResource", Quote(name))
}

// AssignResource assigns a resource to a task within the document scope.
func AssignResource(resourceID, taskID int64, units float64) string {
	return fmt.Sprintf("assign resource %d to task %d units %s", resourceID, taskID, strconv.FormatFloat(units, 'f', -1, 64))
}

// MakeCustomDataEntry adds a custom data entry to the task in scope.
func MakeCustomDataEntry(name, value string) string {
	return fmt.Sprintf("make custom data entry with properties {name:%s, value:%s}", Quote(name), Quote(value))
}

// NthDocumentName returns the name of the document in window n, falling back
// to document n, or an empty string.
func NthDocumentName(n int) string {
	return TellApplication(fmt.Sprintf(`try
	return name of document of window %[1]d
on error
	try
		return name of document %[1]d
	on error
		return ""
	end try
end try`, n))
}
