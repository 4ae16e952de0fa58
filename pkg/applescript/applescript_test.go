package applescript

import (
	"strings"
	"testing"
)

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"plain":      `"plain"`,
		`say "hi"`:   `"say \"hi\""`,
		`back\slash`: `"back\\slash"`,
		"☂ foo":      `"☂ foo"`,
	}
	for in, want := range tests {
		if got := Quote(in); got != want {
			t.Errorf("Quote(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		value   any
		quoted  bool
		want    string
		wantErr bool
	}{
		{value: "x", quoted: true, want: `"x"`},
		{value: "missing value", want: "missing value"},
		{value: 42, want: "42"},
		{value: int64(28800), want: "28800"},
		{value: int32(-1), want: "-1"},
		{value: 0.5, want: "0.5"},
		{value: 3.0, want: "3"},
		{value: true, want: "true"},
		{value: []string{"no"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := Literal(tt.value, tt.quoted)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Literal(%v) = %q, want error", tt.value, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Literal(%v) = %q, %v; want %q", tt.value, got, err, tt.want)
		}
	}
}

func TestScopes(t *testing.T) {
	script := TellDocument("Plan.oplx", TellTask(7, SetProperty("priority", "10")))
	want := "tell document \"Plan.oplx\" of application \"OmniPlan\"\n" +
		"tell task 7\nset priority to 10\nend tell\n" +
		"end tell\n"
	if script != want {
		t.Errorf("script =\n%s\nwant\n%s", script, want)
	}

	make := MakeTask([]Property{{Name: "effort", Literal: "28800"}, {Name: "name", Literal: Quote("New")}})
	if !strings.HasPrefix(make, `set newTask to make new task with properties {effort: 28800, name: "New"}`) {
		t.Errorf("MakeTask = %s", make)
	}
	if !strings.HasSuffix(make, "return id of newTask") {
		t.Errorf("MakeTask must return the new id: %s", make)
	}

	if got := AssignResource(3, 9, 0.5); got != "assign resource 3 to task 9 units 0.5" {
		t.Errorf("AssignResource = %s", got)
	}
	if got := MakeCustomDataEntry("Team", "Core"); got != `make custom data entry with properties {name:"Team", value:"Core"}` {
		t.Errorf("MakeCustomDataEntry = %s", got)
	}
	if got := NthDocumentName(2); !strings.Contains(got, "document of window 2") || !strings.HasPrefix(got, `tell application "OmniPlan"`) {
		t.Errorf("NthDocumentName = %s", got)
	}
}

func TestQueriesCarryHelpers(t *testing.T) {
	for name, q := range map[string]string{"document": DocumentQuery, "task": TaskQuery} {
		if !strings.HasPrefix(q, "on run argv") {
			t.Errorf("%s query must take arguments", name)
		}
		if !strings.Contains(q, "replace_missing_value") {
			t.Errorf("%s query lacks the missing value helper", name)
		}
	}
}
