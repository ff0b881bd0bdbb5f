package kernel

import (
	"testing"
)

func TestFactString(t *testing.T) {
	tests := []struct {
		name string
		fact Fact
		want string
	}{
		{
			name: "name constant",
			fact: fact("student", "/student001"),
			want: "student(/student001).",
		},
		{
			name: "string argument quoted",
			fact: fact("course_code", "/cs401", "CS-401"),
			want: `course_code(/cs401, "CS-401").`,
		},
		{
			name: "number argument",
			fact: fact("credit_hours", "/cs101", int64(3)),
			want: "credit_hours(/cs101, 3).",
		},
		{
			name: "bool argument",
			fact: fact("flagged", "/cs101", true),
			want: "flagged(/cs101, /true).",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fact.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFactString(t *testing.T) {
	f, err := ParseFactString(`course_code(/cs401, "CS-401")`)
	if err != nil {
		t.Fatalf("ParseFactString() error = %v", err)
	}
	if f.Predicate != "course_code" {
		t.Errorf("predicate = %q, want course_code", f.Predicate)
	}
	if len(f.Args) != 2 {
		t.Fatalf("args = %v, want 2 args", f.Args)
	}
	if f.Args[0] != "/cs401" {
		t.Errorf("arg 0 = %v, want /cs401", f.Args[0])
	}
	if f.Args[1] != "CS-401" {
		t.Errorf("arg 1 = %v, want CS-401", f.Args[1])
	}

	n, err := ParseFactString("credit_hours(/cs101, 3)")
	if err != nil {
		t.Fatalf("ParseFactString() error = %v", err)
	}
	if n.Args[1] != int64(3) {
		t.Errorf("numeric arg = %v (%T), want int64(3)", n.Args[1], n.Args[1])
	}

	if _, err := ParseFactString("not a fact at all"); err == nil {
		t.Error("ParseFactString on garbage should fail")
	}
}

func TestParseFactsFromStringSkipsRules(t *testing.T) {
	content := `
student(/student001).
course(/cs101).
eligible(S, C) :- student(S), course(C).
has_taken(/student001, /cs101).
`
	facts, err := ParseFactsFromString(content)
	if err != nil {
		t.Fatalf("ParseFactsFromString() error = %v", err)
	}
	if len(facts) != 3 {
		t.Fatalf("got %d facts, want 3 (rule skipped)", len(facts))
	}
	for _, f := range facts {
		if f.Predicate == "eligible" {
			t.Errorf("rule head %v leaked into fact list", f)
		}
	}
}

func TestValueEqual(t *testing.T) {
	tests := []struct {
		name    string
		pattern interface{}
		value   interface{}
		want    bool
	}{
		{"identical strings", "CS-101", "CS-101", true},
		{"different strings", "CS-101", "CS-201", false},
		{"int vs int64", 3, int64(3), true},
		{"int32 vs int64", int32(4), int64(4), true},
		{"number vs string", int64(3), "3", false},
		{"name constants", "/cs101", "/cs101", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueEqual(tt.pattern, tt.value); got != tt.want {
				t.Errorf("valueEqual(%v, %v) = %v, want %v", tt.pattern, tt.value, got, tt.want)
			}
		})
	}
}
