package ontology

import "testing"

func TestSanitizeLocal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Student001", "student001"},
		{"CS-101", "cs_101"},
		{"Prof.Smith", "prof_smith"},
		{"already_ok", "already_ok"},
		{"Übung", "_bung"},
		{"", "node"},
	}
	for _, tt := range tests {
		if got := sanitizeLocal(tt.in); got != tt.want {
			t.Errorf("sanitizeLocal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://example.org/uni#CS101", "CS101"},
		{"http://example.org/uni/CS101", "CS101"},
		{"http://example.org/uni#", "http://example.org/uni#"},
		{"CS101", "CS101"},
	}
	for _, tt := range tests {
		if got := localName(tt.in); got != tt.want {
			t.Errorf("localName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewGraphDefaultNamespace(t *testing.T) {
	if got := NewGraph("").Namespace(); got != DefaultNamespace {
		t.Errorf("Namespace() = %q, want DefaultNamespace", got)
	}
	if got := NewGraph("http://x#").Namespace(); got != "http://x#" {
		t.Errorf("Namespace() = %q, want http://x#", got)
	}
}

func TestNameConstantAndDisplay(t *testing.T) {
	g := decodeCampus(t)

	name, ok := g.NameConstant("CS101")
	if !ok || name != "/cs101" {
		t.Errorf("NameConstant(CS101) = %q, %v, want /cs101, true", name, ok)
	}
	if _, ok := g.NameConstant("CS999"); ok {
		t.Error("NameConstant(CS999) found an entity that was never loaded")
	}

	if got := g.Display("/cs101"); got != "CS101" {
		t.Errorf("Display(/cs101) = %q, want CS101", got)
	}
	if got := g.Display("cs101"); got != "CS101" {
		t.Errorf("Display(cs101) = %q, want CS101", got)
	}
	// Unknown names pass through untouched.
	if got := g.Display("/zzz"); got != "/zzz" {
		t.Errorf("Display(/zzz) = %q, want /zzz", got)
	}

	if got := g.IRIFor("/profsmith"); got != DefaultNamespace+"ProfSmith" {
		t.Errorf("IRIFor(/profsmith) = %q, want %q", got, DefaultNamespace+"ProfSmith")
	}
}

func TestRehydrate(t *testing.T) {
	parsed := decodeCampus(t)
	facts := parsed.Facts()

	g := Rehydrate("", facts)

	if g.Len() != 0 {
		t.Errorf("rehydrated graph has %d triples, want 0", g.Len())
	}
	if g.Stats().Projected != len(facts) {
		t.Errorf("Projected = %d, want %d", g.Stats().Projected, len(facts))
	}
	stats := g.Stats()
	if stats.Students != 1 || stats.Courses != 2 || stats.Professors != 1 || stats.Departments != 1 {
		t.Errorf("class counts = %d/%d/%d/%d, want 1/2/1/1",
			stats.Students, stats.Courses, stats.Professors, stats.Departments)
	}

	name, ok := g.NameConstant("CS201")
	if !ok || name != "/cs201" {
		t.Errorf("NameConstant(CS201) = %q, %v, want /cs201, true", name, ok)
	}
	if got := g.Display("/profsmith"); got != "ProfSmith" {
		t.Errorf("Display(/profsmith) = %q, want ProfSmith", got)
	}
	if g.Namespace() != DefaultNamespace {
		t.Errorf("Namespace() = %q, want DefaultNamespace", g.Namespace())
	}
}
