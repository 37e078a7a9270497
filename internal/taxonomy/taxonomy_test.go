package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
categories:
  - id: software
    name: Software
    children:
      - id: web
        name: Web
        children:
          - id: frontend
            name: Frontend
            skills:
              - {id: react, name: React}
              - {id: css, name: CSS}
          - id: backend
            name: Backend
            skills:
              - {id: go, name: Go}
  - id: data
    name: Data
    children:
      - id: ml
        name: Machine Learning
        skills:
          - {id: pytorch, name: PyTorch}
`

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Parse([]byte(testYAML), "yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return s
}

func TestEmbeddedCatalogParses(t *testing.T) {
	if _, err := Parse(defaultYAML, "yaml"); err != nil {
		t.Fatalf("Parse(default.yml) error = %v", err)
	}
}

func TestDefaultCatalog_DistinctLanguageIDs(t *testing.T) {
	s := Default()
	tests := []struct {
		name, wantID string
	}{
		{"C", "c"},
		{"C++", "cpp"},
	}
	for _, tt := range tests {
		matches := s.FindSkill(tt.name)
		if len(matches) != 1 {
			t.Fatalf("FindSkill(%q) = %d matches, want 1", tt.name, len(matches))
		}
		if got := matches[0].Skill.ID; got != tt.wantID {
			t.Errorf("FindSkill(%q) id = %q, want %q", tt.name, got, tt.wantID)
		}
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	s := Default()
	st := s.Stats()
	if st.Categories == 0 || st.Skills == 0 || st.Specializations == 0 {
		t.Errorf("Default().Stats() = %+v, want non-empty catalog", st)
	}
	if s.FindNode([]string{"software-development", "web-development", "frontend"}) == nil {
		t.Error("default catalog missing software-development/web-development/frontend")
	}
}

func TestFindNode(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		name   string
		path   []string
		wantID string
	}{
		{"category", []string{"software"}, "software"},
		{"specialization", []string{"software", "web", "frontend"}, "frontend"},
		{"unknown leaf", []string{"software", "web", "mobile"}, ""},
		{"wrong parent", []string{"data", "web"}, ""},
		{"empty path", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.FindNode(tt.path)
			if tt.wantID == "" {
				if got != nil {
					t.Errorf("FindNode(%v) = %+v, want nil", tt.path, got)
				}
				return
			}
			if got == nil || got.ID != tt.wantID {
				t.Errorf("FindNode(%v) = %+v, want id %q", tt.path, got, tt.wantID)
			}
		})
	}
}

func TestFindByID(t *testing.T) {
	s := testStore(t)
	if n := s.FindByID("backend"); n == nil || n.Name != "Backend" {
		t.Errorf("FindByID(backend) = %+v", n)
	}
	if n := s.FindByID("nope"); n != nil {
		t.Errorf("FindByID(nope) = %+v, want nil", n)
	}
}

func TestListSkillsUnder(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		id   string
		want int
	}{
		{"frontend", 2},
		{"web", 3},
		{"software", 3},
		{"ml", 1},
		{"unknown", 0},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := s.ListSkillsUnder(tt.id)
			if got == nil {
				t.Fatal("ListSkillsUnder() returned nil, want empty slice")
			}
			if len(got) != tt.want {
				t.Errorf("ListSkillsUnder(%q) = %d skills, want %d", tt.id, len(got), tt.want)
			}
		})
	}
}

func TestIsCategory(t *testing.T) {
	s := testStore(t)
	for _, name := range []string{"Software", "frontend", "MACHINE LEARNING", "ml"} {
		if !s.IsCategory(name) {
			t.Errorf("IsCategory(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"React", "Go", ""} {
		if s.IsCategory(name) {
			t.Errorf("IsCategory(%q) = true, want false", name)
		}
	}

	var nilStore *Store
	if nilStore.IsCategory("Software") {
		t.Error("nil store IsCategory() = true")
	}
}

func TestFindSkill(t *testing.T) {
	s := testStore(t)
	matches := s.FindSkill("react")
	if len(matches) != 1 {
		t.Fatalf("FindSkill(react) = %d matches, want 1", len(matches))
	}
	want := []string{"software", "web", "frontend"}
	for i, id := range want {
		if matches[0].Path[i] != id {
			t.Errorf("FindSkill path = %v, want %v", matches[0].Path, want)
			break
		}
	}
	if got := s.FindSkill("cobol"); len(got) != 0 {
		t.Errorf("FindSkill(cobol) = %v, want none", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing name", "categories:\n  - id: a\n"},
		{"duplicate id", "categories:\n  - {id: a, name: A}\n  - {id: a, name: B}\n"},
		{"children and skills", "categories:\n  - id: a\n    name: A\n    children: [{id: b, name: B}]\n    skills: [{id: s, name: S}]\n"},
		{"duplicate skill", "categories:\n  - id: a\n    name: A\n    skills: [{id: s, name: S}, {id: s, name: T}]\n"},
		{"no categories", "other: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "yaml")
			if !errors.Is(err, ErrInvalidTaxonomy) {
				t.Errorf("Parse() error = %v, want ErrInvalidTaxonomy", err)
			}
		})
	}
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	data := `{"categories":[{"id":"a","name":"A","skills":[{"id":"x","name":"X"}]}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := s.ListSkillsUnder("a"); len(got) != 1 || got[0].Name != "X" {
		t.Errorf("ListSkillsUnder(a) = %v", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("Load() of missing file succeeded")
	}
}
