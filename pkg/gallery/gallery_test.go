package gallery

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func testConfig() *Config {
	return &Config{
		Questions: Questions{
			EntryQuestion: Question{Question: "When is the day?", Answers: []string{"31st March"}},
			Sections: []Section{
				{ID: "3rd", Title: "3rd Semester", Question: Question{Question: "Where did we meet?", Answers: []string{"library"}}},
				{ID: "summer", Title: "Summer 2025", Question: Question{Question: "Which beach?", Answers: []string{"puri"}}},
			},
		},
		Images: ImageMap{
			"3rd":    {"a.jpg", "b.jpg"},
			"orphan": {"z.jpg"},
		},
	}
}

func TestImageMap_Images(t *testing.T) {
	m := ImageMap{"3rd": {"a.jpg", "b.jpg"}, "nil": nil}

	if got := m.Images("3rd"); !reflect.DeepEqual(got, []string{"a.jpg", "b.jpg"}) {
		t.Errorf("Images(3rd) = %v", got)
	}
	for _, id := range []string{"missing", "nil"} {
		got := m.Images(id)
		if got == nil || len(got) != 0 {
			t.Errorf("Images(%q) = %#v, want empty non-nil list", id, got)
		}
	}

	var empty ImageMap
	if got := empty.Images("x"); got == nil {
		t.Error("Images on nil map should return empty list")
	}
}

func TestConfig_Question(t *testing.T) {
	c := testConfig()

	q, ok := c.Question(EntryScope)
	if !ok || q.Question != "When is the day?" {
		t.Errorf("entry question = %+v, %v", q, ok)
	}

	q, ok = c.Question("summer")
	if !ok || q.Answers[0] != "puri" {
		t.Errorf("summer question = %+v, %v", q, ok)
	}

	if _, ok := c.Question("4th"); ok {
		t.Error("unknown scope should not resolve")
	}
}

func TestConfig_SectionIDsAndAllImages(t *testing.T) {
	c := testConfig()

	if got := c.SectionIDs(); !reflect.DeepEqual(got, []string{"3rd", "summer"}) {
		t.Errorf("SectionIDs() = %v", got)
	}

	c.Images["summer"] = []string{"", "s.jpg"}
	want := []string{"a.jpg", "b.jpg", "s.jpg", "z.jpg"}
	if got := c.AllImages(); !reflect.DeepEqual(got, want) {
		t.Errorf("AllImages() = %v, want %v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "entry question without answers",
			mutate:  func(c *Config) { c.Questions.EntryQuestion.Answers = nil },
			wantErr: "entryQuestion: at least one answer is required",
		},
		{
			name:    "blank answer",
			mutate:  func(c *Config) { c.Questions.Sections[0].Question.Answers = []string{"  "} },
			wantErr: "sections[0].question: answer 0 is blank",
		},
		{
			name:    "duplicate id",
			mutate:  func(c *Config) { c.Questions.Sections[1].ID = "3rd" },
			wantErr: `duplicate id "3rd"`,
		},
		{
			name:    "reserved id",
			mutate:  func(c *Config) { c.Questions.Sections[1].ID = EntryScope },
			wantErr: `id "entry" is reserved`,
		},
		{
			name:    "missing title",
			mutate:  func(c *Config) { c.Questions.Sections[0].Title = "" },
			wantErr: "sections[0]: title is required",
		},
		{
			name:    "blank image url",
			mutate:  func(c *Config) { c.Images["3rd"] = []string{"a.jpg", ""} },
			wantErr: `images["3rd"][1]: url is blank`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}

	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) should fail")
	}
}

func TestOrphanImageKeys(t *testing.T) {
	if got := OrphanImageKeys(testConfig()); !reflect.DeepEqual(got, []string{"orphan"}) {
		t.Errorf("OrphanImageKeys() = %v", got)
	}
}

func TestCarousel(t *testing.T) {
	tests := []struct {
		name               string
		index, count       int
		next, prev, pos    int
		wantIndexAfterInit int
	}{
		{name: "middle", index: 1, count: 3, next: 2, prev: 0, pos: 2, wantIndexAfterInit: 1},
		{name: "wrap forward", index: 2, count: 3, next: 0, prev: 1, pos: 3, wantIndexAfterInit: 2},
		{name: "wrap backward", index: 0, count: 3, next: 1, prev: 2, pos: 1, wantIndexAfterInit: 0},
		{name: "out of range clamps", index: 9, count: 3, next: 1, prev: 2, pos: 1, wantIndexAfterInit: 0},
		{name: "negative clamps", index: -1, count: 2, next: 1, prev: 1, pos: 1, wantIndexAfterInit: 0},
		{name: "empty", index: 0, count: 0, next: 0, prev: 0, pos: 0, wantIndexAfterInit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCarousel(tt.index, tt.count)
			if c.Index != tt.wantIndexAfterInit {
				t.Errorf("Index = %d, want %d", c.Index, tt.wantIndexAfterInit)
			}
			if c.Next() != tt.next {
				t.Errorf("Next() = %d, want %d", c.Next(), tt.next)
			}
			if c.Prev() != tt.prev {
				t.Errorf("Prev() = %d, want %d", c.Prev(), tt.prev)
			}
			if c.Position() != tt.pos {
				t.Errorf("Position() = %d, want %d", c.Position(), tt.pos)
			}
		})
	}
}
