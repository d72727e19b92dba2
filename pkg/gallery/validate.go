package gallery

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError collects every shape problem found in a document pair.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid gallery configuration:\n" + strings.Join(e.Problems, "\n")
}

// Validate checks the questions document and image map against the
// gallery schema. Image keys without a section are not an error; use
// OrphanImageKeys to report them.
func Validate(c *Config) error {
	if c == nil {
		return errors.New("gallery configuration is nil")
	}

	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, "- "+fmt.Sprintf(format, args...))
	}

	validateQuestion := func(where string, q Question) {
		if strings.TrimSpace(q.Question) == "" {
			add("%s: question text is required", where)
		}
		if len(q.Answers) == 0 {
			add("%s: at least one answer is required", where)
		}
		for i, a := range q.Answers {
			if strings.TrimSpace(a) == "" {
				add("%s: answer %d is blank", where, i)
			}
		}
	}

	validateQuestion("entryQuestion", c.Questions.EntryQuestion)

	ids := make(map[string]bool)
	for i, s := range c.Questions.Sections {
		where := fmt.Sprintf("sections[%d]", i)
		switch {
		case strings.TrimSpace(s.ID) == "":
			add("%s: id is required", where)
		case s.ID == EntryScope:
			add("%s: id %q is reserved", where, EntryScope)
		case ids[s.ID]:
			add("%s: duplicate id %q", where, s.ID)
		}
		ids[s.ID] = true
		if strings.TrimSpace(s.Title) == "" {
			add("%s: title is required", where)
		}
		validateQuestion(where+".question", s.Question)
	}

	for _, id := range sortedKeys(c.Images) {
		for j, u := range c.Images[id] {
			if strings.TrimSpace(u) == "" {
				add("images[%q][%d]: url is blank", id, j)
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// OrphanImageKeys returns image map keys that no section references.
func OrphanImageKeys(c *Config) []string {
	var orphans []string
	for _, id := range sortedKeys(c.Images) {
		if _, ok := c.Section(id); !ok {
			orphans = append(orphans, id)
		}
	}
	return orphans
}

func sortedKeys(m ImageMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
