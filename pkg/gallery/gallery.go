package gallery

// EntryScope is the reserved gate identifier for the entry question.
// No section may use it as its ID.
const EntryScope = "entry"

// Question is a prompt plus the answers that pass it.
type Question struct {
	Question string   `json:"question" yaml:"question"`
	Answers  []string `json:"answers" yaml:"answers"`
}

// Section is a named collection of images behind its own gate.
type Section struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Question Question `json:"question" yaml:"question"`
}

// Questions is the questions document: one entry question plus one
// question per section.
type Questions struct {
	EntryQuestion Question  `json:"entryQuestion" yaml:"entryQuestion"`
	Sections      []Section `json:"sections" yaml:"sections"`
}

// ImageMap maps section IDs to ordered image URLs.
type ImageMap map[string][]string

// Images returns the image list for a section. A missing key yields an
// empty list, never nil.
func (m ImageMap) Images(sectionID string) []string {
	imgs, ok := m[sectionID]
	if !ok || imgs == nil {
		return []string{}
	}
	return imgs
}

// Config is everything the gallery needs from its two documents.
type Config struct {
	Questions Questions
	Images    ImageMap
}

// Section returns the section with the given ID.
func (c *Config) Section(id string) (Section, bool) {
	for _, s := range c.Questions.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// SectionIDs returns section IDs in document order.
func (c *Config) SectionIDs() []string {
	ids := make([]string, 0, len(c.Questions.Sections))
	for _, s := range c.Questions.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// Question returns the gating question for a scope, which is either
// EntryScope or a section ID.
func (c *Config) Question(scope string) (Question, bool) {
	if scope == EntryScope {
		return c.Questions.EntryQuestion, true
	}
	s, ok := c.Section(scope)
	if !ok {
		return Question{}, false
	}
	return s.Question, true
}

// AllImages flattens every image list in section order, followed by any
// lists keyed by IDs no section references. Blank URLs are dropped.
func (c *Config) AllImages() []string {
	var all []string
	seen := make(map[string]bool)
	appendList := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, u := range c.Images.Images(id) {
			if u != "" {
				all = append(all, u)
			}
		}
	}
	for _, s := range c.Questions.Sections {
		appendList(s.ID)
	}
	for _, id := range sortedKeys(c.Images) {
		appendList(id)
	}
	return all
}
