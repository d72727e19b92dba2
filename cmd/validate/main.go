package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/jwebster45206/memory-gate/internal/loader"
	"github.com/jwebster45206/memory-gate/pkg/answer"
	"github.com/jwebster45206/memory-gate/pkg/gallery"
)

func main() {
	dir := "./data"
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [data-dir]\n", os.Args[0])
		os.Exit(1)
	}
	if len(os.Args) == 2 {
		dir = os.Args[1]
	}

	validator := &GalleryValidator{}
	if err := validator.validateDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Println("Warning:" + strings.TrimPrefix(w, "  -"))
	}
	fmt.Println("Gallery configuration is valid!")
}

type GalleryValidator struct {
	errors   []string
	warnings []string
}

func (v *GalleryValidator) validateDir(dir string) error {
	fmt.Printf("Validating %s...\n", dir)

	// Strict decoding and schema checks are shared with the server
	cfg, err := loader.NewFileSource(dir).Load(context.Background())
	if err != nil {
		return err
	}

	v.errors = nil
	v.warnings = nil
	v.validateGallery(cfg)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", dir, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *GalleryValidator) validateGallery(cfg *gallery.Config) {
	v.validateAnswers("entryQuestion", cfg.Questions.EntryQuestion)

	for _, s := range cfg.Questions.Sections {
		v.validateIDFormat("section ID", s.ID)
		v.validateAnswers("section "+s.ID, s.Question)
		if len(cfg.Images.Images(s.ID)) == 0 {
			v.addWarning(fmt.Sprintf("section %s has no images", s.ID))
		}
	}

	for _, id := range gallery.OrphanImageKeys(cfg) {
		v.addWarning(fmt.Sprintf("images for %s are not referenced by any section", id))
	}

	for id, urls := range cfg.Images {
		for _, u := range urls {
			if _, err := url.Parse(u); err != nil {
				v.addError(fmt.Sprintf("image URL '%s' in %s is invalid: %v", u, id, err))
			}
		}
	}
}

// validateAnswers flags answers that collapse to the same normalized form.
func (v *GalleryValidator) validateAnswers(where string, q gallery.Question) {
	seen := make(map[string]string)
	for _, a := range q.Answers {
		n := answer.Normalize(a)
		if prev, ok := seen[n]; ok {
			v.addWarning(fmt.Sprintf("%s: answers '%s' and '%s' are equivalent", where, prev, a))
			continue
		}
		seen[n] = a
	}
}

func (v *GalleryValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase letters, digits, '-' or '_'", fieldName, id))
	}
}

func (v *GalleryValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *GalleryValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}

// Section IDs appear in URLs; "3rd" and "summer-2025" are fine.
var validIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
