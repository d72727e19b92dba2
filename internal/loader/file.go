package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/memory-gate/pkg/gallery"
)

// FileSource reads the two documents from a data directory. Each may be
// JSON or, for hand editing, a YAML file with the same base name.
type FileSource struct {
	dir string
}

// NewFileSource creates a source rooted at dir; empty means ./data.
func NewFileSource(dir string) *FileSource {
	if dir == "" {
		dir = "./data"
	}
	return &FileSource{dir: dir}
}

func (f *FileSource) Name() string { return "file:" + f.dir }

func (f *FileSource) Load(ctx context.Context) (*gallery.Config, error) {
	var cfg gallery.Config
	if err := f.read(QuestionsFile, &cfg.Questions); err != nil {
		return nil, err
	}
	if err := f.read(ImagesFile, &cfg.Images); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

func (f *FileSource) read(jsonName string, v any) error {
	base := strings.TrimSuffix(jsonName, ".json")
	candidates := []string{jsonName, base + ".yaml", base + ".yml"}

	for _, name := range candidates {
		p := filepath.Join(f.dir, name)
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		if filepath.Ext(name) == ".json" {
			err = decodeStrictJSON(data, v)
		} else {
			err = decodeStrictYAML(data, v)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		return nil
	}

	absDir, _ := filepath.Abs(f.dir)
	return fmt.Errorf("%s not found (tried: %s in %s)", jsonName, strings.Join(candidates, ", "), absDir)
}
