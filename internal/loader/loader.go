package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jwebster45206/memory-gate/pkg/gallery"
	"gopkg.in/yaml.v3"
)

// Document file names, shared by every source.
const (
	QuestionsFile = "questions.json"
	ImagesFile    = "images.json"
)

// Source produces a validated gallery configuration.
type Source interface {
	// Name identifies the source in logs.
	Name() string
	Load(ctx context.Context) (*gallery.Config, error)
}

// Decode parses and validates a questions/images JSON pair. Unknown
// fields are rejected.
func Decode(questions, images []byte) (*gallery.Config, error) {
	var cfg gallery.Config
	if err := decodeStrictJSON(questions, &cfg.Questions); err != nil {
		return nil, fmt.Errorf("%s: %w", QuestionsFile, err)
	}
	if err := decodeStrictJSON(images, &cfg.Images); err != nil {
		return nil, fmt.Errorf("%s: %w", ImagesFile, err)
	}
	return finish(&cfg)
}

func finish(cfg *gallery.Config) (*gallery.Config, error) {
	if cfg.Images == nil {
		cfg.Images = gallery.ImageMap{}
	}
	if err := gallery.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeStrictJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed strict JSON unmarshaling: %w", err)
	}
	if dec.More() {
		return errors.New("failed strict JSON unmarshaling: unexpected data after document")
	}
	return nil
}

func decodeStrictYAML(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed strict YAML unmarshaling: %w", err)
	}
	return nil
}
