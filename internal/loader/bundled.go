package loader

import (
	"context"
	"embed"
	"fmt"
	"path"

	"github.com/jwebster45206/memory-gate/pkg/gallery"
)

//go:embed bundled/*.json
var bundledFS embed.FS

type bundledSource struct{}

// Bundled returns the documents compiled into the binary.
func Bundled() Source {
	return bundledSource{}
}

func (bundledSource) Name() string { return "bundled" }

func (bundledSource) Load(ctx context.Context) (*gallery.Config, error) {
	questions, err := bundledFS.ReadFile(path.Join("bundled", QuestionsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled %s: %w", QuestionsFile, err)
	}
	images, err := bundledFS.ReadFile(path.Join("bundled", ImagesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled %s: %w", ImagesFile, err)
	}
	return Decode(questions, images)
}
