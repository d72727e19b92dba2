package loader

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/memory-gate/pkg/gallery"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// ScanImages builds an image map from dir, one sub-directory per section.
// Files are ordered by numeric-aware collation so 2.jpg sorts before
// 10.jpg. URLs are urlPrefix/<section>/<file>.
func ScanImages(dir, urlPrefix string) (gallery.ImageMap, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return gallery.ImageMap{}, nil
		}
		return nil, fmt.Errorf("failed to read images directory: %w", err)
	}

	prefix := strings.TrimRight(urlPrefix, "/")
	col := collate.New(language.Und, collate.Numeric)
	images := gallery.ImageMap{}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		section := entry.Name()

		files, err := os.ReadDir(filepath.Join(dir, section))
		if err != nil {
			return nil, fmt.Errorf("failed to read images for %s: %w", section, err)
		}

		var names []string
		for _, f := range files {
			if f.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
				continue
			}
			names = append(names, f.Name())
		}
		col.SortStrings(names)

		urls := make([]string, 0, len(names))
		for _, name := range names {
			urls = append(urls, prefix+"/"+url.PathEscape(section)+"/"+url.PathEscape(name))
		}
		images[section] = urls
	}

	return images, nil
}

// MergeImages fills sections that base leaves empty with scanned lists.
// Lists already present in base win.
func MergeImages(base, scanned gallery.ImageMap) gallery.ImageMap {
	merged := make(gallery.ImageMap, len(base)+len(scanned))
	for id, imgs := range base {
		merged[id] = imgs
	}
	for id, imgs := range scanned {
		if len(merged[id]) == 0 {
			merged[id] = imgs
		}
	}
	return merged
}
