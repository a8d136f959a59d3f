package stt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrModelMissing is returned when the model directory or a tier's model
// file does not exist. Recoverable: the user downloads the model and retries.
var ErrModelMissing = errors.New("stt: model missing")

// modelExts are the accepted model file extensions, in lookup order.
var modelExts = []string{".onnx", ".bin"}

// Catalog maps model ids (quality tiers such as "fast" or "accurate") to
// model files in a designated directory.
type Catalog struct {
	dir string
}

// NewCatalog creates a catalog over dir. The directory is not required to
// exist yet; absence surfaces as ErrModelMissing on Resolve.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Dir returns the model directory path.
func (c *Catalog) Dir() string {
	return c.dir
}

// Resolve returns the model for a tier id, or ErrModelMissing when the
// directory or file is absent.
func (c *Catalog) Resolve(id string) (Model, error) {
	if id == "" {
		return Model{}, fmt.Errorf("model id required")
	}

	if _, err := os.Stat(c.dir); err != nil {
		if os.IsNotExist(err) {
			return Model{}, fmt.Errorf("%w: model directory %s does not exist", ErrModelMissing, c.dir)
		}
		return Model{}, fmt.Errorf("stat model dir: %w", err)
	}

	for _, ext := range modelExts {
		path := filepath.Join(c.dir, id+ext)
		if _, err := os.Stat(path); err == nil {
			return Model{ID: id, Path: path}, nil
		}
	}
	return Model{}, fmt.Errorf("%w: no model file for %q in %s", ErrModelMissing, id, c.dir)
}

// List returns the tier ids with a model file present, sorted.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: model directory %s does not exist", ErrModelMissing, c.dir)
		}
		return nil, fmt.Errorf("read model dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		for _, known := range modelExts {
			if ext == known {
				ids = append(ids, strings.TrimSuffix(name, ext))
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
