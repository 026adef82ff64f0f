package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fortuna/totals/internal/store"
)

// FileSource reads season datasets stored as <dir>/<season>.json
type FileSource struct {
	dir string
}

// NewFileSource creates a file source rooted at dir
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Path returns the file backing a season
func (f *FileSource) Path(season string) string {
	return filepath.Join(f.dir, season+".json")
}

// Load reads and decodes one season file
func (f *FileSource) Load(ctx context.Context, season string) ([]store.RawMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if season == "" || strings.ContainsAny(season, `/\`) {
		return nil, fmt.Errorf("invalid season %q", season)
	}
	return ReadFile(f.Path(season))
}

// Seasons lists every <season>.json under the directory
func (f *FileSource) Seasons(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset dir: %w", err)
	}

	var seasons []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		seasons = append(seasons, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(seasons)
	return seasons, nil
}

// ReadFile decodes a season file. A missing file maps to ErrSeasonNotFound.
func ReadFile(path string) ([]store.RawMatch, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSeasonNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading season file: %w", err)
	}

	var matches []store.RawMatch
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, fmt.Errorf("parsing season file %s: %w", path, err)
	}
	return matches, nil
}
