// Package trash implements the .scrap folder: a local, inspectable
// holding pen for files and directories the operator wants out of the
// way but not gone. Everything is tracked in a YAML metadata file so
// entries can be restored to where they came from.
package trash

import (
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DirName is the folder entries are moved into, relative to the
	// working directory.
	DirName = ".scrap"

	metadataFile    = ".metadata.yaml"
	metadataVersion = 1
)

// Entry records where a scrapped item came from.
type Entry struct {
	Name         string    `yaml:"name"`
	OriginalPath string    `yaml:"original_path"`
	ScrappedAt   time.Time `yaml:"scrapped_at"`
}

// Metadata is the persisted index of the .scrap folder.
type Metadata struct {
	Version int              `yaml:"version"`
	Entries map[string]Entry `yaml:"entries"`
}

// NewMetadata creates an empty index.
func NewMetadata() *Metadata {
	return &Metadata{Version: metadataVersion, Entries: map[string]Entry{}}
}

// LoadMetadata reads the index from scrapDir. A missing file yields an
// empty index; items moved in by hand simply have no recorded origin.
func LoadMetadata(scrapDir string) (*Metadata, error) {
	path := filepath.Join(scrapDir, metadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMetadata(), nil
		}
		return nil, errors.Errorf("reading scrap metadata: %w", err)
	}

	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Errorf("parsing scrap metadata: %w", err)
	}
	if m.Entries == nil {
		m.Entries = map[string]Entry{}
	}
	return &m, nil
}

// Save writes the index back to scrapDir.
func (m *Metadata) Save(scrapDir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Errorf("serializing scrap metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scrapDir, metadataFile), data, 0o644); err != nil {
		return errors.Errorf("writing scrap metadata: %w", err)
	}
	return nil
}

// Add records one scrapped item.
func (m *Metadata) Add(name, originalPath string) {
	m.Entries[name] = Entry{
		Name:         name,
		OriginalPath: originalPath,
		ScrappedAt:   time.Now().UTC(),
	}
}

// Remove deletes and returns the entry for name, if any.
func (m *Metadata) Remove(name string) (Entry, bool) {
	e, ok := m.Entries[name]
	if ok {
		delete(m.Entries, name)
	}
	return e, ok
}

// Latest returns the most recently scrapped entry.
func (m *Metadata) Latest() (Entry, bool) {
	var latest Entry
	found := false
	for _, e := range m.Entries {
		if !found || e.ScrappedAt.After(latest.ScrappedAt) {
			latest = e
			found = true
		}
	}
	return latest, found
}
