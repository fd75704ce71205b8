package extract

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/opencontainers/go-digest"
)

// ManifestFile is the name the manifest is stored under in the output
const ManifestFile = "manifest.json"

// ManifestEntry records one extracted file
type ManifestEntry struct {
	Index     int           `json:"index"`
	Reference string        `json:"reference"`
	Type      uint8         `json:"type"`
	Subtype   uint8         `json:"subtype"`
	Size      uint32        `json:"size"`
	Path      string        `json:"path"`
	Digest    digest.Digest `json:"digest"`
}

// Manifest lists everything an extraction produced
type Manifest struct {
	PackageID string          `json:"package_id"`
	Package   string          `json:"package"`
	HeaderID  uint16          `json:"header_package_id"`
	Entries   []ManifestEntry `json:"entries"`

	mu sync.Mutex
}

func (m *Manifest) add(entry ManifestEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

// Marshal returns the manifest as indented JSON, entries sorted by index
func (m *Manifest) Marshal() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Index < m.Entries[j].Index
	})
	return json.MarshalIndent(m, "", "  ")
}

func newManifestEntry(index int, ref string, typ, subtype uint8, relPath string, data []byte) ManifestEntry {
	return ManifestEntry{
		Index:     index,
		Reference: ref,
		Type:      typ,
		Subtype:   subtype,
		Size:      uint32(len(data)),
		Path:      relPath,
		Digest:    digest.FromBytes(data),
	}
}
