package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/stlalpha/gbbsmsg/internal/gbbs"
)

// ManifestFile is written next to the extracted messages.
const ManifestFile = "manifest.json"

// Item describes one written message file.
type Item struct {
	File       string     `json:"file"`
	Kind       string     `json:"kind"`
	Source     int        `json:"source"`
	Blocks     []int      `json:"blocks"`
	Recipient  *int       `json:"recipient,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	HasHeader  bool       `json:"hasHeader"`
	Diagnostic string     `json:"diagnostic,omitempty"`
}

// Manifest records one extraction run.
type Manifest struct {
	RunID     uuid.UUID `json:"runId"`
	Source    string    `json:"source,omitempty"`
	Format    string    `json:"format"`
	CreatedAt time.Time `json:"createdAt"`
	Items     []Item    `json:"items"`
}

// NewManifest starts a manifest with a fresh run ID.
func NewManifest(f gbbs.Format) *Manifest {
	return &Manifest{
		RunID:     uuid.New(),
		Format:    f.String(),
		CreatedAt: time.Now().UTC(),
	}
}

// Add records a written message.
func (m *Manifest) Add(file string, msg *gbbs.Message) {
	it := Item{
		File:       file,
		Kind:       msg.Kind.String(),
		Source:     msg.Source,
		Blocks:     msg.Blocks,
		HasHeader:  msg.HasHeader,
		Diagnostic: msg.Diagnostic,
	}
	if msg.Recipient != gbbs.NoRecipient {
		r := msg.Recipient
		it.Recipient = &r
	}
	if msg.HasDate() {
		d := msg.Date
		it.Date = &d
	}
	m.Items = append(m.Items, it)
}

// Save writes the manifest into dir.
func (m *Manifest) Save(dir string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), b, 0644)
}

// LoadManifest reads a manifest written by Save.
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
