package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperast/hyperast-go/pkg/alg/mapx"
)

// MetadataVersion is the current checkpoint metadata format version.
const MetadataVersion = 1

// Sentinel errors for checkpoint validation.
var (
	ErrDocumentMismatch  = errors.New("document hash mismatch")
	ErrComponentMismatch = errors.New("component set mismatch")
)

// DefaultDir returns the default checkpoint directory (~/.hyperast/checkpoints).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".hyperast", "checkpoints")
}

// DocumentHash computes a short content hash of a document's bytes, used as
// the checkpoint directory name so re-ingesting the same document resumes
// the same checkpoint.
func DocumentHash(data []byte) string {
	h := sha256.Sum256(data)

	return hex.EncodeToString(h[:8]) // First 8 bytes = 16 hex chars.
}

// Default retention values.
const (
	DefaultMaxAge  = 7 * 24 * time.Hour // 7 days.
	DefaultMaxSize = 1 << 30            // 1GB.
)

// Directory and file permissions for checkpoints.
const dirPerm = 0o750

// Manager coordinates checkpoints for a single document hash across one or
// more [Checkpointable] components.
type Manager struct {
	BaseDir      string
	DocumentHash string
	MaxAge       time.Duration
	MaxSize      int64
}

// NewManager creates a new checkpoint manager.
func NewManager(baseDir, documentHash string) *Manager {
	return &Manager{
		BaseDir:      baseDir,
		DocumentHash: documentHash,
		MaxAge:       DefaultMaxAge,
		MaxSize:      DefaultMaxSize,
	}
}

// CheckpointDir returns the directory for this document's checkpoint.
func (m *Manager) CheckpointDir() string {
	return filepath.Join(m.BaseDir, m.DocumentHash)
}

// MetadataPath returns the path to the metadata file.
func (m *Manager) MetadataPath() string {
	return filepath.Join(m.CheckpointDir(), "checkpoint.json")
}

// Exists returns true if a valid checkpoint exists.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.MetadataPath())

	return err == nil
}

// Clear removes the checkpoint for the current document.
func (m *Manager) Clear() error {
	cpDir := m.CheckpointDir()

	_, statErr := os.Stat(cpDir)
	if os.IsNotExist(statErr) {
		return nil
	}

	err := os.RemoveAll(cpDir)
	if err != nil {
		return fmt.Errorf("remove checkpoint dir: %w", err)
	}

	return nil
}

// Save creates a checkpoint for every named component, recording a sha256
// checksum of each component's saved payload alongside ingest progress.
func (m *Manager) Save(components map[string]Checkpointable, state IngestState) error {
	cpDir := m.CheckpointDir()

	if err := os.MkdirAll(cpDir, dirPerm); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	checksums := make(map[string]string, len(components))

	for _, name := range mapx.SortedKeys(components) {
		componentDir := filepath.Join(cpDir, name)

		if err := os.MkdirAll(componentDir, dirPerm); err != nil {
			return fmt.Errorf("create component dir %s: %w", name, err)
		}

		if err := components[name].SaveCheckpoint(componentDir); err != nil {
			return fmt.Errorf("save checkpoint for %s: %w", name, err)
		}

		checksum, err := hashDir(componentDir)
		if err != nil {
			return fmt.Errorf("checksum %s: %w", name, err)
		}

		checksums[name] = checksum
	}

	meta := Metadata{
		Version:      MetadataVersion,
		DocumentHash: m.DocumentHash,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		Components:   mapx.SortedKeys(components),
		IngestState:  state,
		Checksums:    checksums,
	}

	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := os.WriteFile(m.MetadataPath(), metaData, 0o600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	return nil
}

// LoadMetadata loads the checkpoint metadata.
func (m *Manager) LoadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(m.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta Metadata

	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// Load restores state for every named component and verifies each one's
// checksum still matches what Save recorded.
func (m *Manager) Load(components map[string]Checkpointable) (*IngestState, error) {
	meta, err := m.LoadMetadata()
	if err != nil {
		return nil, err
	}

	cpDir := m.CheckpointDir()

	for _, name := range mapx.SortedKeys(components) {
		componentDir := filepath.Join(cpDir, name)

		want, ok := meta.Checksums[name]
		if ok {
			got, err := hashDir(componentDir)
			if err != nil {
				return nil, fmt.Errorf("checksum %s: %w", name, err)
			}

			if got != want {
				return nil, fmt.Errorf("%w: component %s has %s, want %s", ErrComponentMismatch, name, got, want)
			}
		}

		if err := components[name].LoadCheckpoint(componentDir); err != nil {
			return nil, fmt.Errorf("load checkpoint for %s: %w", name, err)
		}
	}

	return &meta.IngestState, nil
}

// Validate checks that the checkpoint matches the expected document and
// component set before a caller attempts Load.
func (m *Manager) Validate(documentHash string, componentNames []string) error {
	meta, err := m.LoadMetadata()
	if err != nil {
		return err
	}

	if meta.DocumentHash != documentHash {
		return fmt.Errorf("%w: checkpoint has %q, got %q", ErrDocumentMismatch, meta.DocumentHash, documentHash)
	}

	if !stringSlicesEqual(meta.Components, componentNames) {
		return fmt.Errorf("%w: checkpoint has %v, got %v", ErrComponentMismatch, meta.Components, componentNames)
	}

	return nil
}

// hashDir computes a stable sha256 checksum over every regular file
// directly within dir, sorted by name so the result doesn't depend on
// directory-read order.
func hashDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}

	byName := make(map[string][]byte, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name())) //nolint:gosec // dir is Manager-controlled.
		if err != nil {
			return "", fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		byName[entry.Name()] = data
	}

	h := sha256.New()

	for _, name := range mapx.SortedKeys(byName) {
		h.Write([]byte(name))
		h.Write(byName[name])
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// stringSlicesEqual compares two string slices for equality.
func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
