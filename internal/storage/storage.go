package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kitchen-inventory/internal/inventory"
)

// SnapshotVersion is the format version written by Save.
const SnapshotVersion = 1

// ErrNoSnapshot is returned by Latest when the store is empty.
var ErrNoSnapshot = errors.New("no snapshot found")

const filePrefix = "inventory_"

// Snapshot is a full export of the inventory.
type Snapshot struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Items      []inventory.Item `json:"items"`
}

// SnapshotStore provides file-based storage for versioned inventory snapshots.
type SnapshotStore struct {
	basePath string
}

// NewSnapshotStore creates a new SnapshotStore and ensures the base directory exists.
func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &SnapshotStore{basePath: basePath}, nil
}

// sanitizeTimestamp makes the timestamp safe for filenames.
func sanitizeTimestamp(ts string) string {
	return strings.ReplaceAll(ts, ":", "-")
}

// getVersionedName returns the file name for a snapshot taken at ts.
func getVersionedName(ts time.Time) string {
	return filePrefix + sanitizeTimestamp(ts.UTC().Format("2006-01-02T15:04:05.000Z")) + ".json"
}

// Save writes a snapshot and returns its file name. A zero ExportedAt is
// set to the current time.
func (s *SnapshotStore) Save(snap Snapshot) (string, error) {
	if snap.ExportedAt.IsZero() {
		snap.ExportedAt = time.Now().UTC()
	}
	if snap.Version == 0 {
		snap.Version = SnapshotVersion
	}
	if snap.Items == nil {
		snap.Items = []inventory.Item{}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	name := getVersionedName(snap.ExportedAt)
	if err := os.WriteFile(filepath.Join(s.basePath, name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return name, nil
}

// Load reads the snapshot stored under name.
func (s *SnapshotStore) Load(name string) (Snapshot, error) {
	if filepath.Base(name) != name {
		return Snapshot{}, fmt.Errorf("invalid snapshot name %q", name)
	}
	return LoadFile(filepath.Join(s.basePath, name))
}

// Exists checks if a snapshot with the given name exists.
func (s *SnapshotStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.basePath, name))
	return !os.IsNotExist(err)
}

// List returns snapshot file names, newest first.
func (s *SnapshotStore) List() ([]string, error) {
	pattern := filepath.Join(s.basePath, filePrefix+"*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob snapshot files: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Latest loads the newest snapshot.
func (s *SnapshotStore) Latest() (Snapshot, string, error) {
	names, err := s.List()
	if err != nil {
		return Snapshot{}, "", err
	}
	if len(names) == 0 {
		return Snapshot{}, "", ErrNoSnapshot
	}
	snap, err := s.Load(names[0])
	if err != nil {
		return Snapshot{}, "", err
	}
	return snap, names[0], nil
}

// RemoveStaleVersions keeps the newest keep snapshots and removes the rest.
// It returns the number of files removed.
func (s *SnapshotStore) RemoveStaleVersions(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	names, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(names) <= keep {
		return 0, nil
	}

	removed := 0
	for _, name := range names[keep:] {
		if err := os.Remove(filepath.Join(s.basePath, name)); err != nil {
			return removed, fmt.Errorf("failed to remove stale file %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// LoadFile reads a snapshot from an arbitrary path.
func LoadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a snapshot document. A bare JSON array of items, as written
// by older exports, is accepted as well.
func Decode(r io.Reader) (Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []inventory.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Snapshot{}, fmt.Errorf("failed to unmarshal item list: %w", err)
		}
		return Snapshot{Version: SnapshotVersion, Items: items}, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}
