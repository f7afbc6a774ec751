// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/recommend"
)

// On-disk layout of a FileStore directory.
const (
	currentFile     = "CURRENT"
	modelFile       = "model.json.gz"
	preferencesFile = "preferences.json"
	metaFile        = "meta.json"
	versionPrefix   = "v"
	tempPrefix      = ".tmp-"
)

// loadAttempts bounds retries when a concurrent save moves CURRENT.
const loadAttempts = 3

// FileStore persists snapshots as versioned directories:
//
//	<dir>/v000003/model.json.gz
//	<dir>/v000003/preferences.json
//	<dir>/v000003/meta.json
//	<dir>/CURRENT               -> "v000003"
//
// A version directory is fully written under a temporary name and renamed
// into place before CURRENT is swapped, also by rename. Readers therefore
// observe either the previous snapshot or the new one in full.
type FileStore struct {
	dir    string
	keep   int
	now    func() time.Time
	logger zerolog.Logger

	// mu serializes writers.
	mu sync.Mutex
}

// NewFileStore opens or creates a store rooted at dir, keeping the newest
// keep versions. Leftovers of interrupted saves are removed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFileStore(dir string, keep int, logger zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("model store directory is required")
	}
	if keep < 1 {
		keep = 1
	}
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &FileStore{
		dir:    dir,
		keep:   keep,
		now:    time.Now,
		logger: logger.With().Str("component", "model_store").Str("backend", "file").Logger(),
	}
	s.removeTemps()
	return s, nil
}

// Save writes snap as the next version and makes it current.
func (s *FileStore) Save(ctx context.Context, snap *recommend.Snapshot) (*recommend.SnapshotMeta, error) {
	if err := checkSnapshot(snap); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.versions()
	if err != nil {
		return nil, err
	}
	next := int64(1)
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	model, checksum, err := encodeModel(snap.Model)
	if err != nil {
		return nil, err
	}
	prefs, err := encodePreferences(snap.Preferences)
	if err != nil {
		return nil, err
	}
	meta := newMeta(snap, next, checksum, s.now)
	metaData, err := encodeMeta(meta)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp(s.dir, tempPrefix)
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmp) //nolint:errcheck // best-effort cleanup of a failed save
		}
	}()

	for name, data := range map[string][]byte{
		modelFile:       model,
		preferencesFile: prefs,
		metaFile:        metaData,
	} {
		if err := writeFileSync(filepath.Join(tmp, name), data); err != nil {
			return nil, err
		}
	}

	name := versionName(next)
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		return nil, fmt.Errorf("publish version %s: %w", name, err)
	}
	committed = true

	if err := s.setCurrent(name); err != nil {
		return nil, err
	}

	s.prune(append(versions, next))

	s.logger.Info().
		Int64("version", next).
		Int("users", meta.Users).
		Int("clusters", meta.Clusters).
		Msg("snapshot saved")

	return meta, nil
}

// Load reads the current snapshot. If CURRENT moves while a version is
// being read and that version is pruned underneath the reader, the read is
// retried against the new version.
func (s *FileStore) Load(ctx context.Context) (*recommend.Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt < loadAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir, err := s.currentDir()
		if err != nil {
			return nil, err
		}
		snap, err := loadVersion(dir)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		if now, cerr := s.currentDir(); cerr != nil || now == dir {
			return nil, err
		}
	}
	return nil, lastErr
}

func loadVersion(dir string) (*recommend.Snapshot, error) {
	meta, err := readArtifact(dir, metaFile, decodeMeta)
	if err != nil {
		return nil, err
	}
	model, err := readArtifact(dir, modelFile, func(b []byte) (*recommend.ClusterModel, error) {
		return decodeModel(b, meta.ModelChecksum)
	})
	if err != nil {
		return nil, err
	}
	prefs, err := readArtifact(dir, preferencesFile, decodePreferences)
	if err != nil {
		return nil, err
	}
	return &recommend.Snapshot{Model: model, Preferences: prefs, Meta: *meta}, nil
}

// Inspect reads each artifact of the current snapshot independently.
func (s *FileStore) Inspect(ctx context.Context) *recommend.Inspection {
	insp := &recommend.Inspection{}
	if err := ctx.Err(); err != nil {
		insp.ModelErr, insp.PreferencesErr = err, err
		return insp
	}

	dir, err := s.currentDir()
	if err != nil {
		insp.ModelErr, insp.PreferencesErr = err, err
		return insp
	}

	checksum := ""
	if meta, err := readArtifact(dir, metaFile, decodeMeta); err == nil {
		insp.Meta = meta
		checksum = meta.ModelChecksum
	}
	insp.Model, insp.ModelErr = readArtifact(dir, modelFile, func(b []byte) (*recommend.ClusterModel, error) {
		return decodeModel(b, checksum)
	})
	insp.Preferences, insp.PreferencesErr = readArtifact(dir, preferencesFile, decodePreferences)
	return insp
}

// Close is a no-op; FileStore holds no open handles.
func (s *FileStore) Close() error {
	return nil
}

// Versions lists stored versions in ascending order.
func (s *FileStore) Versions() ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions()
}

// currentDir resolves CURRENT to a version directory.
func (s *FileStore) currentDir() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", recommend.ErrModelAbsent
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", currentFile, err)
	}

	name := strings.TrimSpace(string(data))
	if _, ok := parseVersionName(name); !ok {
		return "", corrupt("%s points at %q", currentFile, name)
	}
	return filepath.Join(s.dir, name), nil
}

// setCurrent atomically points CURRENT at a version directory.
func (s *FileStore) setCurrent(name string) error {
	tmp := filepath.Join(s.dir, tempPrefix+currentFile)
	if err := writeFileSync(tmp, []byte(name+"\n")); err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, currentFile)); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("swap %s: %w", currentFile, err)
	}
	return syncDir(s.dir)
}

func (s *FileStore) versions() ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}

	var versions []int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if v, ok := parseVersionName(entry.Name()); ok {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// prune removes all but the newest keep versions. versions must be sorted.
func (s *FileStore) prune(versions []int64) {
	if len(versions) <= s.keep {
		return
	}
	for _, v := range versions[:len(versions)-s.keep] {
		path := filepath.Join(s.dir, versionName(v))
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn().Err(err).Int64("version", v).Msg("failed to prune old snapshot")
		}
	}
}

func (s *FileStore) removeTemps() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), tempPrefix) {
			_ = os.RemoveAll(filepath.Join(s.dir, entry.Name())) //nolint:errcheck // best-effort cleanup
		}
	}
}

func versionName(v int64) string {
	return fmt.Sprintf("%s%06d", versionPrefix, v)
}

func parseVersionName(name string) (int64, bool) {
	if !strings.HasPrefix(name, versionPrefix) {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(name, versionPrefix), 10, 64)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// readArtifact reads and decodes one file of a version directory. A missing
// file inside an existing version is corruption, not absence.
func readArtifact[T any](dir, name string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	data, err := os.ReadFile(filepath.Join(dir, name)) //nolint:gosec // path is built from the store root
	if errors.Is(err, fs.ErrNotExist) {
		return zero, corrupt("%s missing from %s", name, filepath.Base(dir))
	}
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", name, err)
	}
	return decode(data)
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640) //nolint:gosec // path is built from the store root
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // dir is the store root
	if err != nil {
		return fmt.Errorf("open storage directory: %w", err)
	}
	defer func() { _ = d.Close() }() //nolint:errcheck // read-only handle
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return fmt.Errorf("sync storage directory: %w", err)
	}
	return nil
}
