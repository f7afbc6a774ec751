// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/recommend"
)

// maxModelBytes bounds the decompressed size of a stored model.
const maxModelBytes = 256 << 20

// corrupt builds an error that matches recommend.ErrModelCorrupt.
func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", recommend.ErrModelCorrupt, fmt.Sprintf(format, args...))
}

// encodeModel serializes a model as gzip-compressed JSON and returns the
// compressed blob with the SHA-256 of the uncompressed encoding.
func encodeModel(m *recommend.ClusterModel) (blob []byte, checksum string, err error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, "", fmt.Errorf("encode model: %w", err)
	}

	sum := sha256.Sum256(raw)
	checksum = hex.EncodeToString(sum[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return nil, "", fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize compression: %w", err)
	}

	return compressed.Bytes(), checksum, nil
}

// decodeModel reverses encodeModel. An empty checksum skips verification.
func decodeModel(blob []byte, checksum string) (*recommend.ClusterModel, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, corrupt("decompress model: %v", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(io.LimitReader(gzr, maxModelBytes))
	if err != nil {
		return nil, corrupt("read decompressed model: %v", err)
	}

	if checksum != "" {
		sum := sha256.Sum256(raw)
		if got := hex.EncodeToString(sum[:]); got != checksum {
			return nil, corrupt("checksum mismatch: expected %s, got %s", checksum, got)
		}
	}

	var m recommend.ClusterModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, corrupt("decode model: %v", err)
	}
	if err := validateModel(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// validateModel rejects decodable but unusable models.
func validateModel(m *recommend.ClusterModel) error {
	if m.K < 1 {
		return corrupt("model has %d clusters", m.K)
	}
	for user, c := range m.UserClusters {
		if c < 0 || c >= m.K {
			return corrupt("user %d assigned to cluster %d outside [0, %d)", user, c, m.K)
		}
	}
	return nil
}

func encodePreferences(p recommend.PreferenceTable) ([]byte, error) {
	if p == nil {
		p = recommend.PreferenceTable{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	return data, nil
}

func decodePreferences(data []byte) (recommend.PreferenceTable, error) {
	var p recommend.PreferenceTable
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, corrupt("decode preferences: %v", err)
	}
	if p == nil {
		return nil, corrupt("preferences are null")
	}
	return p, nil
}

func encodeMeta(m *recommend.SnapshotMeta) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}

func decodeMeta(data []byte) (*recommend.SnapshotMeta, error) {
	var m recommend.SnapshotMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, corrupt("decode metadata: %v", err)
	}
	if m.Version < 1 {
		return nil, corrupt("metadata version %d", m.Version)
	}
	return &m, nil
}

// newMeta describes snap as the given version.
func newMeta(snap *recommend.Snapshot, version int64, checksum string, now func() time.Time) *recommend.SnapshotMeta {
	return &recommend.SnapshotMeta{
		Version:       version,
		SavedAt:       now().UTC(),
		Users:         len(snap.Model.UserClusters),
		Clusters:      snap.Model.K,
		ModelChecksum: checksum,
	}
}

// checkSnapshot rejects snapshots that cannot be persisted.
func checkSnapshot(snap *recommend.Snapshot) error {
	if snap == nil || snap.Model == nil {
		return fmt.Errorf("save snapshot: model is required")
	}
	if snap.Model.K < 1 {
		return fmt.Errorf("save snapshot: model has %d clusters", snap.Model.K)
	}
	return nil
}
