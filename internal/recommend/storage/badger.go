// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/recommend"
)

// Badger key layout. Version numbers are big-endian so keys sort by version.
const (
	badgerCurrentKey    = "snapshot:current"
	badgerVersionPrefix = "snapshot:v:"
)

const (
	partModel       = "model"
	partPreferences = "preferences"
	partMeta        = "meta"
)

// BadgerStore persists snapshots in BadgerDB. A save writes every artifact
// and the current pointer in a single transaction.
type BadgerStore struct {
	db     *badger.DB
	keep   int
	now    func() time.Time
	logger zerolog.Logger

	// mu serializes writers so concurrent saves never conflict.
	mu sync.Mutex
}

// OpenBadgerStore opens a BadgerDB at path. An empty path opens an
// in-memory database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadgerStore(path string, keep int, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for models: %w", err)
	}
	return NewBadgerStore(db, keep, logger), nil
}

// NewBadgerStore wraps an open database. Close closes db.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStore(db *badger.DB, keep int, logger zerolog.Logger) *BadgerStore {
	if keep < 1 {
		keep = 1
	}
	return &BadgerStore{
		db:     db,
		keep:   keep,
		now:    time.Now,
		logger: logger.With().Str("component", "model_store").Str("backend", "badger").Logger(),
	}
}

// Save writes snap as the next version and makes it current.
func (s *BadgerStore) Save(ctx context.Context, snap *recommend.Snapshot) (*recommend.SnapshotMeta, error) {
	if err := checkSnapshot(snap); err != nil {
		return nil, err
	}

	model, checksum, err := encodeModel(snap.Model)
	if err != nil {
		return nil, err
	}
	prefs, err := encodePreferences(snap.Preferences)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var meta *recommend.SnapshotMeta
	err = s.db.Update(func(txn *badger.Txn) error {
		versions, err := listVersions(txn)
		if err != nil {
			return err
		}
		next := int64(1)
		if len(versions) > 0 {
			next = versions[len(versions)-1] + 1
		}

		meta = newMeta(snap, next, checksum, s.now)
		metaData, err := encodeMeta(meta)
		if err != nil {
			return err
		}

		for part, data := range map[string][]byte{
			partModel:       model,
			partPreferences: prefs,
			partMeta:        metaData,
		} {
			if err := txn.Set(partKey(next, part), data); err != nil {
				return fmt.Errorf("set %s: %w", part, err)
			}
		}
		if err := txn.Set([]byte(badgerCurrentKey), encodeVersion(next)); err != nil {
			return fmt.Errorf("set current: %w", err)
		}

		versions = append(versions, next)
		if len(versions) > s.keep {
			for _, v := range versions[:len(versions)-s.keep] {
				for _, part := range []string{partModel, partPreferences, partMeta} {
					if err := txn.Delete(partKey(v, part)); err != nil {
						return fmt.Errorf("prune version %d: %w", v, err)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Info().
		Int64("version", meta.Version).
		Int("users", meta.Users).
		Int("clusters", meta.Clusters).
		Msg("snapshot saved")

	return meta, nil
}

// Load reads the current snapshot.
func (s *BadgerStore) Load(ctx context.Context) (*recommend.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap *recommend.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		version, err := currentVersion(txn)
		if err != nil {
			return err
		}

		meta, err := readPart(txn, version, partMeta, decodeMeta)
		if err != nil {
			return err
		}
		model, err := readPart(txn, version, partModel, func(b []byte) (*recommend.ClusterModel, error) {
			return decodeModel(b, meta.ModelChecksum)
		})
		if err != nil {
			return err
		}
		prefs, err := readPart(txn, version, partPreferences, decodePreferences)
		if err != nil {
			return err
		}

		snap = &recommend.Snapshot{Model: model, Preferences: prefs, Meta: *meta}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Inspect reads each artifact of the current snapshot independently.
func (s *BadgerStore) Inspect(ctx context.Context) *recommend.Inspection {
	insp := &recommend.Inspection{}
	if err := ctx.Err(); err != nil {
		insp.ModelErr, insp.PreferencesErr = err, err
		return insp
	}

	err := s.db.View(func(txn *badger.Txn) error {
		version, err := currentVersion(txn)
		if err != nil {
			return err
		}

		checksum := ""
		if meta, err := readPart(txn, version, partMeta, decodeMeta); err == nil {
			insp.Meta = meta
			checksum = meta.ModelChecksum
		}
		insp.Model, insp.ModelErr = readPart(txn, version, partModel, func(b []byte) (*recommend.ClusterModel, error) {
			return decodeModel(b, checksum)
		})
		insp.Preferences, insp.PreferencesErr = readPart(txn, version, partPreferences, decodePreferences)
		return nil
	})
	if err != nil {
		insp.ModelErr, insp.PreferencesErr = err, err
	}
	return insp
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func currentVersion(txn *badger.Txn) (int64, error) {
	item, err := txn.Get([]byte(badgerCurrentKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, recommend.ErrModelAbsent
	}
	if err != nil {
		return 0, fmt.Errorf("get current: %w", err)
	}

	var version int64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return corrupt("current pointer has %d bytes", len(val))
		}
		version = int64(binary.BigEndian.Uint64(val)) //nolint:gosec // written by encodeVersion
		return nil
	})
	return version, err
}

// listVersions returns the versions that have metadata, ascending.
func listVersions(txn *badger.Txn) ([]int64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(badgerVersionPrefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var versions []int64
	prefix := []byte(badgerVersionPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().Key()
		rest := key[len(prefix):]
		if len(rest) < 9 || string(rest[9:]) != partMeta {
			continue
		}
		versions = append(versions, int64(binary.BigEndian.Uint64(rest[:8]))) //nolint:gosec // written by encodeVersion
	}
	return versions, nil
}

func readPart[T any](txn *badger.Txn, version int64, part string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	item, err := txn.Get(partKey(version, part))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return zero, corrupt("%s missing from version %d", part, version)
	}
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", part, err)
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", part, err)
	}
	return decode(data)
}

// partKey is prefix + 8-byte version + ":" + part.
func partKey(version int64, part string) []byte {
	key := make([]byte, 0, len(badgerVersionPrefix)+9+len(part))
	key = append(key, badgerVersionPrefix...)
	key = append(key, encodeVersion(version)...)
	key = append(key, ':')
	return append(key, part...)
}

func encodeVersion(v int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(v)) //nolint:gosec // versions are positive
	return buf
}
