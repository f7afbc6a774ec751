// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/recommend"
)

func TestBadgerStore_Corruption(t *testing.T) {
	t.Parallel()

	store, err := OpenBadgerStore("", 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if _, err := store.Save(ctx, testSnapshot(3)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	err = store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(partKey(1, partModel), []byte("not gzip"))
	})
	if err != nil {
		t.Fatalf("overwrite model: %v", err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, recommend.ErrModelCorrupt) {
		t.Errorf("Load() error = %v, want ErrModelCorrupt", err)
	}
	insp := store.Inspect(ctx)
	if insp.Model != nil || !errors.Is(insp.ModelErr, recommend.ErrModelCorrupt) {
		t.Errorf("Inspect() model = %v, err = %v", insp.Model, insp.ModelErr)
	}
	if insp.Preferences == nil {
		t.Errorf("Inspect() preferences missing: %v", insp.PreferencesErr)
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadgerStore(dir, 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := store.Save(ctx, testSnapshot(4+i)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBadgerStore(dir, 2, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	snap, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Meta.Version != 3 || len(snap.Model.UserClusters) != 6 {
		t.Errorf("Load() version %d with %d users, want 3 and 6", snap.Meta.Version, len(snap.Model.UserClusters))
	}

	var versions []int64
	err = reopened.db.View(func(txn *badger.Txn) error {
		var err error
		versions, err = listVersions(txn)
		return err
	})
	if err != nil {
		t.Fatalf("listVersions() error = %v", err)
	}
	if len(versions) != 2 || versions[0] != 2 || versions[1] != 3 {
		t.Errorf("versions = %v, want [2 3]", versions)
	}
}
