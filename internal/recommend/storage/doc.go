// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package storage persists trained cluster snapshots.
//
// A snapshot is a ClusterModel plus the PreferenceTable derived from it in
// the same training run. Both backends implement recommend.ModelStore and
// guarantee that a reader sees either the previous snapshot or the new one,
// never a mix.
//
// # Backends
//
//   - FileStore writes each version to its own directory and publishes it by
//     renaming a CURRENT pointer file.
//   - BadgerStore writes every artifact and the pointer in one BadgerDB
//     transaction.
//
// # Encoding
//
// Models are JSON, gzip-compressed, with a SHA-256 checksum of the
// uncompressed bytes recorded in the snapshot metadata. Preferences and
// metadata are plain JSON.
//
// # Errors
//
// Load returns recommend.ErrModelAbsent when nothing was ever saved and an
// error wrapping recommend.ErrModelCorrupt when stored bytes cannot be
// decoded or fail verification. Callers treat both as "no model".
//
// # Usage
//
//	store, err := storage.Open(cfg.ModelStore, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	meta, err := store.Save(ctx, snapshot)
package storage
