// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/recommend"
)

// Supported backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Open returns the model store selected by cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg config.ModelStoreConfig, logger zerolog.Logger) (recommend.ModelStore, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Path, cfg.KeepVersions, logger)
	case BackendBadger:
		return OpenBadgerStore(cfg.Path, cfg.KeepVersions, logger)
	default:
		return nil, fmt.Errorf("unknown model store backend %q", cfg.Backend)
	}
}
