// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"fmt"

	"github.com/tomtom215/marquee/internal/catalog"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/recommend/storage"
)

// RecommendComponents holds the engine collaborators built from config.
type RecommendComponents struct {
	Config  *recommend.Config
	Catalog *catalog.Resolver
	Models  recommend.ModelStore
}

// initRecommend builds the catalog resolver and opens the model store.
// The caller owns Models and must close it.
func initRecommend(cfg *config.Config) (*RecommendComponents, error) {
	engineCfg := buildEngineConfig(&cfg.Recommend)
	if err := engineCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommendation config: %w", err)
	}

	resolver, err := buildCatalog(&cfg.Catalog)
	if err != nil {
		return nil, err
	}

	models, err := storage.Open(cfg.ModelStore, logging.WithComponent("model_store"))
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}

	logging.Info().
		Str("backend", cfg.ModelStore.Backend).
		Str("path", cfg.ModelStore.Path).
		Int("keep_versions", cfg.ModelStore.KeepVersions).
		Int64("seed", engineCfg.Seed).
		Int("min_users", engineCfg.MinUsers).
		Dur("train_interval", cfg.Recommend.TrainInterval).
		Bool("train_on_startup", cfg.Recommend.TrainOnStartup).
		Msg("Recommendation engine configured")

	return &RecommendComponents{Config: engineCfg, Catalog: resolver, Models: models}, nil
}

// newEngine creates the engine over the given interaction store.
func (c *RecommendComponents) newEngine(interactions recommend.InteractionStore) (*recommend.Engine, error) {
	engine, err := recommend.NewEngine(c.Config, recommend.Dependencies{
		Interactions: interactions,
		Catalog:      c.Catalog,
		Models:       c.Models,
		Observer:     metrics.RecommendObserver{},
	}, logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}
	return engine, nil
}

// buildEngineConfig maps the recommend config section onto engine
// settings. Unset values keep the engine defaults.
func buildEngineConfig(rc *config.RecommendConfig) *recommend.Config {
	c := recommend.DefaultConfig()
	c.Seed = rc.Seed
	setIfPositive(&c.MinUsers, rc.MinUsers)
	setIfPositive(&c.MinClusters, rc.MinClusters)
	setIfPositive(&c.MaxClusters, rc.MaxClusters)
	setIfPositive(&c.MaxIterations, rc.MaxIterations)
	setIfPositive(&c.NInit, rc.NInit)
	setIfPositive(&c.TrainingWindow, rc.TrainingWindow)
	setIfPositive(&c.SeenWindow, rc.SeenWindow)
	setIfPositive(&c.TrendingWindow, rc.TrendingWindow)
	setIfPositive(&c.DefaultLimit, rc.DefaultLimit)
	setIfPositive(&c.MaxLimit, rc.MaxLimit)
	return c
}

func setIfPositive[T ~int | ~int64](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

// buildCatalog returns a resolver over the live catalog, or over the
// fallback catalog alone when no URL is configured.
func buildCatalog(cc *config.CatalogConfig) (*catalog.Resolver, error) {
	fallback, err := catalog.FallbackEvents(cc.FallbackEvents)
	if err != nil {
		return nil, fmt.Errorf("build fallback catalog: %w", err)
	}

	logger := logging.WithComponent("catalog")
	var source catalog.Source
	if cc.URL != "" {
		source = catalog.NewHTTPSource(cc, logger)
	} else {
		logger.Warn().Int("fallback_events", len(fallback)).Msg("CATALOG_URL not set, serving the fallback catalog only")
	}

	return catalog.NewResolver(source, fallback, cc.Timeout, logger).EnableCache(cc.CacheTTL), nil
}
