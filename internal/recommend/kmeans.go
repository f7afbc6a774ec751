// Marquee - Event Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// FitScaler computes per-column mean and population standard deviation.
// Constant columns get a scale of 1 so they standardize to zero.
func FitScaler(rows [][]float64) Scaler {
	if len(rows) == 0 {
		return Scaler{}
	}
	dims := len(rows[0])
	n := float64(len(rows))

	mean := make([]float64, dims)
	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, dims)
	for _, row := range rows {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		s := math.Sqrt(scale[j] / n)
		if s < 1e-12 {
			s = 1
		}
		scale[j] = s
	}

	return Scaler{Mean: mean, Scale: scale}
}

// Transform standardizes rows into a new matrix.
func (s Scaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		z := make([]float64, len(row))
		for j, v := range row {
			z[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = z
	}
	return out
}

// KMeansConfig configures a k-means fit.
type KMeansConfig struct {
	K             int
	MaxIterations int
	NInit         int
	Tolerance     float64
	Seed          int64
}

// KMeansResult is the best of NInit k-means runs.
type KMeansResult struct {
	Centroids  [][]float64
	Labels     []int
	Inertia    float64
	Iterations int
}

// KMeans partitions points into cfg.K clusters with k-means++ seeding and
// Lloyd iterations. The same points and seed always produce the same labels.
// The context is checked between iterations.
func KMeans(ctx context.Context, points [][]float64, cfg KMeansConfig) (*KMeansResult, error) {
	if cfg.K < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", cfg.K)
	}
	if len(points) < cfg.K {
		return nil, fmt.Errorf("k (%d) exceeds number of points (%d)", cfg.K, len(points))
	}
	dims := len(points[0])
	for i, p := range points {
		if len(p) != dims {
			return nil, fmt.Errorf("point %d has %d dimensions, want %d", i, len(p), dims)
		}
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 300
	}
	if cfg.NInit < 1 {
		cfg.NInit = 1
	}

	tol := cfg.Tolerance * meanVariance(points)
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // deterministic seeding, not security sensitive

	var best *KMeansResult
	for run := 0; run < cfg.NInit; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := lloyd(ctx, points, seedPlusPlus(points, cfg.K, rng), cfg.MaxIterations, tol)
		if err != nil {
			return nil, err
		}
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

// seedPlusPlus picks initial centroids with the k-means++ rule.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVec(points[rng.Intn(len(points))]))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := 0.0
		for _, d := range dist {
			total += d
		}

		next := rng.Intn(len(points))
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}

		c := cloneVec(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

func lloyd(ctx context.Context, points, centroids [][]float64, maxIter int, tol float64) (*KMeansResult, error) {
	k := len(centroids)
	dims := len(points[0])
	labels := make([]int, len(points))

	iter := 0
	for iter < maxIter {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iter++

		assign(points, centroids, labels)

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for j, v := range p {
				sums[c][j] += v
			}
		}

		next := make([][]float64, k)
		for c := range next {
			if counts[c] == 0 {
				continue
			}
			next[c] = make([]float64, dims)
			for j := range sums[c] {
				next[c][j] = sums[c][j] / float64(counts[c])
			}
		}
		relocateEmpty(points, centroids, labels, next)

		shift := 0.0
		for c := range next {
			shift += sqDist(next[c], centroids[c])
		}
		centroids = next
		if shift <= tol {
			break
		}
	}

	inertia := assign(points, centroids, labels)
	return &KMeansResult{Centroids: centroids, Labels: labels, Inertia: inertia, Iterations: iter}, nil
}

// relocateEmpty moves each empty cluster onto the point farthest from its
// current centroid.
func relocateEmpty(points, old [][]float64, labels []int, next [][]float64) {
	taken := make(map[int]bool)
	for c := range next {
		if next[c] != nil {
			continue
		}
		far, farDist := -1, -1.0
		for i, p := range points {
			if taken[i] {
				continue
			}
			if d := sqDist(p, old[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			next[c] = cloneVec(old[c])
			continue
		}
		taken[far] = true
		next[c] = cloneVec(points[far])
	}
}

// assign labels every point with its nearest centroid (lowest index on
// ties) and returns the inertia.
func assign(points, centroids [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
		inertia += bestDist
	}
	return inertia
}

func meanVariance(points [][]float64) float64 {
	dims := len(points[0])
	n := float64(len(points))
	total := 0.0
	for j := 0; j < dims; j++ {
		mean := 0.0
		for _, p := range points {
			mean += p[j]
		}
		mean /= n
		v := 0.0
		for _, p := range points {
			d := p[j] - mean
			v += d * d
		}
		total += v / n
	}
	if dims == 0 {
		return 0
	}
	return total / float64(dims)
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
