// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
 * Dip-Boost Redistribution Allocator v1.0
 *
 * A reactive dollar-cost-averaging overlay: every day starts at the uniform
 * 1/N baseline, days where price sits measurably below the 200-day trend get
 * a boost proportional to the dip's z-score, and each boost is funded by
 * shaving an equal amount off future days in the back half of the window.
 * Boosts are all-or-nothing: if funding one would push any future day below
 * the minimum weight, the boost is skipped entirely.
 */

package dipboost

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/allocator"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/indicators"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/observability/opentelemetry"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"
)

// DefaultAlpha is the boost multiplier from the production configuration;
// higher values buy dips more aggressively
const DefaultAlpha = 1.25

var (
	ErrInvalidAlpha = errors.New("boost factor alpha must be positive")
)

// DipBoost allocator type
type DipBoost struct {
	alpha float64
}

// New constructs a new Dip-Boost allocator. The only argument is "alpha",
// the boost multiplier; it defaults to DefaultAlpha when absent.
func New(args map[string]json.RawMessage) (allocator.Allocator, error) {
	alpha := DefaultAlpha
	if raw, ok := args["alpha"]; ok {
		if err := json.Unmarshal(raw, &alpha); err != nil {
			return nil, err
		}
	}

	if alpha <= 0 {
		return nil, ErrInvalidAlpha
	}

	return &DipBoost{alpha: alpha}, nil
}

// Compute the per-day weight schedule for the price window. The schedule
// covers the same dates as the window, sums to 1.0 and keeps every day at or
// above the minimum weight.
func (db *DipBoost) Compute(ctx context.Context, window *data.PriceWindow) (*data.WeightSchedule, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "dipboost.Compute")
	defer span.End()

	totalDays := window.Len()
	span.SetAttributes(attribute.Int("window_days", totalDays))

	if totalDays == 0 {
		return &data.WeightSchedule{Dates: []time.Time{}, Weights: []float64{}}, nil
	}

	trend := indicators.Trend(window)
	trendMA := trend.Vals[0]
	trendStd := trend.Vals[1]

	// redistribution horizon: boosts are funded from the last half of the
	// window, never from days already spent
	horizon := totalDays / 2
	if horizon < 1 {
		horizon = 1
	}

	weights := make([]float64, totalDays)
	baseWeight := 1.0 / float64(totalDays)
	for idx := range weights {
		weights[idx] = baseWeight
	}

	boosts := 0
	skipped := 0

	for day := 0; day < totalDays; day++ {
		z := indicators.DipZScore(window.Prices[day], trendMA[day], trendStd[day])
		if z <= 0 {
			continue
		}

		boosted := weights[day] * (1 + db.alpha*z)
		excess := boosted - weights[day]

		// future days eligible to fund the boost
		start := totalDays - horizon
		if day+1 > start {
			start = day + 1
		}
		if start >= totalDays {
			continue
		}

		perDayReduction := excess / float64(totalDays-start)

		// the boost is applied only if every funding day stays at or above
		// the floor; partial boosts would distort the intended ratios
		safe := true
		for target := start; target < totalDays; target++ {
			if weights[target]-perDayReduction < allocator.MinWeight {
				safe = false
				break
			}
		}
		if !safe {
			skipped++
			continue
		}

		weights[day] = boosted
		for target := start; target < totalDays; target++ {
			weights[target] -= perDayReduction
		}
		boosts++
	}

	// guard against accumulated floating-point drift
	sum := floats.Sum(weights)
	if math.Abs(sum-1.0) > allocator.SumRelTol+allocator.SumAbsTol {
		floats.Scale(1.0/sum, weights)
	}

	log.Debug().
		Int("WindowDays", totalDays).
		Int("Boosts", boosts).
		Int("SkippedBoosts", skipped).
		Float64("Alpha", db.alpha).
		Msg("computed dip-boost schedule")

	return &data.WeightSchedule{Dates: window.Dates, Weights: weights}, nil
}
