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
 * Two-Layer Strategic/Tactical Allocator v1.0
 *
 * A 23-parameter accumulation model. The strategic layer reads the five
 * momentum z-scores on the first day of the window and mixes three Beta
 * distribution archetypes (front-loaded, flat, back-loaded) into a baseline
 * spending curve for the whole window. The tactical layer then tilts each
 * individual day by an exponential function of that day's own z-scores.
 * A strict left-to-right drain normalizer turns the raw allocation into a
 * weight schedule that honors the minimum-weight floor and sums to 1.
 */

package twolayer

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/allocator"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/dataframe"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/indicators"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/observability/opentelemetry"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// ThetaLen is the total parameter count: an 18-value strategic matrix
	// (3 archetypes x [bias + 5 z-scores]) followed by a 5-value tactical
	// vector
	ThetaLen = 23

	strategicRows = 3
	strategicCols = 6

	// MinViableDays is the practical floor below which rolling statistics
	// are too ill-conditioned to act on; shorter windows fall back to
	// uniform weights
	MinViableDays = 50
)

// DefaultTheta holds the optimized parameters from the final model run
var DefaultTheta = [ThetaLen]float64{
	1.3507, 1.073, -1.226, 2.5141, 2.9946, -0.4083, -0.1082, -0.6809,
	0.3465, -0.6804, -2.9974, -2.9991, -1.2658, -0.368, 0.7567, -1.9627,
	-1.9124, 2.9983, 0.5704, 0.0, 0.8669, 1.2546, 5.0,
}

// prototypes are the three Beta-distribution spending archetypes the
// strategic layer mixes: front-loaded, flat, and back-loaded
var prototypes = [3]distuv.Beta{
	{Alpha: 0.5, Beta: 5.0},
	{Alpha: 1.0, Beta: 1.0},
	{Alpha: 5.0, Beta: 0.5},
}

var (
	ErrThetaLen = errors.New("theta must have exactly 23 values")
)

// TwoLayer allocator type
type TwoLayer struct {
	theta [ThetaLen]float64
}

// New constructs a new two-layer allocator. The only argument is "theta",
// an array of 23 model coefficients; it defaults to DefaultTheta when
// absent.
func New(args map[string]json.RawMessage) (allocator.Allocator, error) {
	theta := DefaultTheta
	if raw, ok := args["theta"]; ok {
		var vals []float64
		if err := json.Unmarshal(raw, &vals); err != nil {
			return nil, err
		}
		if len(vals) != ThetaLen {
			return nil, ErrThetaLen
		}
		copy(theta[:], vals)
	}

	return &TwoLayer{theta: theta}, nil
}

// Compute the per-day weight schedule for the price window. Windows shorter
// than MinViableDays get uniform weights.
func (tl *TwoLayer) Compute(ctx context.Context, window *data.PriceWindow) (*data.WeightSchedule, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "twolayer.Compute")
	defer span.End()

	totalDays := window.Len()
	span.SetAttributes(attribute.Int("window_days", totalDays))

	if totalDays == 0 {
		return &data.WeightSchedule{Dates: []time.Time{}, Weights: []float64{}}, nil
	}

	if totalDays < MinViableDays {
		log.Debug().Int("WindowDays", totalDays).Msg("window too short for momentum features, using uniform weights")
		return allocator.Uniform(window), nil
	}

	features := indicators.Momentum(window, indicators.MomentumWindows)

	// strategic layer: annual shape from the first day's signals
	mix := tl.strategicMix(features)

	// baseline curve from the mixed Beta archetypes
	base := baselineCurve(totalDays, mix)

	// tactical layer: per-day multiplicative tilt
	raw := make([]float64, totalDays)
	betaVec := tl.theta[strategicRows*strategicCols:]
	for day := 0; day < totalDays; day++ {
		dot := 0.0
		for k := range betaVec {
			dot += features.Vals[k][day] * betaVec[k]
		}
		raw[day] = base[day] * math.Exp(-dot)
	}

	weights := drain(raw)

	return &data.WeightSchedule{Dates: window.Dates, Weights: weights}, nil
}

// strategicMix multiplies the day-0 feature vector (with a leading bias
// term) through the strategic coefficient matrix and softmaxes the three
// scores into a mixture weight
func (tl *TwoLayer) strategicMix(features *dataframe.DataFrame) [strategicRows]float64 {
	x := [strategicCols]float64{1.0}
	for k := 0; k < strategicCols-1; k++ {
		x[k+1] = features.Vals[k][0]
	}

	var scores [strategicRows]float64
	for row := 0; row < strategicRows; row++ {
		for col := 0; col < strategicCols; col++ {
			scores[row] += tl.theta[row*strategicCols+col] * x[col]
		}
	}

	return softmax(scores)
}

// softmax converts scores into a probability distribution; the max is
// subtracted first for numerical stability
func softmax(scores [strategicRows]float64) [strategicRows]float64 {
	mx := math.Max(scores[0], math.Max(scores[1], scores[2]))

	var ex [strategicRows]float64
	sum := 0.0
	for idx, s := range scores {
		ex[idx] = math.Exp(s - mx)
		sum += ex[idx]
	}
	for idx := range ex {
		ex[idx] /= sum
	}

	return ex
}

// baselineCurve evaluates the mixed Beta density at the midpoint of each of
// the n day-slots and scales to a per-day allocation. Strictly positive and
// sums to roughly 1 by construction.
func baselineCurve(n int, mix [strategicRows]float64) []float64 {
	base := make([]float64, n)
	for idx := range base {
		t := (float64(idx) + 0.5) / float64(n)
		base[idx] = (mix[0]*prototypes[0].Prob(t) +
			mix[1]*prototypes[1].Prob(t) +
			mix[2]*prototypes[2].Prob(t)) / float64(n)
	}
	return base
}

// drain is the strict left-to-right normalizer: every day is seeded with the
// minimum weight, then the remaining budget is handed out in date order in
// proportion to each day's share of the remaining baseline mass. Once a
// day's weight is fixed it is never touched again.
func drain(raw []float64) []float64 {
	n := len(raw)

	for idx, v := range raw {
		if v < 0 || math.IsNaN(v) {
			raw[idx] = 0
		}
	}
	if floats.Sum(raw) == 0 {
		// no signal at all: fall back to an equal-share baseline
		for idx := range raw {
			raw[idx] = 1.0
		}
	}

	baseline := make([]float64, n)
	rawSum := floats.Sum(raw)
	for idx, v := range raw {
		baseline[idx] = v / rawSum
	}

	weights := make([]float64, n)
	for idx := range weights {
		weights[idx] = allocator.MinWeight
	}

	remaining := 1.0 - allocator.MinWeight*float64(n)
	remainingMass := floats.Sum(baseline)

	for day := 0; day < n; day++ {
		share := 0.0
		if remainingMass != 0 {
			share = (baseline[day] / remainingMass) * remaining
		}
		weights[day] += share
		remaining -= share
		remainingMass -= baseline[day]
	}

	// numerical safety: the sum may drift by small amounts
	floats.Scale(1.0/floats.Sum(weights), weights)

	return weights
}
