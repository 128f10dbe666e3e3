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
 * Causal feature pipeline for the allocation engine. Every feature at row r
 * is computed from prices strictly before row r: series are lagged one day
 * before (momentum) or after (trend) the rolling statistics so that the
 * value for a given date is knowable before trading begins on that date.
 */

package indicators

import (
	"fmt"
	"math"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/dataframe"
)

const (
	// zScoreClamp bounds the influence of outliers on the momentum features
	zScoreClamp = 4.0

	// TrendLookback is the long-run trend window measured in days
	TrendLookback = 200

	// TrendMACol and TrendStdCol are the trend feature column names
	TrendMACol  = "trend_ma"
	TrendStdCol = "trend_std"
)

// MomentumWindows are the five lookback lengths, in days, of the momentum
// z-score features: monthly, quarterly, semi-annual, annual, and the 4-year
// halving cycle
var MomentumWindows = []int{30, 90, 180, 365, 1461}

// ZScoreCol returns the feature column name for the given window length
func ZScoreCol(window int) string {
	return fmt.Sprintf("z%d", window)
}

// Momentum computes one rolling z-score of log price per requested window
// length. Statistics use an expanding window until half the lookback is
// available; rows without enough history, and rows with zero variance,
// resolve to 0. Each z-score is clamped to ±4 and lagged one day.
func Momentum(window *data.PriceWindow, lookbacks []int) *dataframe.DataFrame {
	logPrice := window.DataFrame().Log()
	logVals := logPrice.Vals[0]

	features := &dataframe.DataFrame{
		Dates:    window.Dates,
		ColNames: make([]string, 0, len(lookbacks)),
		Vals:     make([][]float64, 0, len(lookbacks)),
	}

	for _, lookback := range lookbacks {
		mean := logPrice.RollingMean(lookback, lookback/2)
		std := logPrice.RollingStdDev(lookback, lookback/2)

		z := make([]float64, len(logVals))
		for rowIdx := range logVals {
			z[rowIdx] = (logVals[rowIdx] - mean.Vals[0][rowIdx]) / std.Vals[0][rowIdx]
		}

		features.AddCol(ZScoreCol(lookback), z)
	}

	return features.Clamp(-zScoreClamp, zScoreClamp).Lag(1).FillNA(0)
}

// Trend computes the long-run trend estimate used by the dip-boost
// allocator: a 200-day rolling mean and sample standard deviation of raw
// price, each over yesterday's and earlier prices only. The minimum period
// is one observation for the mean and two for the standard deviation, so
// early rows carry a noisy but still causal estimate; rows with no usable
// history are NaN.
func Trend(window *data.PriceWindow) *dataframe.DataFrame {
	past := window.DataFrame().Lag(1)

	mean := past.RollingMean(TrendLookback, 1)
	std := past.RollingStdDev(TrendLookback, 1)

	features := &dataframe.DataFrame{
		Dates:    window.Dates,
		ColNames: []string{TrendMACol, TrendStdCol},
		Vals:     [][]float64{mean.Vals[0], std.Vals[0]},
	}

	return features
}

// DipZScore measures how many standard deviations price sits below its
// long-run trend; 0 when price is at or above trend or the trend is
// undefined
func DipZScore(price, trendMA, trendStd float64) float64 {
	if math.IsNaN(trendMA) || math.IsNaN(trendStd) || trendStd <= 0 || price >= trendMA {
		return 0
	}
	return (trendMA - price) / trendStd
}
