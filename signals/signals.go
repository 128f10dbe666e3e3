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

// Package signals holds the read-only diagnostics surfaced alongside an
// allocation: per-day dip z-scores, signal-strength labels, and a coarse
// market-regime classification. Nothing here feeds back into the weight
// computation.
package signals

import (
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/dataframe"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/indicators"
	"gonum.org/v1/gonum/stat"
)

// Strength classifies a buy signal by its z-score magnitude
type Strength string

const (
	StrengthNone       Strength = "None"
	StrengthWeak       Strength = "Weak"
	StrengthModerate   Strength = "Moderate"
	StrengthStrong     Strength = "Strong"
	StrengthVeryStrong Strength = "Very Strong"
)

// SignalStrength buckets a dip z-score into a human-readable label
func SignalStrength(zScore float64) Strength {
	switch {
	case zScore >= 2.0:
		return StrengthVeryStrong
	case zScore >= 1.5:
		return StrengthStrong
	case zScore >= 1.0:
		return StrengthModerate
	case zScore >= 0.5:
		return StrengthWeak
	default:
		return StrengthNone
	}
}

// ZScores computes the per-day dip z-score series for a price window: the
// number of standard deviations each day's price sits below the 200-day
// trend, 0 when price is at or above trend
func ZScores(window *data.PriceWindow) *dataframe.DataFrame {
	trend := indicators.Trend(window)

	z := make([]float64, window.Len())
	for day := range z {
		z[day] = indicators.DipZScore(window.Prices[day], trend.Vals[0][day], trend.Vals[1][day])
	}

	return dataframe.New(window.Dates, "zscore", z)
}

// Regime labels for the market classification
type Regime string

const (
	RegimeBullLowVol   Regime = "Bull Market (Low Vol)"
	RegimeBullHighVol  Regime = "Bull Market (High Vol)"
	RegimeBearLowVol   Regime = "Bear Market (Low Vol)"
	RegimeBearHighVol  Regime = "Bear Market (High Vol)"
	RegimeSideways     Regime = "Sideways/Consolidation"
	RegimeInsufficient Regime = "Insufficient Data"
)

// regime classification thresholds: one percent mean daily return separates
// trending from sideways, three percent daily volatility separates calm
// from turbulent
const (
	regimeReturnThreshold = 0.01
	regimeVolThreshold    = 0.03
)

// ClassifyRegime labels the current market regime from the mean and
// volatility of daily returns over the trailing lookback days
func ClassifyRegime(window *data.PriceWindow, lookback int) Regime {
	if window.Len() < lookback {
		return RegimeInsufficient
	}

	recent := window.Prices[window.Len()-lookback:]
	returns := make([]float64, 0, lookback-1)
	for idx := 1; idx < len(recent); idx++ {
		returns = append(returns, recent[idx]/recent[idx-1]-1)
	}

	meanReturn := stat.Mean(returns, nil)
	volatility := stat.StdDev(returns, nil)

	switch {
	case meanReturn > regimeReturnThreshold && volatility < regimeVolThreshold:
		return RegimeBullLowVol
	case meanReturn > regimeReturnThreshold:
		return RegimeBullHighVol
	case meanReturn < -regimeReturnThreshold && volatility < regimeVolThreshold:
		return RegimeBearLowVol
	case meanReturn < -regimeReturnThreshold:
		return RegimeBearHighVol
	default:
		return RegimeSideways
	}
}

// BayesianUpdate folds a new observation into a Gaussian belief and returns
// the posterior mean and variance. As observations accumulate the variance
// shrinks and the mean converges toward the data.
func BayesianUpdate(priorMean, priorVar, observation, obsVar float64) (posteriorMean, posteriorVar float64) {
	posteriorVar = 1 / (1/priorVar + 1/obsVar)
	posteriorMean = posteriorVar * (priorMean/priorVar + observation/obsVar)
	return posteriorMean, posteriorVar
}
