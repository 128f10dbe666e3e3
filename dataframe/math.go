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

package dataframe

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Log computes the natural log of every column in dataframe df and returns a
// new dataframe
func (df *DataFrame) Log() *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] = math.Log(df.Vals[colIdx][rowIdx])
		}
	}

	return df
}

// Lag shifts every column in the dataframe down by n rows and returns a new
// dataframe. The leading n rows are filled with NaN. A value at row r of the
// lagged frame was observed at row r-n of the original; this is how a series
// of yesterday's prices is constructed.
func (df *DataFrame) Lag(n int) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		vals := df.Vals[colIdx]
		for rowIdx := len(vals) - 1; rowIdx >= 0; rowIdx-- {
			if rowIdx >= n {
				vals[rowIdx] = vals[rowIdx-n]
			} else {
				vals[rowIdx] = math.NaN()
			}
		}
	}

	return df
}

// Clamp limits every value in the dataframe to the range [lo, hi] and returns
// a new dataframe. NaN values pass through unchanged.
func (df *DataFrame) Clamp(lo, hi float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx, v := range df.Vals[colIdx] {
			switch {
			case math.IsNaN(v):
				// leave as-is
			case v < lo:
				df.Vals[colIdx][rowIdx] = lo
			case v > hi:
				df.Vals[colIdx][rowIdx] = hi
			}
		}
	}

	return df
}

// FillNA replaces every NaN value in the dataframe with v and returns a new
// dataframe
func (df *DataFrame) FillNA(v float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx, val := range df.Vals[colIdx] {
			if math.IsNaN(val) {
				df.Vals[colIdx][rowIdx] = v
			}
		}
	}

	return df
}

// RollingMean computes a rolling mean over each column with the given
// lookback and returns a new dataframe. The window at row r covers rows
// [r-lookback+1, r]; fewer rows are used while the window is still filling.
// NaN values inside the window are treated as missing. Rows where fewer than
// minPeriods observations are available are set to NaN.
func (df *DataFrame) RollingMean(lookback, minPeriods int) *DataFrame {
	if minPeriods < 1 {
		minPeriods = 1
	}

	res := df.Copy()
	for colIdx := range df.ColNames {
		vals := df.Vals[colIdx]
		for rowIdx := range vals {
			window := rollingWindow(vals, rowIdx, lookback)
			if len(window) < minPeriods {
				res.Vals[colIdx][rowIdx] = math.NaN()
				continue
			}
			res.Vals[colIdx][rowIdx] = floats.Sum(window) / float64(len(window))
		}
	}

	return res
}

// RollingStdDev computes a rolling sample standard deviation over each column
// with the given lookback and returns a new dataframe. Window semantics match
// RollingMean. A sample standard deviation needs at least two observations,
// so rows with fewer than max(minPeriods, 2) observations are set to NaN.
func (df *DataFrame) RollingStdDev(lookback, minPeriods int) *DataFrame {
	if minPeriods < 2 {
		minPeriods = 2
	}

	res := df.Copy()
	for colIdx := range df.ColNames {
		vals := df.Vals[colIdx]
		for rowIdx := range vals {
			window := rollingWindow(vals, rowIdx, lookback)
			if len(window) < minPeriods {
				res.Vals[colIdx][rowIdx] = math.NaN()
				continue
			}

			mean := floats.Sum(window) / float64(len(window))
			ssd := 0.0
			for _, v := range window {
				d := v - mean
				ssd += d * d
			}
			res.Vals[colIdx][rowIdx] = math.Sqrt(ssd / float64(len(window)-1))
		}
	}

	return res
}

// rollingWindow returns the non-NaN observations, in order, of the lookback
// window ending at row rowIdx
func rollingWindow(vals []float64, rowIdx, lookback int) []float64 {
	lo := rowIdx - lookback + 1
	if lo < 0 {
		lo = 0
	}

	window := make([]float64, 0, rowIdx-lo+1)
	for ii := lo; ii <= rowIdx; ii++ {
		if !math.IsNaN(vals[ii]) {
			window = append(window, vals[ii])
		}
	}

	return window
}

// Min returns the smallest non-NaN value in the named column
func (df *DataFrame) Min(colName string) float64 {
	return df.reduce(colName, math.Inf(1), math.Min)
}

// Max returns the largest non-NaN value in the named column
func (df *DataFrame) Max(colName string) float64 {
	return df.reduce(colName, math.Inf(-1), math.Max)
}

func (df *DataFrame) reduce(colName string, acc float64, fn func(a, b float64) float64) float64 {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return math.NaN()
	}

	for _, v := range df.Vals[colIdx] {
		if !math.IsNaN(v) {
			acc = fn(acc, v)
		}
	}

	return acc
}
