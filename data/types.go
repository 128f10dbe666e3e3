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

package data

import (
	"errors"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/common"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/dataframe"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptyWindow       = errors.New("price window is empty")
	ErrNonPositivePrice  = errors.New("price window contains a non-positive price")
	ErrDatesOutOfOrder   = errors.New("price window dates are not strictly increasing")
	ErrLengthMismatch    = errors.New("dates and values have different lengths")
	ErrDateOutsideWindow = errors.New("requested dates lie outside the price window")
)

// PricePoint is a single daily close
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceWindow is an ordered daily price series covering an investment period.
// Dates must be strictly increasing and prices positive; allocators treat
// this as a precondition and do not re-check it on the hot path.
type PriceWindow struct {
	Dates  []time.Time
	Prices []float64
}

// NewPriceWindow builds a PriceWindow from a slice of price points
func NewPriceWindow(points []PricePoint) *PriceWindow {
	window := &PriceWindow{
		Dates:  make([]time.Time, len(points)),
		Prices: make([]float64, len(points)),
	}

	for idx, pt := range points {
		window.Dates[idx] = pt.Date
		window.Prices[idx] = pt.Price
	}

	return window
}

// Len returns the number of days in the window
func (window *PriceWindow) Len() int {
	return len(window.Dates)
}

// Validate checks the window preconditions: equal-length slices, strictly
// increasing dates and positive prices
func (window *PriceWindow) Validate() error {
	if len(window.Dates) != len(window.Prices) {
		return ErrLengthMismatch
	}
	if window.Len() == 0 {
		return ErrEmptyWindow
	}

	for idx, price := range window.Prices {
		if price <= 0 {
			return ErrNonPositivePrice
		}
		if idx > 0 && !window.Dates[idx].After(window.Dates[idx-1]) {
			return ErrDatesOutOfOrder
		}
	}

	return nil
}

// Between returns the sub-window covering [begin, end] inclusive
func (window *PriceWindow) Between(begin, end time.Time) (*PriceWindow, error) {
	lo := window.Len()
	hi := 0
	for idx, date := range window.Dates {
		if !date.Before(begin) && idx < lo {
			lo = idx
		}
		if !date.After(end) {
			hi = idx + 1
		}
	}

	if lo >= hi {
		return nil, ErrDateOutsideWindow
	}

	return &PriceWindow{
		Dates:  window.Dates[lo:hi],
		Prices: window.Prices[lo:hi],
	}, nil
}

// DataFrame converts the window to a single-column dataframe with the price
// series under the PriceUSD column. Values are copied so feature pipelines
// can transform them freely.
func (window *PriceWindow) DataFrame() *dataframe.DataFrame {
	prices := make([]float64, len(window.Prices))
	copy(prices, window.Prices)
	return dataframe.New(window.Dates, common.PriceCol, prices)
}

// WeightSchedule maps every day of an investment window to the fraction of
// the total budget to spend that day
type WeightSchedule struct {
	Dates   []time.Time
	Weights []float64
}

// Len returns the number of days in the schedule
func (schedule *WeightSchedule) Len() int {
	return len(schedule.Dates)
}

// Sum returns the total of all weights; a well-formed schedule sums to 1.0
func (schedule *WeightSchedule) Sum() float64 {
	return floats.Sum(schedule.Weights)
}

// AsMap creates a map from date to weight
func (schedule *WeightSchedule) AsMap() map[time.Time]float64 {
	res := make(map[time.Time]float64, schedule.Len())
	for idx, date := range schedule.Dates {
		res[date] = schedule.Weights[idx]
	}
	return res
}

// SpendPlan multiplies each weight by the total budget, yielding the dollar
// amount to spend on each day
func (schedule *WeightSchedule) SpendPlan(budget float64) *dataframe.DataFrame {
	spend := make([]float64, schedule.Len())
	for idx, w := range schedule.Weights {
		spend[idx] = w * budget
	}

	df := dataframe.New(schedule.Dates, "Weight", schedule.Weights)
	return df.AddCol("SpendUSD", spend)
}
