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

package twolayer_test

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/allocator"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/twolayer"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// sineWindow builds an n-day window with a gently oscillating uptrend
func sineWindow(n int) *data.PriceWindow {
	window := &data.PriceWindow{
		Dates:  make([]time.Time, n),
		Prices: make([]float64, n),
	}
	for idx := 0; idx < n; idx++ {
		window.Dates[idx] = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, idx)
		window.Prices[idx] = 40000 * math.Exp(0.001*float64(idx)) * (1 + 0.05*math.Sin(float64(idx)/7))
	}
	return window
}

// loadGolden reads the regression fixture: a price path and the weight
// schedule the default parameters are expected to produce for it
func loadGolden() (*data.PriceWindow, []float64) {
	fh, err := os.Open("testdata/twolayer_golden.csv")
	Expect(err).To(BeNil())
	defer fh.Close()

	records, err := csv.NewReader(fh).ReadAll()
	Expect(err).To(BeNil())

	window := &data.PriceWindow{}
	weights := []float64{}
	for _, record := range records[1:] {
		date, err := time.Parse("2006-01-02", record[0])
		Expect(err).To(BeNil())
		price, err := strconv.ParseFloat(record[1], 64)
		Expect(err).To(BeNil())
		weight, err := strconv.ParseFloat(record[2], 64)
		Expect(err).To(BeNil())

		window.Dates = append(window.Dates, date)
		window.Prices = append(window.Prices, price)
		weights = append(weights, weight)
	}

	return window, weights
}

var _ = Describe("New", func() {
	It("defaults theta when no arguments are given", func() {
		_, err := twolayer.New(map[string]json.RawMessage{})
		Expect(err).To(BeNil())
	})

	It("rejects a theta of the wrong length", func() {
		_, err := twolayer.New(map[string]json.RawMessage{
			"theta": json.RawMessage(`[1, 2, 3]`),
		})
		Expect(err).To(MatchError(twolayer.ErrThetaLen))
	})

	It("rejects malformed arguments", func() {
		_, err := twolayer.New(map[string]json.RawMessage{
			"theta": json.RawMessage(`"not an array"`),
		})
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Compute", func() {
	var engine allocator.Allocator

	BeforeEach(func() {
		var err error
		engine, err = twolayer.New(map[string]json.RawMessage{})
		Expect(err).To(BeNil())
	})

	It("returns an empty schedule for an empty window", func() {
		schedule, err := engine.Compute(context.Background(), &data.PriceWindow{})
		Expect(err).To(BeNil())
		Expect(schedule.Len()).To(Equal(0))
	})

	It("falls back to uniform weights below the viable window length", func() {
		window := sineWindow(twolayer.MinViableDays - 1)
		schedule, err := engine.Compute(context.Background(), window)
		Expect(err).To(BeNil())
		for _, w := range schedule.Weights {
			Expect(w).To(Equal(1.0 / float64(window.Len())))
		}
	})

	It("preserves the invariants on a full-size window", func() {
		schedule, err := engine.Compute(context.Background(), sineWindow(365))
		Expect(err).To(BeNil())

		Expect(schedule.Sum()).To(BeNumerically("~", 1.0, 1e-9))
		for day, w := range schedule.Weights {
			Expect(w).To(BeNumerically(">=", allocator.MinWeight), "day %d", day)
		}

		report := allocator.Validate(schedule)
		Expect(report.Valid).To(BeTrue())
	})

	It("is deterministic", func() {
		schedule, err := engine.Compute(context.Background(), sineWindow(365))
		Expect(err).To(BeNil())
		schedule2, err := engine.Compute(context.Background(), sineWindow(365))
		Expect(err).To(BeNil())
		Expect(schedule2.Weights).To(Equal(schedule.Weights))
	})

	It("responds to the model parameters", func() {
		flat, err := twolayer.New(map[string]json.RawMessage{
			"theta": json.RawMessage(`[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]`),
		})
		Expect(err).To(BeNil())

		tuned, err := engine.Compute(context.Background(), sineWindow(365))
		Expect(err).To(BeNil())
		neutral, err := flat.Compute(context.Background(), sineWindow(365))
		Expect(err).To(BeNil())

		Expect(neutral.Weights).ToNot(Equal(tuned.Weights))
	})

	It("reproduces the golden schedule with the default parameters", func() {
		window, want := loadGolden()
		Expect(window.Len()).To(Equal(400))

		schedule, err := engine.Compute(context.Background(), window)
		Expect(err).To(BeNil())
		Expect(schedule.Len()).To(Equal(len(want)))

		for day := range want {
			Expect(schedule.Weights[day]).To(BeNumerically("~", want[day], 1e-8), "day %d", day)
		}
	})
})
