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

package dipboost_test

import (
	"context"
	"math"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/allocator"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/dipboost"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// flatWindow builds an n-day window with a constant price
func flatWindow(n int) *data.PriceWindow {
	window := &data.PriceWindow{
		Dates:  make([]time.Time, n),
		Prices: make([]float64, n),
	}
	for idx := 0; idx < n; idx++ {
		window.Dates[idx] = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, idx)
		window.Prices[idx] = 50_000
	}
	return window
}

// dipWindow builds a 100-day window of lightly noisy prices with a dip on
// days 50 through 54
func dipWindow() *data.PriceWindow {
	window := flatWindow(100)
	for idx := range window.Prices {
		window.Prices[idx] = 100 + 0.5*math.Sin(float64(idx))
		if idx >= 50 && idx < 55 {
			window.Prices[idx] *= 0.985
		}
	}
	return window
}

// rampWindow builds a 100-day window of steadily rising prices with a crash
// on days 50 through 54. The rise keeps every pre-crash day at or above its
// trailing mean, so the crash days are the only dip days.
func rampWindow() *data.PriceWindow {
	window := flatWindow(100)
	for idx := range window.Prices {
		window.Prices[idx] = 100 + 0.05*float64(idx)
		if idx >= 50 && idx < 55 {
			window.Prices[idx] *= 0.97
		}
	}
	return window
}

var _ = Describe("New", func() {
	It("defaults alpha when no arguments are given", func() {
		_, err := dipboost.New(map[string]json.RawMessage{})
		Expect(err).To(BeNil())
	})

	It("accepts a custom alpha", func() {
		_, err := dipboost.New(map[string]json.RawMessage{
			"alpha": json.RawMessage(`2.5`),
		})
		Expect(err).To(BeNil())
	})

	It("rejects a non-positive alpha", func() {
		_, err := dipboost.New(map[string]json.RawMessage{
			"alpha": json.RawMessage(`-1`),
		})
		Expect(err).To(MatchError(dipboost.ErrInvalidAlpha))
	})

	It("rejects malformed arguments", func() {
		_, err := dipboost.New(map[string]json.RawMessage{
			"alpha": json.RawMessage(`"aggressive"`),
		})
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Compute", func() {
	var engine allocator.Allocator

	BeforeEach(func() {
		var err error
		engine, err = dipboost.New(map[string]json.RawMessage{})
		Expect(err).To(BeNil())
	})

	It("returns an empty schedule for an empty window", func() {
		schedule, err := engine.Compute(context.Background(), &data.PriceWindow{})
		Expect(err).To(BeNil())
		Expect(schedule.Len()).To(Equal(0))
	})

	It("degenerates to uniform weights when the price never dips", func() {
		window := flatWindow(60)
		schedule, err := engine.Compute(context.Background(), window)
		Expect(err).To(BeNil())
		Expect(schedule.Len()).To(Equal(60))
		for _, w := range schedule.Weights {
			Expect(w).To(Equal(1.0 / 60.0))
		}
	})

	It("boosts dip days at the expense of the back of the window", func() {
		window := rampWindow()
		schedule, err := engine.Compute(context.Background(), window)
		Expect(err).To(BeNil())

		uniform := 1.0 / 100.0
		// days before the crash never dip below trend and keep the baseline
		Expect(schedule.Weights[10]).To(Equal(uniform))
		Expect(schedule.Weights[50]).To(BeNumerically(">", uniform))
		Expect(schedule.Weights[99]).To(BeNumerically("<", uniform))
	})

	It("preserves the invariants on a dip scenario", func() {
		schedule, err := engine.Compute(context.Background(), dipWindow())
		Expect(err).To(BeNil())

		Expect(schedule.Sum()).To(BeNumerically("~", 1.0, 1e-5))
		for day, w := range schedule.Weights {
			Expect(w).To(BeNumerically(">=", allocator.MinWeight), "day %d", day)
		}

		report := allocator.Validate(schedule)
		Expect(report.Valid).To(BeTrue())
	})

	It("does not let future prices change past weights", func() {
		schedule, err := engine.Compute(context.Background(), dipWindow())
		Expect(err).To(BeNil())

		perturbed := dipWindow()
		for day := 71; day < 100; day++ {
			perturbed.Prices[day] *= 1.3
		}
		schedule2, err := engine.Compute(context.Background(), perturbed)
		Expect(err).To(BeNil())

		for day := 0; day <= 70; day++ {
			Expect(schedule2.Weights[day]).To(Equal(schedule.Weights[day]), "day %d", day)
		}
	})

	It("is deterministic", func() {
		schedule, err := engine.Compute(context.Background(), dipWindow())
		Expect(err).To(BeNil())
		schedule2, err := engine.Compute(context.Background(), dipWindow())
		Expect(err).To(BeNil())
		Expect(schedule2.Weights).To(Equal(schedule.Weights))
	})

	It("boosts harder with a larger alpha", func() {
		aggressive, err := dipboost.New(map[string]json.RawMessage{
			"alpha": json.RawMessage(`3.0`),
		})
		Expect(err).To(BeNil())

		mild, err := engine.Compute(context.Background(), rampWindow())
		Expect(err).To(BeNil())
		hard, err := aggressive.Compute(context.Background(), rampWindow())
		Expect(err).To(BeNil())

		Expect(hard.Weights[50]).To(BeNumerically(">", mild.Weights[50]))
	})
})
