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

package allocator_test

import (
	"math"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/allocator"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func makeSchedule(weights []float64) *data.WeightSchedule {
	dates := make([]time.Time, len(weights))
	for idx := range dates {
		dates[idx] = time.Date(2025, time.January, 1+idx, 0, 0, 0, 0, time.UTC)
	}
	return &data.WeightSchedule{Dates: dates, Weights: weights}
}

var _ = Describe("Validate", func() {
	It("accepts a uniform schedule", func() {
		report := allocator.Validate(makeSchedule([]float64{0.25, 0.25, 0.25, 0.25}))
		Expect(report.Valid).To(BeTrue())
		Expect(report.Errors).To(BeEmpty())
		Expect(report.Warnings).To(BeEmpty())
	})

	It("rejects non-positive weights", func() {
		report := allocator.Validate(makeSchedule([]float64{0.5, 0, 0.5}))
		Expect(report.Valid).To(BeFalse())
		Expect(report.Errors).ToNot(BeEmpty())
	})

	It("rejects non-finite weights", func() {
		report := allocator.Validate(makeSchedule([]float64{0.5, math.NaN(), 0.5}))
		Expect(report.Valid).To(BeFalse())

		report = allocator.Validate(makeSchedule([]float64{0.5, math.Inf(1), 0.5}))
		Expect(report.Valid).To(BeFalse())
	})

	It("rejects weights below the floor", func() {
		report := allocator.Validate(makeSchedule([]float64{0.999995, allocator.MinWeight / 2}))
		Expect(report.Valid).To(BeFalse())
		Expect(report.Errors).To(HaveLen(1))
	})

	It("warns on sum drift without invalidating", func() {
		report := allocator.Validate(makeSchedule([]float64{0.5, 0.49}))
		Expect(report.Valid).To(BeTrue())
		Expect(report.Warnings).To(HaveLen(1))
	})

	It("tolerates floating point drift in the sum", func() {
		report := allocator.Validate(makeSchedule([]float64{0.5, 0.5 + 1e-9}))
		Expect(report.Valid).To(BeTrue())
		Expect(report.Warnings).To(BeEmpty())
	})
})

var _ = Describe("Uniform", func() {
	It("assigns every day an equal share", func() {
		window := &data.PriceWindow{
			Dates: []time.Time{
				time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
			},
			Prices: []float64{100, 101},
		}
		schedule := allocator.Uniform(window)
		Expect(schedule.Weights).To(Equal([]float64{0.5, 0.5}))
	})
})
