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

package dataframe_test

import (
	"math"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/dataframe"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DataFrame math", func() {
	var df *dataframe.DataFrame

	makeDates := func(n int) []time.Time {
		dates := make([]time.Time, n)
		for idx := range dates {
			dates[idx] = time.Date(2025, time.January, 1+idx, 0, 0, 0, 0, time.UTC)
		}
		return dates
	}

	BeforeEach(func() {
		df = dataframe.New(makeDates(5), "col1", []float64{1, 2, 3, 4, 5})
	})

	Describe("Lag", func() {
		It("shifts values down and fills the head with NaN", func() {
			lagged := df.Lag(1)
			Expect(math.IsNaN(lagged.Vals[0][0])).To(BeTrue())
			Expect(lagged.Vals[0][1]).To(Equal(1.0))
			Expect(lagged.Vals[0][4]).To(Equal(4.0))
		})

		It("does not modify the original dataframe", func() {
			_ = df.Lag(2)
			Expect(df.Vals[0][0]).To(Equal(1.0))
		})
	})

	Describe("Clamp", func() {
		It("limits values to the requested range", func() {
			clamped := df.Clamp(2, 4)
			Expect(clamped.Vals[0]).To(Equal([]float64{2, 2, 3, 4, 4}))
		})

		It("passes NaN through unchanged", func() {
			df2 := dataframe.New(makeDates(3), "col1", []float64{math.NaN(), -10, 10})
			clamped := df2.Clamp(-4, 4)
			Expect(math.IsNaN(clamped.Vals[0][0])).To(BeTrue())
			Expect(clamped.Vals[0][1]).To(Equal(-4.0))
			Expect(clamped.Vals[0][2]).To(Equal(4.0))
		})
	})

	Describe("FillNA", func() {
		It("replaces NaN values", func() {
			df2 := dataframe.New(makeDates(3), "col1", []float64{math.NaN(), 2, math.NaN()})
			filled := df2.FillNA(0)
			Expect(filled.Vals[0]).To(Equal([]float64{0, 2, 0}))
		})
	})

	Describe("Log", func() {
		It("takes the natural log of every value", func() {
			logged := df.Log()
			Expect(logged.Vals[0][0]).To(Equal(0.0))
			Expect(logged.Vals[0][1]).To(BeNumerically("~", math.Log(2), 1e-15))
		})
	})

	Describe("RollingMean", func() {
		It("expands until the lookback is filled", func() {
			mean := df.RollingMean(3, 1)
			Expect(mean.Vals[0][0]).To(Equal(1.0))
			Expect(mean.Vals[0][1]).To(Equal(1.5))
			Expect(mean.Vals[0][2]).To(Equal(2.0))
			Expect(mean.Vals[0][3]).To(Equal(3.0))
			Expect(mean.Vals[0][4]).To(Equal(4.0))
		})

		It("returns NaN for rows below minPeriods", func() {
			mean := df.RollingMean(3, 3)
			Expect(math.IsNaN(mean.Vals[0][0])).To(BeTrue())
			Expect(math.IsNaN(mean.Vals[0][1])).To(BeTrue())
			Expect(mean.Vals[0][2]).To(Equal(2.0))
		})

		It("ignores NaN observations inside the window", func() {
			df2 := dataframe.New(makeDates(4), "col1", []float64{1, math.NaN(), 3, 5})
			mean := df2.RollingMean(3, 1)
			Expect(mean.Vals[0][2]).To(Equal(2.0))
			Expect(mean.Vals[0][3]).To(Equal(4.0))
		})
	})

	Describe("RollingStdDev", func() {
		It("computes the sample standard deviation", func() {
			std := df.RollingStdDev(3, 1)
			// two observations: {1, 2}
			Expect(std.Vals[0][1]).To(BeNumerically("~", math.Sqrt(0.5), 1e-15))
			// three observations: {1, 2, 3}
			Expect(std.Vals[0][2]).To(BeNumerically("~", 1.0, 1e-15))
		})

		It("needs at least two observations", func() {
			std := df.RollingStdDev(3, 1)
			Expect(math.IsNaN(std.Vals[0][0])).To(BeTrue())
		})

		It("is zero for a constant series", func() {
			df2 := dataframe.New(makeDates(4), "col1", []float64{7, 7, 7, 7})
			std := df2.RollingStdDev(4, 1)
			Expect(std.Vals[0][3]).To(Equal(0.0))
		})
	})

	Describe("Min and Max", func() {
		It("ignores NaN values", func() {
			df2 := dataframe.New(makeDates(4), "col1", []float64{math.NaN(), 3, -2, 9})
			Expect(df2.Min("col1")).To(Equal(-2.0))
			Expect(df2.Max("col1")).To(Equal(9.0))
		})

		It("returns NaN for an unknown column", func() {
			Expect(math.IsNaN(df.Min("missing"))).To(BeTrue())
		})
	})
})
