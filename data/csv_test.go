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

package data_test

import (
	"strings"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ReadCSV", func() {
	It("parses a CoinMetrics-style export", func() {
		csv := `time,PriceUSD,CapMrktCurUSD
2025-01-01,93500.25,1850000000000
2025-01-02,94100.50,1860000000000
2025-01-03,92800.75,1840000000000
`
		window, err := data.ReadCSV(strings.NewReader(csv))
		Expect(err).To(BeNil())
		Expect(window.Len()).To(Equal(3))
		Expect(window.Dates[0]).To(Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
		Expect(window.Prices[1]).To(Equal(94100.50))
	})

	It("accepts date/price column aliases", func() {
		csv := `date,price
2025-01-01,100
2025-01-02,101
`
		window, err := data.ReadCSV(strings.NewReader(csv))
		Expect(err).To(BeNil())
		Expect(window.Len()).To(Equal(2))
	})

	It("normalizes intraday timestamps to midnight", func() {
		csv := `time,PriceUSD
2025-01-01T13:45:00Z,100
2025-01-02T08:00:00Z,101
`
		window, err := data.ReadCSV(strings.NewReader(csv))
		Expect(err).To(BeNil())
		Expect(window.Dates[0]).To(Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	})

	It("skips rows with a blank price", func() {
		csv := `time,PriceUSD
2025-01-01,100
2025-01-02,
2025-01-03,102
`
		window, err := data.ReadCSV(strings.NewReader(csv))
		Expect(err).To(BeNil())
		Expect(window.Len()).To(Equal(2))
		Expect(window.Prices).To(Equal([]float64{100, 102}))
	})

	It("errors when the required columns are missing", func() {
		csv := `time,CapMrktCurUSD
2025-01-01,1850000000000
`
		_, err := data.ReadCSV(strings.NewReader(csv))
		Expect(err).To(MatchError(data.ErrMissingColumn))
	})

	It("errors when every row is skipped", func() {
		csv := `time,PriceUSD
2025-01-01,
`
		_, err := data.ReadCSV(strings.NewReader(csv))
		Expect(err).To(MatchError(data.ErrEmptyWindow))
	})
})
