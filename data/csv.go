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
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/common"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingColumn = errors.New("csv does not have the required columns")
)

// LoadCSV reads a daily price history from a CoinMetrics-style CSV export.
// The file must have a header row with a `time` column and a `PriceUSD`
// column; extra columns are ignored. Rows with a blank or unparseable price
// are skipped with a warning so partially populated exports still load.
func LoadCSV(fn string) (*PriceWindow, error) {
	fh, err := os.Open(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not open price history")
		return nil, err
	}
	defer fh.Close()

	window, err := ReadCSV(fh)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not parse price history")
		return nil, err
	}

	return window, nil
}

// ReadCSV parses a daily price history from r; see LoadCSV for the expected
// format
func ReadCSV(r io.Reader) (*PriceWindow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	dateIdx := -1
	priceIdx := -1
	for idx, name := range header {
		switch strings.TrimSpace(name) {
		case "time", "date", common.DateIdx:
			dateIdx = idx
		case common.PriceCol, "price":
			priceIdx = idx
		}
	}

	if dateIdx == -1 || priceIdx == -1 {
		return nil, ErrMissingColumn
	}

	points := []PricePoint{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		date, err := parseDate(record[dateIdx])
		if err != nil {
			log.Warn().Str("Date", record[dateIdx]).Msg("skipping row with unparseable date")
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(record[priceIdx]), 64)
		if err != nil {
			log.Warn().Str("Date", record[dateIdx]).Msg("skipping row with no price")
			continue
		}

		points = append(points, PricePoint{Date: date, Price: price})
	}

	window := NewPriceWindow(points)
	if err := window.Validate(); err != nil {
		return nil, err
	}

	return window, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if date, err := time.ParseInLocation(layout, s, common.GetTimezone()); err == nil {
			// normalize to midnight; intraday timestamps identify the day only
			year, month, day := date.Date()
			return time.Date(year, month, day, 0, 0, 0, 0, common.GetTimezone()), nil
		}
	}

	return time.Time{}, errors.New("unrecognized date format")
}
