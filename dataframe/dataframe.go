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
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// New creates a single-column dataframe from a date index and a value slice.
// The value slice is borrowed, not copied.
func New(dates []time.Time, colName string, vals []float64) *DataFrame {
	return &DataFrame{
		Dates:    dates,
		ColNames: []string{colName},
		Vals:     [][]float64{vals},
	}
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// ColIndex returns the index of the specified column; -1 if the column
// doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// Col returns the value slice backing the named column
func (df *DataFrame) Col(colName string) ([]float64, error) {
	colIdx := df.ColIndex(colName)
	if colIdx == -1 {
		return nil, ErrUnknownColumn
	}
	return df.Vals[colIdx], nil
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		Dates:    make([]time.Time, len(df.Dates)),
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.Dates, df.Dates)
	copy(df2.ColNames, df.ColNames)
	for idx := range df.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// AddCol appends a column to the dataframe. Panics if the length of vals does
// not match the length of the date index.
func (df *DataFrame) AddCol(colName string, vals []float64) *DataFrame {
	if len(vals) != len(df.Dates) {
		panic(fmt.Sprintf("cannot add column %s: %d values for %d rows", colName, len(vals), len(df.Dates)))
	}
	df.ColNames = append(df.ColNames, colName)
	df.Vals = append(df.Vals, vals)
	return df
}

// Row returns the values at the given row index keyed by column name
func (df *DataFrame) Row(rowIdx int) map[string]float64 {
	row := make(map[string]float64, len(df.ColNames))
	for colIdx, colName := range df.ColNames {
		row[colName] = df.Vals[colIdx][rowIdx]
	}
	return row
}

// Table renders the dataframe as an ASCII table for console output
func (df *DataFrame) Table() string {
	sb := &strings.Builder{}
	table := tablewriter.NewWriter(sb)

	header := make([]string, 0, len(df.ColNames)+1)
	header = append(header, "Date")
	header = append(header, df.ColNames...)
	table.SetHeader(header)

	for rowIdx, date := range df.Dates {
		row := make([]string, 0, len(df.ColNames)+1)
		row = append(row, date.Format("2006-01-02"))
		for colIdx := range df.ColNames {
			row = append(row, fmt.Sprintf("%.6f", df.Vals[colIdx][rowIdx]))
		}
		table.Append(row)
	}

	table.Render()
	return sb.String()
}
