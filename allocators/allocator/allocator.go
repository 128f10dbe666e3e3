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

package allocator

import (
	"context"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/goccy/go-json"
)

// MinWeight is the smallest fraction of budget any single day may receive.
// Keeping every day strictly above zero guarantees the schedule never
// leaves the market.
const MinWeight = 1e-5

// Sum tolerance for a well-formed weight schedule: relative and absolute
// parts combine the way numpy's isclose does.
const (
	SumRelTol = 1e-5
	SumAbsTol = 1e-8
)

// Factory method to create an allocator from JSON-encoded arguments
type Factory func(map[string]json.RawMessage) (Allocator, error)

// Argument describes one tunable parameter of an allocator
type Argument struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Typecode    string   `json:"typecode"`
	Default     string   `json:"default"`
	Advanced    bool     `json:"advanced"`
	Options     []string `json:"options"`
}

// Info describes a registered allocator
type Info struct {
	Name            string              `json:"name"`
	Shortcode       string              `json:"shortcode"`
	Description     string              `json:"description"`
	LongDescription string              `json:"longDescription"`
	Source          string              `json:"source"`
	Version         string              `json:"version"`
	Arguments       map[string]Argument `json:"arguments"`
	Factory         Factory             `json:"-"`
}

// Allocator computes a per-day budget weighting for a price window. A
// single Compute call is pure and self-contained: it owns no shared state,
// performs no I/O, and may run concurrently with other calls.
type Allocator interface {
	Compute(ctx context.Context, window *data.PriceWindow) (*data.WeightSchedule, error)
}

// Uniform is the baseline schedule every allocator degrades to when it has
// too little data to act on: 1/N to every day
func Uniform(window *data.PriceWindow) *data.WeightSchedule {
	n := window.Len()
	weights := make([]float64, n)
	for idx := range weights {
		weights[idx] = 1.0 / float64(n)
	}

	return &data.WeightSchedule{Dates: window.Dates, Weights: weights}
}
