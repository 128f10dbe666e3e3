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
	"fmt"
	"math"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
)

// ValidationReport is the structured result of checking a weight schedule
// against the framework invariants. Floor and positivity violations are hard
// errors; sum drift beyond tolerance is a warning because callers can always
// renormalize.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks a weight schedule against the framework invariants:
//  1. every weight is positive and finite
//  2. every weight is at least MinWeight
//  3. the weights sum to 1.0 within tolerance
//
// Validate never mutates its input and never fails; it always returns a
// report.
func Validate(schedule *data.WeightSchedule) ValidationReport {
	report := ValidationReport{
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	for _, w := range schedule.Weights {
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			report.Valid = false
			report.Errors = append(report.Errors, "found non-positive or non-finite weights")
			break
		}
	}

	for _, w := range schedule.Weights {
		if w < MinWeight {
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf("found weights below MinWeight (%g)", MinWeight))
			break
		}
	}

	sum := schedule.Sum()
	if math.Abs(sum-1.0) > SumRelTol+SumAbsTol {
		report.Warnings = append(report.Warnings, fmt.Sprintf("weights sum to %.6f (expected 1.0)", sum))
	}

	return report
}
