// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/allocator"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/common"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
)

var (
	allocateBegin  string
	allocateEnd    string
	allocateBudget float64
)

func init() {
	allocateCmd.Flags().StringVar(&allocateBegin, "begin", "", "Only allocate over days on or after this date (YYYY-MM-DD)")
	allocateCmd.Flags().StringVar(&allocateEnd, "end", "", "Only allocate over days on or before this date (YYYY-MM-DD)")
	allocateCmd.Flags().Float64Var(&allocateBudget, "budget", 10_000, "Budget in USD to spread over the window")

	rootCmd.AddCommand(allocateCmd)
}

var allocateCmd = &cobra.Command{
	Use:        "allocate [flags] AllocatorShortcode AllocatorArguments PriceCSV",
	Short:      "Compute a spend schedule over a price history",
	Args:       cobra.MinimumNArgs(3),
	ArgAliases: []string{"AllocatorShortcode", "AllocatorArguments", "PriceCSV"},
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		allocators.InitializeAllocatorMap()

		runID := uuid.New().String()
		startTime := time.Now()

		alloc, ok := allocators.AllocatorMap[args[0]]
		if !ok {
			log.Fatal().Str("Shortcode", args[0]).Msg("unknown allocator shortcode")
		}

		var arguments map[string]json.RawMessage
		if err := json.Unmarshal([]byte(args[1]), &arguments); err != nil {
			log.Fatal().Err(err).Msg("could not unmarshal arguments json")
		}

		window, err := data.LoadCSV(args[2])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[2]).Msg("could not load price history")
		}

		if allocateBegin != "" || allocateEnd != "" {
			begin := window.Dates[0]
			end := window.Dates[window.Len()-1]
			if allocateBegin != "" {
				if begin, err = time.ParseInLocation("2006-01-02", allocateBegin, common.GetTimezone()); err != nil {
					log.Fatal().Err(err).Str("Begin", allocateBegin).Msg("could not parse begin date")
				}
			}
			if allocateEnd != "" {
				if end, err = time.ParseInLocation("2006-01-02", allocateEnd, common.GetTimezone()); err != nil {
					log.Fatal().Err(err).Str("End", allocateEnd).Msg("could not parse end date")
				}
			}
			if window, err = window.Between(begin, end); err != nil {
				log.Fatal().Err(err).Msg("could not trim price history to requested window")
			}
		}

		engine, err := alloc.Factory(arguments)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create allocator")
		}

		schedule, err := engine.Compute(context.Background(), window)
		if err != nil {
			log.Fatal().Err(err).Msg("could not compute spend schedule")
		}

		report := allocator.Validate(schedule)
		for _, msg := range report.Warnings {
			log.Warn().Str("RunID", runID).Msg(msg)
		}
		for _, msg := range report.Errors {
			log.Error().Str("RunID", runID).Msg(msg)
		}
		if !report.Valid {
			log.Fatal().Str("RunID", runID).Msg("schedule failed validation")
		}

		plan := schedule.SpendPlan(allocateBudget)
		fmt.Println(plan.Table())
		fmt.Printf("Days: %d\n", schedule.Len())
		fmt.Printf("Weight Sum: %.9f\n", schedule.Sum())
		fmt.Printf("Budget: $%.2f\n", allocateBudget)

		log.Info().Str("RunID", runID).Dur("Elapsed", time.Since(startTime)).Msg("allocation complete")
	},
}
