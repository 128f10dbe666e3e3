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

package handler

import (
	"encoding/hex"
	"runtime"
	"time"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/allocator"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/observability/opentelemetry"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
)

// responseCache holds recently computed allocation responses keyed by a
// hash of the request; identical requests are pure recomputations so the
// cache can never serve stale results
var responseCache *lru.Cache

const responseCacheSize = 128

func init() {
	var err error
	responseCache, err = lru.New(responseCacheSize)
	if err != nil {
		panic(err)
	}
}

// PurgeCache drops every cached allocation response
func PurgeCache() {
	responseCache.Purge()
	log.Debug().Msg("purged allocation response cache")
}

// AllocationRequest is the body of POST /v1/allocator/:shortcode
type AllocationRequest struct {
	Prices    []data.PricePoint          `json:"prices"`
	Arguments map[string]json.RawMessage `json:"arguments"`
	Budget    float64                    `json:"budget"`
}

// AllocationDay is one row of the returned schedule
type AllocationDay struct {
	Date     string  `json:"date"`
	Weight   float64 `json:"weight"`
	SpendUSD float64 `json:"spendUsd,omitempty"`
}

// AllocationResponse is the result of running an allocator
type AllocationResponse struct {
	Shortcode  string                     `json:"shortcode"`
	Days       []AllocationDay            `json:"days"`
	Sum        float64                    `json:"sum"`
	Validation allocator.ValidationReport `json:"validation"`
}

// ListAllocators gets a list of all registered allocators
func ListAllocators(c *fiber.Ctx) error {
	return c.JSON(allocators.AllocatorList)
}

// GetAllocator gets the configuration of a specific allocator
func GetAllocator(c *fiber.Ctx) error {
	shortcode := c.Params("shortcode")
	if info, ok := allocators.AllocatorMap[shortcode]; ok {
		return c.JSON(info)
	}
	return fiber.ErrNotFound
}

// RunAllocator executes the requested allocator against the price window in
// the request body and returns the weight schedule along with its
// validation report
func RunAllocator(c *fiber.Ctx) (resp error) {
	shortcode := c.Params("shortcode")
	runID := uuid.New().String()
	startTime := time.Now()

	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.Context(), "handler.RunAllocator")
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)
	defer span.End()

	info, ok := allocators.AllocatorMap[shortcode]
	if !ok {
		return fiber.ErrNotFound
	}

	defer func() {
		if err := recover(); err != nil {
			stackSlice := make([]byte, 1024)
			runtime.Stack(stackSlice, false)
			log.Error().
				Str("RunID", runID).
				Interface("Panic", err).
				Bytes("StackTrace", stackSlice).
				Msg("caught panic in RunAllocator")
			resp = fiber.ErrInternalServerError
		}
	}()

	// identical request bodies produce identical schedules; serve from
	// cache when possible
	cacheKey := cacheKeyFor(shortcode, c.Body())
	if cached, ok := responseCache.Get(cacheKey); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(cached.([]byte))
	}

	var req AllocationRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Str("RunID", runID).Str("Allocator", shortcode).Msg("could not parse allocation request")
		return fiber.ErrBadRequest
	}

	window := data.NewPriceWindow(req.Prices)
	if err := window.Validate(); err != nil {
		log.Warn().Err(err).Str("RunID", runID).Str("Allocator", shortcode).Msg("malformed price window")
		return fiber.ErrNotAcceptable
	}

	alloc, err := info.Factory(req.Arguments)
	if err != nil {
		log.Warn().Err(err).Str("RunID", runID).Str("Allocator", shortcode).Msg("could not create allocator")
		return fiber.ErrNotAcceptable
	}

	schedule, err := alloc.Compute(ctx, window)
	if err != nil {
		log.Error().Err(err).Str("RunID", runID).Str("Allocator", shortcode).Msg("could not compute weight schedule")
		return fiber.ErrInternalServerError
	}

	days := make([]AllocationDay, schedule.Len())
	for idx, date := range schedule.Dates {
		days[idx] = AllocationDay{
			Date:   date.Format("2006-01-02"),
			Weight: schedule.Weights[idx],
		}
		if req.Budget > 0 {
			days[idx].SpendUSD = schedule.Weights[idx] * req.Budget
		}
	}

	response := AllocationResponse{
		Shortcode:  shortcode,
		Days:       days,
		Sum:        schedule.Sum(),
		Validation: allocator.Validate(schedule),
	}

	body, err := json.Marshal(response)
	if err != nil {
		log.Error().Err(err).Str("RunID", runID).Msg("could not marshal allocation response")
		return fiber.ErrInternalServerError
	}
	responseCache.Add(cacheKey, body)

	log.Info().
		Str("RunID", runID).
		Str("Allocator", shortcode).
		Int("WindowDays", window.Len()).
		Dur("Elapsed", time.Since(startTime)).
		Msg("computed allocation")

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func cacheKeyFor(shortcode string, body []byte) string {
	hasher := blake3.New()
	_, _ = hasher.Write([]byte(shortcode))
	_, _ = hasher.Write(body)
	return hex.EncodeToString(hasher.Sum(nil))
}
