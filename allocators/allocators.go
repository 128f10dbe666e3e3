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

package allocators

import (
	"context"
	"embed"
	"fmt"
	"io"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/allocator"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/dipboost"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators/twolayer"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/data"
	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

//go:embed **/*.md **/*.toml
var resources embed.FS

// AllocatorList is the list of all registered allocators
var AllocatorList = []*allocator.Info{}

// AllocatorMap maps shortcode to allocator info
var AllocatorMap = make(map[string]*allocator.Info)

// InitializeAllocatorMap registers every allocator the engine ships with.
// Calling it again rebuilds the registry from scratch.
func InitializeAllocatorMap() {
	AllocatorList = []*allocator.Info{}
	AllocatorMap = make(map[string]*allocator.Info)

	Register("dipboost", dipboost.New)
	Register("twolayer", twolayer.New)
}

// Register loads an allocator's embedded metadata and adds it to the
// registry under its shortcode
func Register(allocatorPkg string, factory allocator.Factory) {
	// load config file
	fn := fmt.Sprintf("%s/allocator.toml", allocatorPkg)
	doc, err := readResource(fn)
	if err != nil {
		log.Error().Err(err).Str("File", fn).Msg("failed to read allocator metadata")
		return
	}

	info := &allocator.Info{}
	if err := toml.Unmarshal(doc, info); err != nil {
		log.Error().Err(err).Str("File", fn).Msg("failed to parse allocator metadata")
		return
	}

	// read long description
	fn = fmt.Sprintf("%s/description.md", allocatorPkg)
	if doc, err := readResource(fn); err == nil {
		info.LongDescription = string(doc)
	} else {
		log.Warn().Err(err).Str("File", fn).Msg("allocator has no long description")
	}

	info.Factory = factory

	AllocatorList = append(AllocatorList, info)
	AllocatorMap[info.Shortcode] = info
}

func readResource(fn string) ([]byte, error) {
	file, err := resources.Open(fn)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// AllocateDipBoost computes a dip-boost weight schedule for the window with
// the given boost factor
func AllocateDipBoost(ctx context.Context, window *data.PriceWindow, alpha float64) (*data.WeightSchedule, error) {
	raw, err := json.Marshal(alpha)
	if err != nil {
		return nil, err
	}

	alloc, err := dipboost.New(map[string]json.RawMessage{"alpha": raw})
	if err != nil {
		return nil, err
	}

	return alloc.Compute(ctx, window)
}

// AllocateTwoLayer computes a strategic/tactical weight schedule for the
// window with the given 23-value theta vector
func AllocateTwoLayer(ctx context.Context, window *data.PriceWindow, theta [twolayer.ThetaLen]float64) (*data.WeightSchedule, error) {
	raw, err := json.Marshal(theta[:])
	if err != nil {
		return nil, err
	}

	alloc, err := twolayer.New(map[string]json.RawMessage{"theta": raw})
	if err != nil {
		return nil, err
	}

	return alloc.Compute(ctx, window)
}
