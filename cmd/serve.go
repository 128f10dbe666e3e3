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
	"os"
	"os/signal"
	"runtime/pprof"
	"runtime/trace"

	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/allocators"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/common"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/handler"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/middleware"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/observability/opentelemetry"
	"github.com/TrilemmaFoundation/UCI-MDS-F25-Bitcoin/router"
	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveProfile bool
	serveTrace   bool
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	serveCmd.Flags().BoolVar(&serveProfile, "profile", false, "Write CPU profile to profile.out")
	serveCmd.Flags().BoolVar(&serveTrace, "trace", false, "Write execution trace to trace.out")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dca server",
	Long:  `Run HTTP server that computes spend schedules on demand`,
	Run: func(cmd *cobra.Command, args []string) {
		if serveProfile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile output file")
			}
			pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}

		if serveTrace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("could not close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("could not start trace")
			}
			defer trace.Stop()
		}

		common.SetupLogging()
		log.Info().Msg("initialized logging")

		shutdownOtel, err := opentelemetry.Setup()
		if err != nil {
			log.Error().Err(err).Msg("could not initialize tracing")
		}
		if shutdownOtel != nil {
			defer func() {
				if err := shutdownOtel(context.Background()); err != nil {
					log.Error().Err(err).Msg("could not shutdown tracing")
				}
			}()
		}

		// initialize allocators
		allocators.InitializeAllocatorMap()
		log.Info().Int("NumAllocators", len(allocators.AllocatorList)).Msg("initialized allocators")

		// Create new Fiber instance
		app := fiber.New()

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("could not shutdown app")
			}
		}()

		// Configure CORS
		corsConfig := cors.Config{
			AllowOrigins: "*",
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}
		app.Use(cors.New(corsConfig))

		// Setup logging middleware
		app.Use(middleware.NewLogger())

		// Setup routes
		router.SetupRoutes(app)

		// purge the response cache daily
		scheduler := gocron.NewScheduler(common.GetTimezone())
		scheduler.Every(1).Day().At("00:00").Do(handler.PurgeCache)
		scheduler.StartAsync()

		// Start server on http://localhost:${port}
		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("could not start server")
		}
	},
}
