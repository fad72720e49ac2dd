// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/telemetry"
)

var (
	configDir string
	runtime   string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "slideshow",
	Short: "Generate narrated slideshows from text",
	Long: `Slideshow narrates a passage of text and, in video mode, renders it as a
sequence of captioned frames over background images, synchronized to the
narration and encoded as an MP4.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so that stdout carries only the result.
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(telemetry.NewHandler(os.Stderr, level)))
		if err := os.Setenv(cloud.EnvConfigFilePrefix, configDir); err != nil {
			return err
		}
		return os.Setenv(cloud.EnvConfigRuntime, runtime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", envOr(cloud.EnvConfigFilePrefix, "configs"), "directory holding .env.toml files")
	rootCmd.PersistentFlags().StringVar(&runtime, "runtime", envOr(cloud.EnvConfigRuntime, "local"), "configuration overlay to apply")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(exampleCmd)
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadConfig reads the configuration selected by the persistent flags.
func loadConfig() (*cloud.Config, error) {
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return config, nil
}
