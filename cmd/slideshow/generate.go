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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/services"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/workflow"
)

type generateFlags struct {
	text           string
	textFile       string
	mode           string
	style          string
	language       string
	effects        bool
	segmentation   string
	allocation     string
	backgroundURLs []string
	images         []string
	imageObjects   []string
	music          string
	outputDir      string
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Narrate text and render it as an MP3 or a slideshow MP4",
	Long: `Generate reads the text from --text, --text-file (use "-" for stdin),
narrates it and, in video mode, renders a slideshow synchronized to the
narration. Artifacts are written to the output directory and the result is
printed as JSON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := genFlags.request(cmd.InOrStdin())
		if err != nil {
			return err
		}
		config, err := loadConfig()
		if err != nil {
			return err
		}
		if genFlags.outputDir != "" {
			config.Storage.Kind = cloud.StorageLocal
			config.Storage.LocalDir = genFlags.outputDir
		}
		return runGenerate(cmd.Context(), config, req, cmd.OutOrStdout())
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.text, "text", "", "text to narrate")
	f.StringVarP(&genFlags.textFile, "text-file", "f", "", "file holding the text to narrate, or - for stdin")
	f.StringVarP(&genFlags.mode, "mode", "m", string(model.ModeVideo), "audio or video")
	f.StringVarP(&genFlags.style, "style", "s", string(model.StyleGradient), "background style")
	f.StringVarP(&genFlags.language, "language", "l", "", "narration language; defaults to the configured one")
	f.BoolVar(&genFlags.effects, "effects", true, "apply zoom and pan effects")
	f.StringVar(&genFlags.segmentation, "segmentation", "", "sentence or chunk")
	f.StringVar(&genFlags.allocation, "allocation", "", "uniform, proportional or fixed")
	f.StringSliceVar(&genFlags.backgroundURLs, "background-url", nil, "background image URL, may repeat")
	f.StringSliceVarP(&genFlags.images, "image", "i", nil, "local background image, may repeat")
	f.StringSliceVar(&genFlags.imageObjects, "image-object", nil, "gs://bucket/object background image, may repeat")
	f.StringVar(&genFlags.music, "music", "", "background music track")
	f.StringVarP(&genFlags.outputDir, "output-dir", "o", "", "write artifacts to this directory")
	generateCmd.MarkFlagsMutuallyExclusive("text", "text-file")
}

// request builds a GenerationRequest from the flags. Enum values are left
// for the validator to check.
func (g *generateFlags) request(stdin io.Reader) (*model.GenerationRequest, error) {
	text := g.text
	switch g.textFile {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	default:
		data, err := os.ReadFile(g.textFile)
		if err != nil {
			return nil, fmt.Errorf("read text file: %w", err)
		}
		text = string(data)
	}

	req := &model.GenerationRequest{
		Text:           text,
		Mode:           model.Mode(g.mode),
		Style:          model.Style(g.style),
		Language:       g.language,
		EffectsEnabled: g.effects,
		Segmentation:   model.SegmentationMode(g.segmentation),
		Allocation:     model.AllocationPolicy(g.allocation),
		BackgroundURLs: g.backgroundURLs,
		ImageObjects:   g.imageObjects,
		MusicPath:      g.music,
	}
	for _, name := range g.images {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		req.Uploads = append(req.Uploads, model.UploadedImage{Name: filepath.Base(name), Data: data})
	}
	return req, nil
}

func runGenerate(ctx context.Context, config *cloud.Config, req *model.GenerationRequest, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients := &cloud.ServiceClients{}
	if cloud.NeedsCloud(config) {
		c, err := cloud.NewCloudServiceClients(ctx, config)
		if err != nil {
			return err
		}
		defer c.Close()
		clients = c
	}
	store, err := cloud.NewArtifactStore(config, clients)
	if err != nil {
		return err
	}
	records, err := cloud.NewRecordSink(config, clients)
	if err != nil {
		return err
	}

	generator := services.NewGenerator(config, workflow.Dependencies{
		Narrator:      cloud.NewNarrator(config),
		Store:         store,
		Records:       records,
		StorageClient: clients.StorageClient,
	})
	result, err := generator.Generate(ctx, req)
	if err != nil {
		slog.Error("generation failed", "kind", model.KindOf(err), "error", err)
		return errors.New(model.UserMessage(err))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a sample queued generation request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(model.GetExampleRequest())
	},
}
