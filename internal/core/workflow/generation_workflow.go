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


// Package workflow assembles the pipeline commands into the chains that turn
// a generation request into published artifacts.
package workflow

import (
	goctx "context"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/commands"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/compose"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/narration"
)

// Dependencies are the collaborators a GenerationWorkflow is built from.
type Dependencies struct {
	Narrator      *narration.Narrator
	Compositor    *compose.Compositor
	Store         cloud.ArtifactStore
	Records       cloud.RecordSink
	StorageClient *storage.Client // Optional; stages gs:// background images.
	HTTPClient    *http.Client    // Optional; fetches web backgrounds.
}

// GenerationWorkflow runs one validated request end to end.
//
// The request passes through four chains: prepare (validation and image
// staging), then either the audio or the video chain depending on the mode,
// and finally finalize. Finalize always runs, even after a failure or a
// cancelled request, so that published artifacts of a failed request are
// removed and the outcome is recorded.
type GenerationWorkflow struct {
	cor.BaseCommand
	config   *cloud.Config
	deps     Dependencies
	prepare  cor.Chain
	audio    cor.Chain
	video    cor.Chain
	finalize cor.Chain
}

func (w *GenerationWorkflow) Execute(context cor.Context) {
	w.prepare.Execute(context)
	if !context.HasErrors() {
		req, _ := context.Get(commands.ParamRequest).(*model.GenerationRequest)
		if req.Mode == model.ModeAudio {
			w.audio.Execute(context)
		} else {
			w.video.Execute(context)
		}
	}

	parent := context.GetContext()
	context.SetContext(goctx.WithoutCancel(parent))
	w.finalize.Execute(context)
	context.SetContext(parent)
}

func (w *GenerationWorkflow) initializeChain() {
	prepare := cor.NewBaseChain(w.GetName() + "-prepare")
	prepare.AddCommand(commands.NewRequestValidator("validate-request", w.config))
	prepare.AddCommand(commands.NewGCSImageStager("stage-gcs-images", w.deps.StorageClient, w.config.Backgrounds.MaxBytes))
	w.prepare = prepare

	audio := cor.NewBaseChain(w.GetName() + "-audio")
	audio.AddCommand(commands.NewNarrateAndSegment("narrate", w.deps.Narrator, w.config, false))
	audio.AddCommand(commands.NewArtifactPublisher("publish-artifacts", w.deps.Store))
	w.audio = audio

	video := cor.NewBaseChain(w.GetName() + "-video")
	video.AddCommand(commands.NewNarrateAndSegment("narrate-and-segment", w.deps.Narrator, w.config, true))
	video.AddCommand(commands.NewTimelineAllocator("allocate-timeline", w.config))
	video.AddCommand(commands.NewFrameRenderer("render-frames", w.config, w.deps.HTTPClient, w.config.Application.ThreadPoolSize))
	video.AddCommand(commands.NewVideoComposer("compose-video", w.config, w.deps.Compositor))
	video.AddCommand(commands.NewArtifactPublisher("publish-artifacts", w.deps.Store))
	w.video = video

	finalize := cor.NewBaseChain(w.GetName() + "-finalize")
	finalize.ContinueOnFailure(true)
	finalize.AddCommand(commands.NewArtifactCleanup("cleanup-artifacts", w.deps.Store))
	finalize.AddCommand(commands.NewGenerationRecorder("record-generation", w.deps.Records))
	w.finalize = finalize
}

// NewGenerationWorkflow builds the workflow. The request must be in the
// context under commands.ParamRequest before Execute is called.
//
// Inputs:
//   - config: The process configuration.
//   - deps: The narrator, compositor, store and record sink. A nil
//     Compositor encodes with the configured ffmpeg binary and nil Records
//     logs the generation records.
//
// Outputs:
//   - *GenerationWorkflow: The ready to run workflow.
func NewGenerationWorkflow(config *cloud.Config, deps Dependencies) *GenerationWorkflow {
	if deps.Compositor == nil {
		deps.Compositor = compose.NewCompositor(compose.FFmpeg{Path: config.Compose.FFmpegPath})
	}
	if deps.Records == nil {
		deps.Records = cloud.LogRecordSink{}
	}
	out := &GenerationWorkflow{
		BaseCommand: *cor.NewBaseCommand("generation-workflow"),
		config:      config,
		deps:        deps,
	}
	out.InputParamName = commands.ParamRequest
	out.initializeChain()
	return out
}
