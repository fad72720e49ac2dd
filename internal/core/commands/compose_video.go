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


package commands

import (
	"log/slog"
	"path/filepath"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/compose"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const VideoFileName = "slideshow.mp4"

// VideoComposer plans the visual track from the timeline and the rendered
// frames, then encodes it with the narration into the request's temp
// directory.
type VideoComposer struct {
	cor.BaseCommand
	config     *cloud.Config
	compositor *compose.Compositor
}

func NewVideoComposer(name string, config *cloud.Config, compositor *compose.Compositor) *VideoComposer {
	out := &VideoComposer{BaseCommand: *cor.NewBaseCommand(name), config: config, compositor: compositor}
	out.InputParamName = ParamFrames
	out.OutputParamName = ParamVideoPath
	return out
}

func (c *VideoComposer) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && timelineOf(context) != nil
}

func (c *VideoComposer) Execute(context cor.Context) {
	req := requestOf(context)
	tl := timelineOf(context)

	plan, err := compose.NewPlan(tl, framesOf(context), c.config.ComposeOptions())
	if err != nil {
		c.Fail(context, model.NewError(model.KindEncodingFailure, err))
		return
	}
	dir, err := context.TempDir()
	if err != nil {
		c.Fail(context, model.NewError(model.KindEncodingFailure, err))
		return
	}
	output := filepath.Join(dir, VideoFileName)
	context.AddTempFile(output)

	trace.SpanFromContext(context.GetContext()).SetAttributes(
		attribute.Int("clips", len(plan.Clips)),
		attribute.Float64("crossfade", plan.Crossfade),
		attribute.Float64("total", plan.Total))
	if err := c.compositor.Compose(context.GetContext(), plan, tl.Narration, req.MusicPath, output); err != nil {
		c.Fail(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "video encoded", "request_id", req.ID, "clips", len(plan.Clips), "duration", plan.Total)
	c.Succeed(context, output)
}
