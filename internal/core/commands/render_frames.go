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
	goctx "context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/background"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/render"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// FrameRenderer resolves a background and renders one frame per timeline
// segment using a fixed pool of workers. Frames are stored by segment
// position, so the output order never depends on which worker finished
// first. Frames that fail to write are left to the request's temp
// directory cleanup.
type FrameRenderer struct {
	cor.BaseCommand
	config          *cloud.Config
	renderer        *render.Renderer
	client          *http.Client
	numberOfWorkers int
	fallbackCounter metric.Int64Counter
}

// NewFrameRenderer builds the command.
//
// Inputs:
//   - name: The command name.
//   - config: Supplies the render and background options.
//   - client: HTTP client for network backgrounds; nil uses a default client.
//   - numberOfWorkers: Size of the worker pool; values below one mean one.
func NewFrameRenderer(name string, config *cloud.Config, client *http.Client, numberOfWorkers int) *FrameRenderer {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	out := &FrameRenderer{
		BaseCommand:     *cor.NewBaseCommand(name),
		config:          config,
		renderer:        render.NewRenderer(config.RenderOptions()),
		client:          client,
		numberOfWorkers: numberOfWorkers,
	}
	out.InputParamName = ParamTimeline
	out.OutputParamName = ParamFrames
	out.fallbackCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.background.fallback", name))
	if out.renderer.UsesBuiltinFont() {
		slog.Warn("no configured font could be loaded, using the built-in face", "command", name)
	}
	return out
}

func (c *FrameRenderer) Execute(context cor.Context) {
	req := requestOf(context)
	tl := timelineOf(context)
	dir, err := context.TempDir()
	if err != nil {
		c.Fail(context, model.NewError(model.KindEncodingFailure, err))
		return
	}

	resolver, rejected := background.Select(req, c.config.BackgroundOptions(), c.client)
	for _, r := range rejected {
		c.fallback(context.GetContext(), context, -1, r)
	}

	var wg sync.WaitGroup
	jobs := make(chan *frameJob, len(tl.Segments))
	results := make(chan *frameResult, len(tl.Segments))
	for w := 0; w < c.numberOfWorkers; w++ {
		wg.Add(1)
		go c.frameWorker(context, resolver, jobs, results, &wg)
	}
	for i, seg := range tl.Segments {
		jobs <- &frameJob{
			position: i,
			segment:  seg.TextSegment,
			query:    background.Query{Index: seg.Index, Style: req.Style, Text: seg.Content},
			path:     filepath.Join(dir, fmt.Sprintf("frame-%04d.png", seg.Index)),
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	frames := make([]model.Frame, len(tl.Segments))
	var failed error
	for r := range results {
		if r.err != nil {
			if failed == nil {
				failed = r.err
			}
			continue
		}
		frames[r.position] = r.frame
		context.AddTempFile(r.frame.Path)
	}
	if failed != nil {
		c.Fail(context, failed)
		return
	}
	c.Succeed(context, frames)
}

type frameJob struct {
	position int
	segment  model.TextSegment
	query    background.Query
	path     string
}

type frameResult struct {
	position int
	frame    model.Frame
	err      error
}

func (c *FrameRenderer) frameWorker(context cor.Context, resolver background.Resolver, jobs <-chan *frameJob, results chan<- *frameResult, wg *sync.WaitGroup) {
	defer wg.Done()
	parent := context.GetContext()
	for job := range jobs {
		ctx, span := c.Tracer.Start(parent, fmt.Sprintf("%s_frame_%d", c.GetName(), job.segment.Index))
		span.SetAttributes(
			attribute.Int("index", job.segment.Index),
			attribute.Int("words", job.segment.WordCount()),
		)
		results <- c.renderFrame(ctx, context, resolver, job, span)
		span.End()
	}
}

func (c *FrameRenderer) renderFrame(ctx goctx.Context, context cor.Context, resolver background.Resolver, job *frameJob, span trace.Span) *frameResult {
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return &frameResult{position: job.position, err: err}
	}
	bg, err := background.Spec(ctx, resolver, job.query)
	if err != nil {
		c.fallback(ctx, context, job.segment.Index, err)
	}

	img := c.renderer.Render(job.segment, bg)
	if err := render.WritePNG(img, job.path); err != nil {
		span.SetStatus(codes.Error, "failed to write frame")
		return &frameResult{position: job.position, err: model.NewError(model.KindEncodingFailure, err)}
	}
	span.SetStatus(codes.Ok, "frame rendered")
	bounds := img.Bounds()
	return &frameResult{
		position: job.position,
		frame:    model.Frame{Index: job.segment.Index, Path: job.path, Width: bounds.Dx(), Height: bounds.Dy()},
	}
}

// fallback records a background that degraded to the gradient.
func (c *FrameRenderer) fallback(ctx goctx.Context, context cor.Context, index int, err error) {
	slog.WarnContext(ctx, "background unavailable, using gradient", "index", index, "error", err)
	if c.fallbackCounter != nil {
		c.fallbackCounter.Add(ctx, 1)
	}
	context.AddWarning(model.Warning{
		Kind:    model.WarningBackgroundFallback,
		Message: model.UserMessage(model.ErrBackgroundUnavailable),
	})
}
