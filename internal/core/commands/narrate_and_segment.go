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

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/narration"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/segment"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// NarrateAndSegment synthesizes the narration and splits the text.
//
// Sentence segmentation does not depend on the audio and runs while the
// narration is synthesized. Fixed-chunk segmentation sizes its chunks from
// the measured duration, so it runs afterwards. With segmentation disabled
// only the narration is produced (audio mode).
type NarrateAndSegment struct {
	cor.BaseCommand
	narrator *narration.Narrator
	config   *cloud.Config
	segments bool
}

func NewNarrateAndSegment(name string, narrator *narration.Narrator, config *cloud.Config, segments bool) *NarrateAndSegment {
	out := &NarrateAndSegment{
		BaseCommand: *cor.NewBaseCommand(name),
		narrator:    narrator,
		config:      config,
		segments:    segments,
	}
	out.InputParamName = ParamRequest
	out.OutputParamName = ParamNarration
	return out
}

func (c *NarrateAndSegment) Execute(context cor.Context) {
	req := requestOf(context)
	dir, err := context.TempDir()
	if err != nil {
		c.Fail(context, model.NewError(model.KindNarrationUnavailable, err))
		return
	}
	opts := c.config.SegmentOptions(req)
	// Text without a single word is rejected before any synthesis starts.
	if _, err := segment.Segment(req.Text, segment.DefaultOptions()); err != nil {
		c.Fail(context, err)
		return
	}

	var (
		narrated *model.Narration
		segments []model.TextSegment
	)
	g, gctx := errgroup.WithContext(context.GetContext())
	g.Go(func() error {
		n, err := c.narrator.Narrate(gctx, req.Text, req.Language, dir)
		if err != nil {
			return err
		}
		narrated = n
		return nil
	})
	if c.segments && opts.Mode != model.SegmentByChunk {
		g.Go(func() error {
			s, err := segment.Segment(req.Text, opts)
			segments = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if narrated != nil {
			context.AddTempFile(narrated.Path)
		}
		c.Fail(context, err)
		return
	}
	context.AddTempFile(narrated.Path)

	if c.segments && opts.Mode == model.SegmentByChunk {
		opts.EstimatedDuration = narrated.Duration
		segments, err = segment.Segment(req.Text, opts)
		if err != nil {
			c.Fail(context, err)
			return
		}
	}

	if c.segments {
		context.Add(ParamSegments, segments)
	}
	slog.InfoContext(context.GetContext(), "narration ready",
		"request_id", req.ID, "duration", narrated.Duration, "segments", len(segments))
	trace.SpanFromContext(context.GetContext()).SetAttributes(
		attribute.Float64("narration.duration", narrated.Duration),
		attribute.Int("segments", len(segments)))
	c.Succeed(context, narrated)
}
