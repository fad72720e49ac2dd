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
	"github.com/jaycherian/gcp-go-slideshow/internal/core/timeline"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TimelineAllocator splits the narration duration across the segments and
// attaches the configured effects. Timeline warnings are copied to the
// request so they reach the result.
type TimelineAllocator struct {
	cor.BaseCommand
	config *cloud.Config
}

func NewTimelineAllocator(name string, config *cloud.Config) *TimelineAllocator {
	out := &TimelineAllocator{BaseCommand: *cor.NewBaseCommand(name), config: config}
	out.InputParamName = ParamSegments
	out.OutputParamName = ParamTimeline
	return out
}

func (c *TimelineAllocator) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && narrationOf(context) != nil
}

func (c *TimelineAllocator) Execute(context cor.Context) {
	req := requestOf(context)
	narrated := narrationOf(context)

	tl, err := timeline.Allocate(segmentsOf(context), narrated.Duration, c.config.TimelineOptions(req))
	if err != nil {
		c.Fail(context, model.NewError(model.KindEncodingFailure, err))
		return
	}
	timeline.ApplyEffects(tl, c.config.EffectPolicy(req))
	tl.Narration = narrated

	for _, w := range tl.Warnings {
		slog.WarnContext(context.GetContext(), "timeline degraded", "kind", w.Kind, "message", w.Message)
		context.AddWarning(w)
	}
	trace.SpanFromContext(context.GetContext()).SetAttributes(
		attribute.String("timeline.policy", string(c.config.TimelineOptions(req).Policy)),
		attribute.Float64("timeline.total", tl.TotalDuration))
	c.Succeed(context, tl)
}
