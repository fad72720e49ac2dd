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

// Package commands implements the steps of the generation pipeline as
// cor.Command values. Each command reads what it needs from well-known
// context keys, records a typed model.Error on failure and stores its output
// under its own key so later steps can find it.
package commands

import (
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// Context keys shared by the pipeline commands.
const (
	ParamRequest   = "__request__"   // *model.GenerationRequest
	ParamNarration = "__narration__" // *model.Narration
	ParamSegments  = "__segments__"  // []model.TextSegment
	ParamTimeline  = "__timeline__"  // *model.Timeline
	ParamFrames    = "__frames__"    // []model.Frame
	ParamVideoPath = "__video__"     // string
	ParamPublished = "__published__" // []*model.Artifact
	ParamResult    = "__result__"    // *model.Result
)

// Content types of the published artifacts.
const (
	ContentTypeMP3 = "audio/mpeg"
	ContentTypeMP4 = "video/mp4"
)

func requestOf(context cor.Context) *model.GenerationRequest {
	req, _ := context.Get(ParamRequest).(*model.GenerationRequest)
	return req
}

func narrationOf(context cor.Context) *model.Narration {
	n, _ := context.Get(ParamNarration).(*model.Narration)
	return n
}

func segmentsOf(context cor.Context) []model.TextSegment {
	s, _ := context.Get(ParamSegments).([]model.TextSegment)
	return s
}

func timelineOf(context cor.Context) *model.Timeline {
	tl, _ := context.Get(ParamTimeline).(*model.Timeline)
	return tl
}

func framesOf(context cor.Context) []model.Frame {
	f, _ := context.Get(ParamFrames).([]model.Frame)
	return f
}

func publishedOf(context cor.Context) []*model.Artifact {
	p, _ := context.Get(ParamPublished).([]*model.Artifact)
	return p
}
