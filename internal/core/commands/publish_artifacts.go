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
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// ArtifactPublisher copies the finished narration, and the video in video
// mode, from the request's temp directory into the artifact store and
// assembles the result. Every artifact is tracked under ParamPublished as
// soon as it exists so a later failure can remove it.
type ArtifactPublisher struct {
	cor.BaseCommand
	store cloud.ArtifactStore
}

func NewArtifactPublisher(name string, store cloud.ArtifactStore) *ArtifactPublisher {
	out := &ArtifactPublisher{BaseCommand: *cor.NewBaseCommand(name), store: store}
	out.InputParamName = ParamNarration
	out.OutputParamName = ParamResult
	return out
}

func (c *ArtifactPublisher) IsExecutable(context cor.Context) bool {
	if !c.BaseCommand.IsExecutable(context) || requestOf(context) == nil {
		return false
	}
	if requestOf(context).Mode == model.ModeVideo {
		video, _ := context.Get(ParamVideoPath).(string)
		return video != ""
	}
	return true
}

func (c *ArtifactPublisher) Execute(context cor.Context) {
	req := requestOf(context)
	narrated := narrationOf(context)

	result := &model.Result{RequestID: req.ID, Duration: narrated.Duration}
	audio, err := c.publish(context, narrated.Path, ContentTypeMP3)
	if err != nil {
		c.Fail(context, err)
		return
	}
	result.Audio = audio

	if req.Mode == model.ModeVideo {
		video, err := c.publish(context, context.Get(ParamVideoPath).(string), ContentTypeMP4)
		if err != nil {
			c.Fail(context, err)
			return
		}
		result.Video = video
	}

	if tl := timelineOf(context); tl != nil {
		result.Segments = len(tl.Segments)
	} else {
		result.Segments = len(segmentsOf(context))
	}
	result.Warnings = context.GetWarnings()
	c.Succeed(context, result)
}

func (c *ArtifactPublisher) publish(context cor.Context, path string, contentType string) (*model.Artifact, error) {
	artifact, err := c.store.Publish(context.GetContext(), path, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", contentType, err)
	}
	context.Add(ParamPublished, append(publishedOf(context), artifact))
	slog.InfoContext(context.GetContext(), "published artifact",
		"name", artifact.Name, "content_type", artifact.ContentType, "size", artifact.Size)
	return artifact, nil
}
