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

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
)

// RequestValidator fills request defaults, assigns an id and rejects
// unknown enum values with InvalidRequest.
type RequestValidator struct {
	cor.BaseCommand
	config *cloud.Config
}

func NewRequestValidator(name string, config *cloud.Config) *RequestValidator {
	out := &RequestValidator{BaseCommand: *cor.NewBaseCommand(name), config: config}
	out.InputParamName = ParamRequest
	out.OutputParamName = ParamRequest
	return out
}

func (c *RequestValidator) Execute(context cor.Context) {
	req := requestOf(context)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Language == "" {
		req.Language = c.config.Narration.Language
	}
	if req.MusicPath == "" {
		req.MusicPath = c.config.Compose.MusicPath
	}
	if err := req.Validate(); err != nil {
		c.Fail(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "accepted generation request",
		"request_id", req.ID, "mode", req.Mode, "style", req.Style,
		"segmentation", req.Segmentation, "allocation", req.Allocation,
		"uploads", len(req.Uploads), "effects", req.EffectsEnabled)
	c.Succeed(context, req)
}
