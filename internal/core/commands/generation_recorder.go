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
	"time"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// GenerationRecorder writes one GenerationRecord per request, succeeded or
// failed. A sink failure is logged and never fails the request.
type GenerationRecorder struct {
	cor.BaseCommand
	sink cloud.RecordSink
}

func NewGenerationRecorder(name string, sink cloud.RecordSink) *GenerationRecorder {
	out := &GenerationRecorder{BaseCommand: *cor.NewBaseCommand(name), sink: sink}
	out.InputParamName = ParamRequest
	return out
}

func (c *GenerationRecorder) Execute(context cor.Context) {
	record := NewGenerationRecord(context)
	if err := c.sink.Write(context.GetContext(), record); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.ErrorContext(context.GetContext(), "failed to write generation record", "request_id", record.RequestID, "error", err)
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}

// NewGenerationRecord summarizes the request held in context.
func NewGenerationRecord(context cor.Context) *model.GenerationRecord {
	req := requestOf(context)
	record := &model.GenerationRecord{
		RequestID: req.ID,
		Mode:      string(req.Mode),
		Style:     string(req.Style),
		Status:    model.StatusSucceeded,
		CreatedAt: time.Now().UTC(),
	}
	if n := narrationOf(context); n != nil {
		record.NarrationSeconds = n.Duration
	}
	if tl := timelineOf(context); tl != nil {
		record.Segments = len(tl.Segments)
	} else {
		record.Segments = len(segmentsOf(context))
	}
	if err := context.FirstError(); err != nil {
		record.Status = model.StatusFailed
		record.ErrorKind = string(model.KindOf(err))
	}
	for _, w := range context.GetWarnings() {
		record.Warnings = append(record.Warnings, fmt.Sprintf("%s: %s", w.Kind, w.Message))
	}
	return record
}
