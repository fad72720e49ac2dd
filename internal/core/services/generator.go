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


// Package services exposes the pipeline to the outer adapters: the HTTP API,
// the Pub/Sub listener and the CLI all call a Generator.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/commands"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/workflow"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/jaycherian/gcp-go-slideshow/services"

// Generator runs generation requests. Each call owns its own chain context,
// so concurrent calls share no mutable state and every call removes its
// temporary files before it returns.
type Generator struct {
	config     *cloud.Config
	generation *workflow.GenerationWorkflow
	message    *workflow.RequestMessageWorkflow
}

func NewGenerator(config *cloud.Config, deps workflow.Dependencies) *Generator {
	return &Generator{
		config:     config,
		generation: workflow.NewGenerationWorkflow(config, deps),
		message:    workflow.NewRequestMessageWorkflow(config, deps),
	}
}

// Generate runs req to completion.
//
// Inputs:
//   - ctx: Bounds the whole request; cancelling it aborts the pipeline.
//   - req: The request. Empty optional fields take the configured defaults.
//
// Outputs:
//   - *model.Result: The published artifacts. Never partially filled.
//   - error: The first error recorded by the pipeline, typed as *model.Error
//     where the failure class is known.
func (g *Generator) Generate(ctx context.Context, req *model.GenerationRequest) (*model.Result, error) {
	if req == nil {
		return nil, model.NewErrorf(model.KindInvalidRequest, "no request")
	}
	return g.run(ctx, "generate", func(chCtx cor.Context) {
		chCtx.Add(commands.ParamRequest, req)
		g.generation.Execute(chCtx)
	})
}

// GenerateMessage runs a JSON encoded request, as delivered by Pub/Sub.
func (g *Generator) GenerateMessage(ctx context.Context, data []byte) (*model.Result, error) {
	return g.run(ctx, "generate-message", func(chCtx cor.Context) {
		chCtx.Add(cor.CtxIn, data)
		g.message.Execute(chCtx)
	})
}

func (g *Generator) run(ctx context.Context, name string, execute func(cor.Context)) (*model.Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	defer span.End()

	chCtx := cor.NewBaseContextWithTempRoot(g.config.Application.TempDir)
	defer chCtx.Close()
	chCtx.SetContext(ctx)

	execute(chCtx)

	if err := chCtx.FirstError(); err != nil {
		span.SetStatus(codes.Error, string(model.KindOf(err)))
		for _, e := range chCtx.GetErrors() {
			slog.ErrorContext(ctx, "generation failed", "error", e)
		}
		return nil, err
	}
	result, ok := chCtx.Get(commands.ParamResult).(*model.Result)
	if !ok {
		return nil, fmt.Errorf("generation finished without a result")
	}
	span.SetAttributes(
		attribute.String("request_id", result.RequestID),
		attribute.Int("segments", result.Segments),
		attribute.Float64("duration", result.Duration))
	span.SetStatus(codes.Ok, "generated")
	return result, nil
}
