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


// Package api exposes the generator over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Generator runs one generation request.
type Generator interface {
	Generate(ctx context.Context, req *model.GenerationRequest) (*model.Result, error)
}

// ArtifactOpener serves artifacts of the local store.
type ArtifactOpener interface {
	Open(name string) (*os.File, error)
}

// History reads past generation records.
type History interface {
	Recent(ctx context.Context, limit int) ([]*model.GenerationRecord, error)
	Get(ctx context.Context, requestID string) (*model.GenerationRecord, error)
}

// Handlers holds what the routes need. Artifacts and History are optional;
// their routes answer 404 when they are nil.
type Handlers struct {
	Generator      Generator
	Artifacts      ArtifactOpener
	History        History
	MaxUploadBytes int64
}

// NewRouter builds the engine with tracing, CORS and every route.
func NewRouter(h *Handlers, serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		GenerateRouter(apiV1, h)
		ArtifactRouter(apiV1, h)
		Dashboard(apiV1, h)
	}
	return r
}

// StatusOf maps a pipeline error to an HTTP status.
func StatusOf(err error) int {
	switch model.KindOf(err) {
	case model.KindEmptyInput, model.KindInvalidRequest:
		return http.StatusBadRequest
	case model.KindNarrationUnavailable:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusOf(err), gin.H{
		"error": model.UserMessage(err),
		"kind":  model.KindOf(err),
	})
}
