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


package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/services"
)

// Dashboard registers the generation history routes under /stats.
func Dashboard(r *gin.RouterGroup, h *Handlers) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			if h.History == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "History is not enabled"})
				return
			}
			count, err := strconv.Atoi(c.DefaultQuery("count", "20"))
			if err != nil {
				count = 20
			}
			out, err := h.History.Recent(c.Request.Context(), count)
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "failed to read history", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		stats.GET("/:id", func(c *gin.Context) {
			if h.History == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "History is not enabled"})
				return
			}
			out, err := h.History.Get(c.Request.Context(), c.Param("id"))
			if errors.Is(err, services.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Generation not found"})
				return
			}
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "failed to read history", "error", err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
