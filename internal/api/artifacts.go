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
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
)

// ArtifactRouter registers GET /artifacts/:name for the local store.
func ArtifactRouter(r *gin.RouterGroup, h *Handlers) {
	r.GET("/artifacts/:name", func(c *gin.Context) {
		if h.Artifacts == nil {
			c.Status(http.StatusNotFound)
			return
		}
		name := c.Param("name")
		f, err := h.Artifacts.Open(name)
		if errors.Is(err, cloud.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Artifact not found"})
			return
		}
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "failed to open artifact", "name", name, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		defer f.Close()

		head := make([]byte, 261)
		n, _ := io.ReadFull(f, head)
		contentType := "application/octet-stream"
		if kind, err := filetype.Match(head[:n]); err == nil && kind != filetype.Unknown {
			contentType = kind.MIME.Value
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		info, err := f.Stat()
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Header("Content-Type", contentType)
		http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
	})
}
