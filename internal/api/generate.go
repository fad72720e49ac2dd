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
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// ArtifactPath is where the local store's artifacts are served.
const ArtifactPath = "/api/v1/artifacts/"

// GenerateResponse is the body of a successful generation.
type GenerateResponse struct {
	*model.Result
	AudioURL string `json:"audio_url"`
	VideoURL string `json:"video_url,omitempty"`
}

// GenerateRouter registers POST /generate. The body is either a multipart
// form (text, mode, style, effects, segmentation, allocation, language,
// background_urls, files) or a JSON GenerationRequest.
func GenerateRouter(r *gin.RouterGroup, h *Handlers) {
	r.POST("/generate", func(c *gin.Context) {
		if h.MaxUploadBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
		}
		req, err := readRequest(c)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rejected generation request", "error", err)
			abortWithError(c, model.NewError(model.KindInvalidRequest, err))
			return
		}

		result, err := h.Generator.Generate(c.Request.Context(), req)
		if err != nil {
			abortWithError(c, err)
			return
		}
		out := &GenerateResponse{Result: result, AudioURL: DownloadURL(result.Audio)}
		if result.Video != nil {
			out.VideoURL = DownloadURL(result.Video)
		}
		c.JSON(http.StatusOK, out)
	})
}

// DownloadURL returns the artifact location, mapping bare local store names
// to the artifact route.
func DownloadURL(a *model.Artifact) string {
	if a == nil {
		return ""
	}
	if strings.Contains(a.Location, "://") {
		return a.Location
	}
	return ArtifactPath + a.Name
}

func readRequest(c *gin.Context) (*model.GenerationRequest, error) {
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		req := &model.GenerationRequest{}
		if err := c.ShouldBindJSON(req); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		// Server-side paths and bucket objects are never taken from HTTP
		// callers; only queued requests may reference them.
		req.MusicPath = ""
		req.ImageObjects = nil
		return req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("get form err: %w", err)
	}
	req := &model.GenerationRequest{
		Text:         c.PostForm("text"),
		Mode:         model.Mode(c.PostForm("mode")),
		Style:        model.Style(c.PostForm("style")),
		Language:     c.PostForm("language"),
		Segmentation: model.SegmentationMode(c.PostForm("segmentation")),
		Allocation:   model.AllocationPolicy(c.PostForm("allocation")),
	}
	if v := c.PostForm("effects"); v != "" {
		req.EffectsEnabled, err = parseFlag(v)
		if err != nil {
			return nil, err
		}
	}
	for _, v := range c.PostFormArray("background_urls") {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				req.BackgroundURLs = append(req.BackgroundURLs, u)
			}
		}
	}
	for _, file := range form.File["files"] {
		data, err := readFile(file)
		if err != nil {
			return nil, err
		}
		req.Uploads = append(req.Uploads, model.UploadedImage{Name: file.Filename, Data: data})
	}
	return req, nil
}

func parseFlag(v string) (bool, error) {
	if strings.EqualFold(v, "on") {
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid effects flag %q", v)
	}
	return b, nil
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("upload file err: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
