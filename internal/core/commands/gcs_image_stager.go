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
	"path"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// GCSImageStager downloads the background images a request references by
// gs:// URI and appends them to the request's uploads. Backgrounds are best
// effort: an object that cannot be read becomes a warning, never an error.
type GCSImageStager struct {
	cor.BaseCommand
	client   *storage.Client // May be nil when no storage is configured.
	maxBytes int64
}

func NewGCSImageStager(name string, client *storage.Client, maxBytes int64) *GCSImageStager {
	out := &GCSImageStager{BaseCommand: *cor.NewBaseCommand(name), client: client, maxBytes: maxBytes}
	out.InputParamName = ParamRequest
	out.OutputParamName = ParamRequest
	return out
}

func (c *GCSImageStager) Execute(context cor.Context) {
	req := requestOf(context)
	if len(req.ImageObjects) > 0 && c.client == nil {
		c.warn(context, fmt.Sprintf("%d image objects ignored: no storage client", len(req.ImageObjects)))
		req.ImageObjects = nil
	}
	for _, uri := range req.ImageObjects {
		obj, err := cloud.ParseGCSURI(uri)
		if err != nil {
			c.warn(context, err.Error())
			continue
		}
		data, err := cloud.ReadGCSObject(context.GetContext(), c.client, obj, c.maxBytes)
		if err != nil {
			c.warn(context, err.Error())
			continue
		}
		req.Uploads = append(req.Uploads, model.UploadedImage{Name: path.Base(obj.Name), Data: data})
		slog.InfoContext(context.GetContext(), "staged background image", "object", obj.String(), "bytes", len(data))
	}
	c.Succeed(context, req)
}

func (c *GCSImageStager) warn(context cor.Context, message string) {
	slog.WarnContext(context.GetContext(), "background image unavailable", "reason", message)
	context.AddWarning(model.Warning{Kind: model.WarningBackgroundFallback, Message: "A background image could not be loaded."})
}
