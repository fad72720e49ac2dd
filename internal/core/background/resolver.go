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

// Package background resolves the background image of each frame.
//
// Every strategy implements Resolver. A nil image with a nil error means
// "use the procedural gradient". Resolution failures never abort a request:
// Spec converts them into a gradient background and reports the cause so the
// caller can log it.
package background

import (
	"context"
	"image"
	"net/http"
	"time"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"golang.org/x/time/rate"
)

// Query identifies the frame a background is requested for.
type Query struct {
	Index int         // Segment index; used for round-robin selection.
	Style model.Style // The requested style.
	Text  string      // Segment text; used for contextual keywords.
}

// Resolver supplies a background image for a frame.
type Resolver interface {
	Resolve(ctx context.Context, q Query) (image.Image, error)
}

// Options configures the network backed resolvers.
type Options struct {
	Timeout           time.Duration          // Per-image fetch timeout.
	RequestsPerSecond float64                // Shared fetch rate; <= 0 is unlimited.
	MaxBytes          int64                  // Largest accepted image body.
	MaxPixels         int64                  // Largest accepted width*height, checked before decoding.
	URLTemplate       string                 // e.g. "https://picsum.photos/seed/{query}/{width}/{height}"
	StyleQueries      map[model.Style]string // Search terms per style.
	Width             int
	Height            int
}

// DefaultOptions returns conservative fetch limits.
func DefaultOptions() Options {
	return Options{
		Timeout:           10 * time.Second,
		RequestsPerSecond: 2,
		MaxBytes:          10 << 20,
		MaxPixels:         DefaultMaxPixels,
		URLTemplate:       "https://picsum.photos/seed/{query}/{width}/{height}",
		StyleQueries: map[model.Style]string{
			model.StyleNature:     "nature,landscape",
			model.StyleCity:       "city,skyline",
			model.StyleTechnology: "technology,computer",
			model.StyleAbstract:   "abstract,texture",
		},
		Width:  1280,
		Height: 720,
	}
}

// Gradient never touches the network.
type Gradient struct{}

func (Gradient) Resolve(context.Context, Query) (image.Image, error) {
	return nil, nil
}

// Spec resolves q into a BackgroundSpec. On any failure the spec falls back
// to the gradient and the returned error, wrapped as BackgroundUnavailable,
// describes why.
func Spec(ctx context.Context, r Resolver, q Query) (model.BackgroundSpec, error) {
	spec := model.BackgroundSpec{Style: q.Style, Query: q.Text}
	if r == nil {
		return spec, nil
	}
	img, err := r.Resolve(ctx, q)
	if err != nil {
		return spec, model.NewError(model.KindBackgroundUnavailable, err)
	}
	if img != nil && !img.Bounds().Empty() {
		spec.Image = img
	}
	return spec, nil
}

// Select picks the resolver for a request: uploads first, then explicit
// URLs, then the style. The Gradient style and an empty URL template never
// reach the network.
//
// Inputs:
//   - req: The validated request.
//   - opts: Fetch configuration.
//   - client: HTTP client for network resolvers; nil uses a default client.
//
// Outputs:
//   - Resolver: The chosen strategy.
//   - []error: Uploads that were rejected while decoding.
func Select(req *model.GenerationRequest, opts Options, client *http.Client) (Resolver, []error) {
	if len(req.Uploads) > 0 {
		uploaded, rejected := NewUploaded(req.Uploads, opts.MaxPixels)
		if uploaded.Len() > 0 {
			return uploaded, rejected
		}
		return Gradient{}, rejected
	}
	if client == nil {
		client = &http.Client{}
	}
	fetcher := newFetcher(client, opts)
	if len(req.BackgroundURLs) > 0 {
		return &URLList{urls: req.BackgroundURLs, fetcher: fetcher}, nil
	}
	if req.Style == model.StyleGradient || req.Style == "" || opts.URLTemplate == "" {
		return Gradient{}, nil
	}
	return &Web{opts: opts, fetcher: fetcher}, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
