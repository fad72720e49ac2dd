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

package background

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels bounds the decoded size of a background image.
const DefaultMaxPixels = 40_000_000

// Uploaded cycles through the user's images in upload order.
type Uploaded struct {
	images []image.Image
}

// NewUploaded decodes uploads, keeping the ones that sniff as an image and
// decode cleanly within maxPixels. The rest are returned as errors.
func NewUploaded(uploads []model.UploadedImage, maxPixels int64) (*Uploaded, []error) {
	out := &Uploaded{images: make([]image.Image, 0, len(uploads))}
	rejected := make([]error, 0)
	for _, u := range uploads {
		img, err := Decode(u.Data, maxPixels)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("upload %q: %w", u.Name, err))
			continue
		}
		out.images = append(out.images, img)
	}
	return out, rejected
}

// Len returns the number of usable images.
func (u *Uploaded) Len() int {
	return len(u.images)
}

// Resolve returns image Index modulo the number of uploads.
func (u *Uploaded) Resolve(_ context.Context, q Query) (image.Image, error) {
	if len(u.images) == 0 {
		return nil, nil
	}
	i := q.Index % len(u.images)
	if i < 0 {
		i += len(u.images)
	}
	return u.images[i], nil
}

// Decode sniffs data and decodes it when it is a supported image format.
// The header is read first and images larger than maxPixels are rejected
// without allocating their raster; maxPixels <= 0 uses DefaultMaxPixels.
func Decode(data []byte, maxPixels int64) (image.Image, error) {
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, fmt.Errorf("not an image (detected %q)", kind.MIME.Value)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s header: %w", format, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("%s image %dx%d exceeds %d pixels", format, cfg.Width, cfg.Height, maxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return img, nil
}
