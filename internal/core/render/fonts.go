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

package render

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// DefaultFontPaths is the bold sans chain tried on common Linux images.
var DefaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/ubuntu/Ubuntu-B.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
}

// bitmapScale enlarges the built-in 7x13 face so it stays legible at 720p.
const bitmapScale = 3

// fontSource yields a fresh face per render. Opentype faces cache glyphs
// and are not safe for concurrent use; the parsed font is.
type fontSource struct {
	font *opentype.Font // nil when falling back to the bitmap face
	size float64
	path string
}

// loadFont walks paths in order and keeps the first font that parses. When
// none does, the built-in bitmap face is used.
func loadFont(paths []string, size float64) *fontSource {
	for _, p := range paths {
		f, err := parseFont(p)
		if err != nil {
			slog.Debug("font unavailable, trying next", "path", p, "error", err)
			continue
		}
		return &fontSource{font: f, size: size, path: p}
	}
	slog.Info("no configured font could be loaded, using built-in face")
	return &fontSource{size: size}
}

func parseFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// newFace returns the face to draw with and the integer scale to apply to
// the rasterized text.
func (s *fontSource) newFace() (font.Face, int) {
	if s.font != nil {
		face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
			Size:    s.size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return face, 1
		}
		slog.Warn("failed to create face, using built-in face", "path", s.path, "error", err)
	}
	return basicfont.Face7x13, bitmapScale
}

// Builtin reports whether the bitmap fallback is in use.
func (s *fontSource) Builtin() bool {
	return s.font == nil
}
