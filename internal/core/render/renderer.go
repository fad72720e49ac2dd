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

// Package render draws a single text segment onto a background and produces
// a fully opaque RGBA frame.
//
// Rendering is a pure function of the segment, the background and the
// renderer options: the same inputs always give the same pixels. A Renderer
// may be shared by concurrent goroutines.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Options configures the renderer.
type Options struct {
	Width      int         // Frame width in pixels.
	Height     int         // Frame height in pixels.
	WrapWidth  int         // Characters per line.
	FontPaths  []string    // Tried in order; the built-in face is the last resort.
	FontSize   float64     // Points at 72 DPI.
	Padding    int         // Pixels between the text block and the panel edge.
	PanelColor color.NRGBA // Semi-transparent panel behind the text.
	TextColor  color.NRGBA
}

// DefaultOptions returns a 1280x720 frame with white text on a dark panel.
func DefaultOptions() Options {
	return Options{
		Width:      1280,
		Height:     720,
		WrapWidth:  35,
		FontPaths:  DefaultFontPaths,
		FontSize:   40,
		Padding:    20,
		PanelColor: color.NRGBA{R: 0, G: 0, B: 0, A: 179},
		TextColor:  color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// Renderer draws frames.
type Renderer struct {
	opts  Options
	fonts *fontSource
}

// NewRenderer resolves the font chain once. It never fails: missing fonts
// fall back to the built-in face and invalid sizes to the defaults.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.WrapWidth <= 0 {
		opts.WrapWidth = def.WrapWidth
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.Padding < 0 {
		opts.Padding = def.Padding
	}
	if opts.TextColor.A == 0 {
		opts.TextColor = def.TextColor
	}
	return &Renderer{opts: opts, fonts: loadFont(opts.FontPaths, opts.FontSize)}
}

// Options returns the effective options.
func (r *Renderer) Options() Options {
	return r.opts
}

// UsesBuiltinFont reports whether no configured font could be loaded.
func (r *Renderer) UsesBuiltinFont() bool {
	return r.fonts.Builtin()
}

// Render draws segment over bg.
//
// Inputs:
//   - segment: The text to draw. Empty content yields a background-only frame.
//   - bg: The background. A nil Image selects the vertical gradient.
//
// Outputs:
//   - *image.RGBA: An opaque frame of the configured size.
func (r *Renderer) Render(segment model.TextSegment, bg model.BackgroundSpec) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	if bg.Image == nil || bg.Image.Bounds().Empty() {
		FillGradient(dst)
	} else {
		draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
		cover(dst, bg.Image)
	}

	lines := Wrap(segment.Content, r.opts.WrapWidth)
	if len(lines) == 0 {
		return dst
	}

	face, scale := r.fonts.newFace()
	defer face.Close()
	layer := r.textLayer(face, lines)

	lw, lh := layer.Bounds().Dx(), layer.Bounds().Dy()
	pad := r.opts.Padding
	maxW := float64(r.opts.Width - 4*pad)
	maxH := float64(r.opts.Height - 4*pad)
	fit := math.Min(float64(scale), math.Min(maxW/float64(lw), maxH/float64(lh)))
	if fit <= 0 {
		fit = 1
	}
	tw := int(math.Round(float64(lw) * fit))
	th := int(math.Round(float64(lh) * fit))

	cx, cy := r.opts.Width/2, r.opts.Height/2
	textRect := image.Rect(cx-tw/2, cy-th/2, cx-tw/2+tw, cy-th/2+th)
	panel := image.Rect(textRect.Min.X-pad, textRect.Min.Y-pad, textRect.Max.X+pad, textRect.Max.Y+pad).Intersect(dst.Bounds())
	draw.Draw(dst, panel, image.NewUniform(r.opts.PanelColor), image.Point{}, draw.Over)

	switch {
	case tw == lw && th == lh:
		draw.Draw(dst, textRect, layer, image.Point{}, draw.Over)
	case fit >= 1:
		xdraw.NearestNeighbor.Scale(dst, textRect, layer, layer.Bounds(), xdraw.Over, nil)
	default:
		xdraw.BiLinear.Scale(dst, textRect, layer, layer.Bounds(), xdraw.Over, nil)
	}
	return dst
}

// textLayer rasterizes the centered lines onto a transparent image sized to
// the text block.
func (r *Renderer) textLayer(face font.Face, lines []string) *image.RGBA {
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = (metrics.Ascent + metrics.Descent).Ceil()
	}
	d := &font.Drawer{Face: face, Src: image.NewUniform(r.opts.TextColor)}

	widths := make([]int, len(lines))
	blockW := 1
	for i, l := range lines {
		widths[i] = d.MeasureString(l).Ceil()
		if widths[i] > blockW {
			blockW = widths[i]
		}
	}
	layer := image.NewRGBA(image.Rect(0, 0, blockW, lineHeight*len(lines)))
	d.Dst = layer
	for i, l := range lines {
		d.Dot = fixed.Point26_6{
			X: fixed.I((blockW - widths[i]) / 2),
			Y: fixed.I(i*lineHeight) + metrics.Ascent,
		}
		d.DrawString(l)
	}
	return layer
}

// FillGradient paints a vertical gradient: red rises from 0 at the top to
// 255 at the bottom while blue falls from 255 to 0. Green is 0.
func FillGradient(dst *image.RGBA) {
	b := dst.Bounds()
	h := b.Dy()
	for y := 0; y < h; y++ {
		red := uint8(0)
		if h > 1 {
			red = uint8(255 * y / (h - 1))
		}
		row := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			row[x] = red
			row[x+1] = 0
			row[x+2] = 255 - red
			row[x+3] = 255
		}
	}
}

// cover scales src to fill dst, cropping the overflowing dimension around
// the center.
func cover(dst *image.RGBA, src image.Image) {
	sb := src.Bounds()
	db := dst.Bounds()
	scale := math.Max(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	cw := int(math.Round(float64(db.Dx()) / scale))
	ch := int(math.Round(float64(db.Dy()) / scale))
	if cw > sb.Dx() {
		cw = sb.Dx()
	}
	if ch > sb.Dy() {
		ch = sb.Dy()
	}
	x0 := sb.Min.X + (sb.Dx()-cw)/2
	y0 := sb.Min.Y + (sb.Dy()-ch)/2
	xdraw.BiLinear.Scale(dst, db, src, image.Rect(x0, y0, x0+cw, y0+ch), xdraw.Over, nil)
}

// WritePNG encodes img to path.
func WritePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseHexColor(in string) (color.NRGBA, error) {
	s := strings.TrimPrefix(strings.TrimSpace(in), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", in)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", in, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
