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

// Package compose turns a timeline and its rendered frames into a video.
//
// Composition happens in two steps. NewPlan is pure: it orders the clips,
// drops zero-length ones and works out cross-fade offsets. Compositor then
// expresses the plan as an ffmpeg filter graph and runs the encoder.
//
// Cross-fades never shift the timeline. Every clip except the last is
// extended by the cross-fade length, and each transition starts at the
// nominal boundary between two segments, so the visual track is exactly as
// long as the narration.
package compose

import (
	"errors"
	"fmt"
	"math"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

var (
	ErrFrameMismatch = errors.New("compose: frames do not match timeline segments")
	ErrOutOfOrder    = errors.New("compose: clips are not in index order")
	ErrEmptyTimeline = errors.New("compose: timeline has no clip with a positive duration")
)

// Options configures composition.
type Options struct {
	FPS         int     // Output frame rate.
	Crossfade   float64 // Seconds of overlap between adjacent clips; 0 disables.
	Width       int
	Height      int
	VideoCodec  string
	AudioCodec  string
	Preset      string  // x264 preset.
	MusicVolume float64 // Linear gain applied to the background music.
}

// DefaultOptions returns 24 fps H.264/AAC at 1280x720 with a half second
// cross-fade.
func DefaultOptions() Options {
	return Options{
		FPS:         24,
		Crossfade:   0.5,
		Width:       1280,
		Height:      720,
		VideoCodec:  "libx264",
		AudioCodec:  "aac",
		Preset:      "medium",
		MusicVolume: 0.1,
	}
}

// Clip is one still frame shown for a stretch of the timeline.
type Clip struct {
	Index    int              // Segment index.
	Frame    string           // Path of the rendered PNG.
	Start    float64          // Nominal start on the timeline.
	Duration float64          // Nominal on-screen duration.
	Length   float64          // Encoded length: Duration plus the overlap into the next clip.
	Effects  model.EffectSpec // Effects in application order.
}

// Plan is the complete, ordered description of the visual track.
type Plan struct {
	Clips     []Clip
	Crossfade float64 // Effective cross-fade after clamping to the shortest clip.
	Total     float64 // Narration length; the output is cut here.
	Options   Options
}

// NewPlan validates ordering and builds the clip list.
//
// Inputs:
//   - tl: The allocated timeline with effects attached.
//   - frames: One rendered frame per timeline segment, in the same order.
//   - opts: Composition options.
//
// Outputs:
//   - *Plan: The clips in strict index order, zero-length clips removed.
//   - error: ErrFrameMismatch, ErrOutOfOrder or ErrEmptyTimeline.
func NewPlan(tl *model.Timeline, frames []model.Frame, opts Options) (*Plan, error) {
	if tl == nil || len(frames) != len(tl.Segments) {
		return nil, ErrFrameMismatch
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultOptions().FPS
	}
	clips := make([]Clip, 0, len(frames))
	prev := -1
	start := 0.0
	for i, seg := range tl.Segments {
		if seg.Index <= prev {
			return nil, fmt.Errorf("%w: segment %d follows %d", ErrOutOfOrder, seg.Index, prev)
		}
		if frames[i].Index != seg.Index {
			return nil, fmt.Errorf("%w: frame %d paired with segment %d", ErrOutOfOrder, frames[i].Index, seg.Index)
		}
		prev = seg.Index
		if seg.Duration <= 0 {
			continue
		}
		clips = append(clips, Clip{
			Index:    seg.Index,
			Frame:    frames[i].Path,
			Start:    start,
			Duration: seg.Duration,
			Length:   seg.Duration,
			Effects:  seg.Effects,
		})
		start += seg.Duration
	}
	if len(clips) == 0 {
		return nil, ErrEmptyTimeline
	}

	crossfade := 0.0
	if len(clips) > 1 && opts.Crossfade > 0 {
		crossfade = opts.Crossfade
		for _, c := range clips {
			crossfade = math.Min(crossfade, c.Duration)
		}
		// Shorter than a frame is not visible.
		if crossfade < 1/float64(opts.FPS) {
			crossfade = 0
		}
	}
	for i := 0; i < len(clips)-1; i++ {
		clips[i].Length = clips[i].Duration + crossfade
	}
	return &Plan{Clips: clips, Crossfade: crossfade, Total: tl.TotalDuration, Options: opts}, nil
}

// VisualDuration is the nominal length of the visual track.
func (p *Plan) VisualDuration() float64 {
	last := p.Clips[len(p.Clips)-1]
	return last.Start + last.Duration
}

// Offsets returns the start time of each cross-fade, measured on the output
// of the previous transition. Transition k blends clip k into clip k+1.
func (p *Plan) Offsets() []float64 {
	out := make([]float64, 0, len(p.Clips)-1)
	for i := 1; i < len(p.Clips); i++ {
		out = append(out, p.Clips[i].Start)
	}
	return out
}
