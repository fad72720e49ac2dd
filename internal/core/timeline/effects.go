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

package timeline

import (
	"math"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// Zoom modes.
const (
	ZoomLinear     = "linear"
	ZoomSinusoidal = "sine"
)

// Effect parameter names.
const (
	ParamDuration  = "duration"
	ParamRate      = "rate"
	ParamMode      = "mode" // 0 linear, 1 sinusoidal
	ParamPeriod    = "period"
	ParamAmplitude = "amplitude"
)

// EffectPolicy toggles and tunes the per-clip effects.
type EffectPolicy struct {
	Enabled            bool    `toml:"enabled"`
	FadeIn             float64 `toml:"fade_in"`             // Seconds; 0 disables.
	FadeOut            float64 `toml:"fade_out"`            // Seconds; 0 disables.
	Zoom               bool    `toml:"zoom"`
	ZoomMode           string  `toml:"zoom_mode"`           // "linear" or "sine".
	ZoomRate           float64 `toml:"zoom_rate"`           // Scale increase per second, e.g. 0.04.
	Oscillate          bool    `toml:"oscillate"`
	OscillateAmplitude float64 `toml:"oscillate_amplitude"` // Pixels.
	OscillatePeriod    float64 `toml:"oscillate_period"`    // Seconds.
}

// DefaultEffectPolicy returns the effects used when a request enables them.
func DefaultEffectPolicy() EffectPolicy {
	return EffectPolicy{
		Enabled:            true,
		FadeIn:             0.5,
		FadeOut:            0.5,
		Zoom:               true,
		ZoomMode:           ZoomLinear,
		ZoomRate:           0.04,
		Oscillate:          false,
		OscillateAmplitude: 10,
		OscillatePeriod:    4,
	}
}

// ApplyEffects attaches an effect spec to every segment of tl. Effects are
// always listed in the order fade-in, fade-out, zoom, oscillation. Fades are
// shortened to at most half of a clip so they never overlap each other.
func ApplyEffects(tl *model.Timeline, policy EffectPolicy) {
	for i := range tl.Segments {
		seg := &tl.Segments[i]
		seg.Effects = model.EffectSpec{}
		if !policy.Enabled || seg.Duration <= 0 {
			continue
		}
		half := seg.Duration / 2
		if policy.FadeIn > 0 {
			seg.Effects = append(seg.Effects, model.Effect{
				Name:   model.EffectFadeIn,
				Params: map[string]float64{ParamDuration: math.Min(policy.FadeIn, half)},
			})
		}
		if policy.FadeOut > 0 {
			seg.Effects = append(seg.Effects, model.Effect{
				Name:   model.EffectFadeOut,
				Params: map[string]float64{ParamDuration: math.Min(policy.FadeOut, half)},
			})
		}
		if policy.Zoom && policy.ZoomRate > 0 {
			mode := 0.0
			if policy.ZoomMode == ZoomSinusoidal {
				mode = 1
			}
			seg.Effects = append(seg.Effects, model.Effect{
				Name:   model.EffectZoom,
				Params: map[string]float64{ParamRate: policy.ZoomRate, ParamMode: mode, ParamPeriod: math.Max(seg.Duration, 1)},
			})
		}
		if policy.Oscillate && policy.OscillateAmplitude > 0 && policy.OscillatePeriod > 0 {
			seg.Effects = append(seg.Effects, model.Effect{
				Name:   model.EffectOscillate,
				Params: map[string]float64{ParamAmplitude: policy.OscillateAmplitude, ParamPeriod: policy.OscillatePeriod},
			})
		}
	}
}
