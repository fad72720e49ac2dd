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

package compose

import (
	"fmt"
	"math"
	"strconv"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/timeline"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// seconds formats a duration for the ffmpeg command line.
func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Args expresses the plan as ffmpeg arguments: one looped still input per
// clip, per-clip effects, a cross-fade (or concat) chain in index order, the
// narration from t=0 optionally mixed over looped background music, and an
// output cut at the narration length.
//
// Options are passed as key/value pairs and expressions are written without
// commas or colons so they survive filter graph escaping unchanged.
func (p *Plan) Args(narrationPath string, musicPath string, outputPath string) []string {
	o := p.Options
	fps := strconv.Itoa(o.FPS)
	size := ffmpeg.KwArgs{"w": strconv.Itoa(o.Width), "h": strconv.Itoa(o.Height)}

	streams := make([]*ffmpeg.Stream, 0, len(p.Clips))
	for _, c := range p.Clips {
		s := ffmpeg.Input(c.Frame, ffmpeg.KwArgs{
			"loop":      "1",
			"framerate": fps,
			"t":         seconds(c.Length),
		}).Video().Filter("scale", ffmpeg.Args{}, size)
		s = p.applyEffects(s, c)
		s = s.Filter("fps", ffmpeg.Args{fps}).
			Filter("format", ffmpeg.Args{"yuv420p"}).
			Filter("setsar", ffmpeg.Args{"1"})
		streams = append(streams, s)
	}

	video := streams[0]
	switch {
	case len(streams) == 1:
	case p.Crossfade > 0:
		offsets := p.Offsets()
		for i := 1; i < len(streams); i++ {
			video = ffmpeg.Filter([]*ffmpeg.Stream{video, streams[i]}, "xfade", ffmpeg.Args{}, ffmpeg.KwArgs{
				"transition": "fade",
				"duration":   seconds(p.Crossfade),
				"offset":     seconds(offsets[i-1]),
			})
		}
	default:
		video = ffmpeg.Filter(streams, "concat", ffmpeg.Args{}, ffmpeg.KwArgs{
			"n": strconv.Itoa(len(streams)),
			"v": "1",
			"a": "0",
		})
	}

	audio := ffmpeg.Input(narrationPath).Audio()
	if musicPath != "" {
		music := ffmpeg.Input(musicPath, ffmpeg.KwArgs{"stream_loop": "-1"}).Audio().
			Filter("volume", ffmpeg.Args{num(o.MusicVolume)})
		audio = ffmpeg.Filter([]*ffmpeg.Stream{audio, music}, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
			"inputs":             "2",
			"duration":           "first",
			"dropout_transition": "0",
		})
	}

	out := ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outputPath, ffmpeg.KwArgs{
		"c:v":      o.VideoCodec,
		"c:a":      o.AudioCodec,
		"preset":   o.Preset,
		"pix_fmt":  "yuv420p",
		"r":        fps,
		"t":        seconds(p.Total),
		"movflags": "+faststart",
	}).OverWriteOutput()
	return out.GetArgs()
}

// applyEffects adds the clip's effects in the order listed: fades, zoom, then
// vertical oscillation.
func (p *Plan) applyEffects(s *ffmpeg.Stream, c Clip) *ffmpeg.Stream {
	o := p.Options
	for _, fx := range c.Effects {
		switch fx.Name {
		case model.EffectFadeIn:
			d := fx.Params[timeline.ParamDuration]
			if d <= 0 {
				continue
			}
			s = s.Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "in", "st": "0", "d": seconds(d)})
		case model.EffectFadeOut:
			d := fx.Params[timeline.ParamDuration]
			if d <= 0 {
				continue
			}
			s = s.Filter("fade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "out", "st": seconds(math.Max(c.Length-d, 0)), "d": seconds(d)})
		case model.EffectZoom:
			s = s.Filter("zoompan", ffmpeg.Args{}, ffmpeg.KwArgs{
				"z":   ZoomExpression(fx, o.FPS),
				"x":   "iw/2-(iw/zoom/2)",
				"y":   "ih/2-(ih/zoom/2)",
				"d":   "1",
				"s":   fmt.Sprintf("%dx%d", o.Width, o.Height),
				"fps": strconv.Itoa(o.FPS),
			})
		case model.EffectOscillate:
			amp := fx.Params[timeline.ParamAmplitude]
			period := fx.Params[timeline.ParamPeriod]
			if amp <= 0 || period <= 0 {
				continue
			}
			margin := int(math.Ceil(amp))
			s = s.Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{"w": strconv.Itoa(o.Width), "h": strconv.Itoa(o.Height + 2*margin)}).
				Filter("crop", ffmpeg.Args{}, ffmpeg.KwArgs{
					"w": strconv.Itoa(o.Width),
					"h": strconv.Itoa(o.Height),
					"x": "0",
					"y": OscillationExpression(float64(margin), amp, period),
				})
		}
	}
	return s
}

// ZoomExpression returns the zoompan zoom factor as a function of the output
// frame number "on". Linear grows by rate per second; sinusoidal swings
// between 1 and 1+rate*period and back once per clip period.
func ZoomExpression(fx model.Effect, fps int) string {
	rate := fx.Params[timeline.ParamRate]
	perFrame := rate / float64(fps)
	if fx.Params[timeline.ParamMode] == 1 {
		period := fx.Params[timeline.ParamPeriod]
		if period <= 0 {
			period = 1
		}
		omega := 2 * math.Pi / (period * float64(fps))
		return fmt.Sprintf("1+%s*(1-cos(%s*on))", num(rate*period/2), num(omega))
	}
	return fmt.Sprintf("1+%s*on", num(perFrame))
}

// OscillationExpression returns the crop y offset as a function of "t".
func OscillationExpression(center float64, amplitude float64, period float64) string {
	return fmt.Sprintf("%s+%s*sin(%s*t)", num(center), num(amplitude), num(2*math.Pi/period))
}
