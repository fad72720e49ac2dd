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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains the structures that only live for the
// duration of a single generation request. They are created by one stage of
// the pipeline, consumed by the next, and discarded when the request ends.
// None of them are shared between concurrent requests.
package model

import (
	"image"
	"math"
)

// SumTolerance is the allowed drift, in seconds, between the sum of the
// segment durations and the narration length.
const SumTolerance = 1e-6

// TextSegment is a contiguous run of words from the source text that will be
// displayed on a single frame.
type TextSegment struct {
	Index   int      `json:"index"`   // Zero-based position in the source order.
	Content string   `json:"content"` // The words joined by single spaces.
	Words   []string `json:"words"`   // The tokens of this segment, in source order.
}

// WordCount returns the number of tokens in the segment.
func (s TextSegment) WordCount() int {
	return len(s.Words)
}

// Effect is a single visual effect applied to a clip.
type Effect struct {
	Name   string             `json:"name"`   // One of the Effect* constants.
	Params map[string]float64 `json:"params"` // Effect specific parameters.
}

// Effect names, in the order they are applied to a clip.
const (
	EffectFadeIn    = "fade_in"
	EffectFadeOut   = "fade_out"
	EffectZoom      = "zoom"
	EffectOscillate = "oscillate"
)

// EffectSpec is the ordered list of effects for a clip.
type EffectSpec []Effect

// Param returns the named parameter of the named effect and whether it exists.
func (e EffectSpec) Param(effect string, param string) (float64, bool) {
	for _, fx := range e {
		if fx.Name == effect {
			v, ok := fx.Params[param]
			return v, ok
		}
	}
	return 0, false
}

// Has reports whether the spec contains the named effect.
func (e EffectSpec) Has(effect string) bool {
	for _, fx := range e {
		if fx.Name == effect {
			return true
		}
	}
	return false
}

// TimedSegment is a TextSegment with the on-screen duration assigned to it
// by the timeline allocator.
type TimedSegment struct {
	TextSegment
	Duration float64    `json:"duration"` // Seconds on screen; never negative.
	Effects  EffectSpec `json:"effects"`  // Effects for this clip.
}

// Narration is the synthesized speech for a request.
type Narration struct {
	Path     string  `json:"path"`     // Local path of the audio file.
	Duration float64 `json:"duration"` // Measured length in seconds.
	Format   string  `json:"format"`   // Container format, e.g. "mp3".
}

// Timeline is the per-request schedule of segments. It is consumed once by
// the compositor.
type Timeline struct {
	Segments      []TimedSegment `json:"segments"`
	TotalDuration float64        `json:"total_duration"`
	Narration     *Narration     `json:"narration,omitempty"`
	Warnings      []Warning      `json:"warnings,omitempty"`
}

// Sum returns the sum of all segment durations.
func (t *Timeline) Sum() float64 {
	sum := 0.0
	for _, s := range t.Segments {
		sum += s.Duration
	}
	return sum
}

// Balanced reports whether the durations add up to the total duration.
func (t *Timeline) Balanced() bool {
	return math.Abs(t.Sum()-t.TotalDuration) <= SumTolerance
}

// AddWarning appends a warning to the timeline.
func (t *Timeline) AddWarning(kind WarningKind, message string) {
	t.Warnings = append(t.Warnings, Warning{Kind: kind, Message: message})
}

// Frame is a rendered still for one segment.
type Frame struct {
	Index  int    // Index of the segment this frame shows.
	Path   string // Local path of the encoded PNG.
	Width  int
	Height int
}

// Style selects how backgrounds are sourced.
type Style string

const (
	StyleNature     Style = "Nature"
	StyleCity       Style = "City"
	StyleTechnology Style = "Technology"
	StyleAbstract   Style = "Abstract"
	StyleContextual Style = "Contextual"
	StyleGradient   Style = "Gradient"
)

// Styles lists every supported style.
var Styles = []Style{StyleNature, StyleCity, StyleTechnology, StyleAbstract, StyleContextual, StyleGradient}

// BackgroundSpec describes the background of one frame. A nil Image means
// the procedural gradient is used.
type BackgroundSpec struct {
	Style Style
	Query string
	Image image.Image
}
