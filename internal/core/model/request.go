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

package model

import (
	"fmt"
	"strings"
)

// Mode selects the artifacts a request produces.
type Mode string

const (
	ModeAudio Mode = "audio"
	ModeVideo Mode = "video"
)

// SegmentationMode selects how text is split into segments.
type SegmentationMode string

const (
	SegmentBySentence SegmentationMode = "sentence"
	SegmentByChunk    SegmentationMode = "chunk"
)

// AllocationPolicy selects how narration time is split between segments.
type AllocationPolicy string

const (
	AllocateUniform            AllocationPolicy = "uniform"
	AllocateProportional       AllocationPolicy = "proportional"
	AllocateFixedWithRemainder AllocationPolicy = "fixed"
)

// UploadedImage is a background image supplied by the user.
type UploadedImage struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// GenerationRequest is everything the shell hands to the pipeline.
type GenerationRequest struct {
	ID             string           `json:"id"`
	Text           string           `json:"text"`
	Mode           Mode             `json:"mode"`
	Style          Style            `json:"style"`
	Language       string           `json:"language,omitempty"`
	EffectsEnabled bool             `json:"effects"`
	Segmentation   SegmentationMode `json:"segmentation,omitempty"`
	Allocation     AllocationPolicy `json:"allocation,omitempty"`
	BackgroundURLs []string         `json:"background_urls,omitempty"`
	Uploads        []UploadedImage  `json:"uploads,omitempty"`
	ImageObjects   []string         `json:"image_objects,omitempty"` // gs://bucket/object images staged into Uploads.
	MusicPath      string           `json:"-"`                       // Optional local background music track.
}

// Validate normalizes empty enum fields to their defaults and rejects
// unknown values. It does not check the text; empty text is reported by
// the segmenter or the narrator as EmptyInput.
func (r *GenerationRequest) Validate() error {
	if r.Mode == "" {
		r.Mode = ModeVideo
	}
	mode, err := ParseMode(string(r.Mode))
	if err != nil {
		return NewError(KindInvalidRequest, err)
	}
	r.Mode = mode

	if r.Style == "" {
		r.Style = StyleGradient
	}
	style, err := ParseStyle(string(r.Style))
	if err != nil {
		return NewError(KindInvalidRequest, err)
	}
	r.Style = style

	switch r.Segmentation {
	case "":
		r.Segmentation = SegmentBySentence
	case SegmentBySentence, SegmentByChunk:
	default:
		return NewErrorf(KindInvalidRequest, "unknown segmentation mode %q", r.Segmentation)
	}

	switch r.Allocation {
	case "":
		r.Allocation = AllocateProportional
	case AllocateUniform, AllocateProportional, AllocateFixedWithRemainder:
	default:
		return NewErrorf(KindInvalidRequest, "unknown allocation policy %q", r.Allocation)
	}

	if r.Language == "" {
		r.Language = "en"
	}
	return nil
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(in string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(in))) {
	case ModeAudio:
		return ModeAudio, nil
	case ModeVideo:
		return ModeVideo, nil
	}
	return "", fmt.Errorf("unknown mode %q", in)
}

// ParseStyle parses a style name, case-insensitively.
func ParseStyle(in string) (Style, error) {
	for _, s := range Styles {
		if strings.EqualFold(string(s), strings.TrimSpace(in)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown style %q", in)
}
