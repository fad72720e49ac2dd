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

// Package timeline assigns on-screen durations to text segments so that the
// frames line up with the narration, and attaches per-clip effect specs.
//
// Every policy computes the final segment as the total minus the sum of the
// others, so the durations always add up to the narration length except in
// the degraded case of FixedWithRemainder.
package timeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

var (
	ErrNoSegments          = errors.New("timeline: no segments to allocate")
	ErrNonPositiveDuration = errors.New("timeline: total duration must be positive")
)

const (
	DefaultSecondsPerWord    = 0.5
	DefaultMaxSegmentSeconds = 10.0
)

// Options parameterizes the allocation policy.
type Options struct {
	Policy            model.AllocationPolicy
	SecondsPerWord    float64 // FixedWithRemainder: seconds per word.
	MaxSegmentSeconds float64 // FixedWithRemainder: cap per segment.
}

// DefaultOptions returns the proportional policy.
func DefaultOptions() Options {
	return Options{
		Policy:            model.AllocateProportional,
		SecondsPerWord:    DefaultSecondsPerWord,
		MaxSegmentSeconds: DefaultMaxSegmentSeconds,
	}
}

// Allocate builds a timeline for segments spanning totalDuration seconds.
//
// Inputs:
//   - segments: The ordered segments, at least one.
//   - totalDuration: The narration length in seconds, strictly positive.
//   - opts: The allocation policy.
//
// Outputs:
//   - *model.Timeline: The timed segments in input order. Under
//     FixedWithRemainder an overrun clamps the final duration to zero and
//     records a DegradedTiming warning instead of failing.
//   - error: ErrNoSegments or ErrNonPositiveDuration.
func Allocate(segments []model.TextSegment, totalDuration float64, opts Options) (*model.Timeline, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}
	if totalDuration <= 0 || math.IsNaN(totalDuration) || math.IsInf(totalDuration, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrNonPositiveDuration, totalDuration)
	}

	tl := &model.Timeline{
		Segments:      make([]model.TimedSegment, len(segments)),
		TotalDuration: totalDuration,
	}
	for i, s := range segments {
		tl.Segments[i] = model.TimedSegment{TextSegment: s}
	}

	last := len(segments) - 1
	switch opts.Policy {
	case model.AllocateUniform:
		each := totalDuration / float64(len(segments))
		for i := 0; i < last; i++ {
			tl.Segments[i].Duration = each
		}
	case model.AllocateFixedWithRemainder:
		perWord := opts.SecondsPerWord
		if perWord <= 0 {
			perWord = DefaultSecondsPerWord
		}
		maxSeconds := opts.MaxSegmentSeconds
		if maxSeconds <= 0 {
			maxSeconds = DefaultMaxSegmentSeconds
		}
		for i := 0; i < last; i++ {
			tl.Segments[i].Duration = math.Min(float64(segments[i].WordCount())*perWord, maxSeconds)
		}
	default:
		totalWords := 0
		for _, s := range segments {
			totalWords += s.WordCount()
		}
		for i := 0; i < last; i++ {
			tl.Segments[i].Duration = totalDuration * float64(segments[i].WordCount()) / float64(totalWords)
		}
	}

	used := 0.0
	for i := 0; i < last; i++ {
		used += tl.Segments[i].Duration
	}
	remainder := totalDuration - used
	if remainder <= 0 {
		tl.Segments[last].Duration = 0
		tl.AddWarning(model.WarningDegradedTiming,
			fmt.Sprintf("fixed durations use %.3fs of %.3fs narration; final segment clamped to zero", used, totalDuration))
	} else {
		tl.Segments[last].Duration = remainder
	}
	return tl, nil
}
