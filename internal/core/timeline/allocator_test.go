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

package timeline_test

import (
	"math"
	"testing"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/segment"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segmentsOf(t *testing.T, text string) []model.TextSegment {
	segments, err := segment.Segment(text, segment.DefaultOptions())
	require.NoError(t, err)
	return segments
}

func TestUniformScenario(t *testing.T) {
	tl, err := timeline.Allocate(segmentsOf(t, "Hello world. This is a test."), 4.0,
		timeline.Options{Policy: model.AllocateUniform})
	require.NoError(t, err)
	require.Len(t, tl.Segments, 2)
	assert.InDelta(t, 2.0, tl.Segments[0].Duration, 1e-9)
	assert.InDelta(t, 2.0, tl.Segments[1].Duration, 1e-9)
	assert.True(t, tl.Balanced())
	assert.Empty(t, tl.Warnings)
}

func TestProportional(t *testing.T) {
	tl, err := timeline.Allocate(segmentsOf(t, "One two three. Four."), 8.0, timeline.DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 6.0, tl.Segments[0].Duration, 1e-9)
	assert.InDelta(t, 2.0, tl.Segments[1].Duration, 1e-9)
}

func TestSumInvariant(t *testing.T) {
	texts := []string{
		model.ExampleText,
		"Single.",
		"A. B c. D e f. G h i j. K l m n o.",
	}
	totals := []float64{0.001, 1, 3.3333333, 17.77, 601.25}
	for _, text := range texts {
		for _, total := range totals {
			for _, policy := range []model.AllocationPolicy{model.AllocateUniform, model.AllocateProportional} {
				tl, err := timeline.Allocate(segmentsOf(t, text), total, timeline.Options{Policy: policy})
				require.NoError(t, err)
				assert.LessOrEqual(t, math.Abs(tl.Sum()-total), model.SumTolerance)
				for i, s := range tl.Segments {
					assert.Greater(t, s.Duration, 0.0)
					assert.Equal(t, i, s.Index)
				}
			}
		}
	}
}

func TestFixedWithRemainder(t *testing.T) {
	// 2 + 4 words -> 1s + 2s fixed, last absorbs 10 - 3.
	tl, err := timeline.Allocate(segmentsOf(t, "Two words. Now four words here. Last one."), 10,
		timeline.Options{Policy: model.AllocateFixedWithRemainder})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, tl.Segments[0].Duration, 1e-9)
	assert.InDelta(t, 2.0, tl.Segments[1].Duration, 1e-9)
	assert.InDelta(t, 7.0, tl.Segments[2].Duration, 1e-9)
	assert.True(t, tl.Balanced())
	assert.Empty(t, tl.Warnings)
}

func TestFixedWithRemainderCapsLongSegments(t *testing.T) {
	long := "a b c d e f g h i j k l m n o p q r s t u v w x y z."
	tl, err := timeline.Allocate(segmentsOf(t, long+" End."), 30,
		timeline.Options{Policy: model.AllocateFixedWithRemainder})
	require.NoError(t, err)
	assert.InDelta(t, timeline.DefaultMaxSegmentSeconds, tl.Segments[0].Duration, 1e-9)
	assert.InDelta(t, 20.0, tl.Segments[1].Duration, 1e-9)
}

// Fixed durations that overrun the narration are not repaired: the final
// segment is clamped to zero and the timeline carries a DegradedTiming
// warning. The sum then exceeds the total.
func TestFixedWithRemainderDegradedTiming(t *testing.T) {
	tl, err := timeline.Allocate(segmentsOf(t, "One two three four. Five six seven eight. Nine."), 3,
		timeline.Options{Policy: model.AllocateFixedWithRemainder})
	require.NoError(t, err)
	require.Len(t, tl.Segments, 3)
	assert.Equal(t, 0.0, tl.Segments[2].Duration)
	require.Len(t, tl.Warnings, 1)
	assert.Equal(t, model.WarningDegradedTiming, tl.Warnings[0].Kind)
	assert.False(t, tl.Balanced())
}

func TestFixedWithRemainderExactZeroResidual(t *testing.T) {
	tl, err := timeline.Allocate(segmentsOf(t, "One two. Three."), 1,
		timeline.Options{Policy: model.AllocateFixedWithRemainder})
	require.NoError(t, err)
	assert.Equal(t, 0.0, tl.Segments[1].Duration)
	assert.Len(t, tl.Warnings, 1)
}

func TestAllocateRejectsBadInput(t *testing.T) {
	_, err := timeline.Allocate(nil, 4, timeline.DefaultOptions())
	assert.ErrorIs(t, err, timeline.ErrNoSegments)

	_, err = timeline.Allocate(segmentsOf(t, "Hi."), 0, timeline.DefaultOptions())
	assert.ErrorIs(t, err, timeline.ErrNonPositiveDuration)

	_, err = timeline.Allocate(segmentsOf(t, "Hi."), math.NaN(), timeline.DefaultOptions())
	assert.ErrorIs(t, err, timeline.ErrNonPositiveDuration)
}

func TestApplyEffects(t *testing.T) {
	tl, err := timeline.Allocate(segmentsOf(t, "Short. A slightly longer sentence here."), 3,
		timeline.Options{Policy: model.AllocateUniform})
	require.NoError(t, err)

	policy := timeline.DefaultEffectPolicy()
	policy.Oscillate = true
	timeline.ApplyEffects(tl, policy)

	names := make([]string, 0)
	for _, fx := range tl.Segments[0].Effects {
		names = append(names, fx.Name)
	}
	assert.Equal(t, []string{model.EffectFadeIn, model.EffectFadeOut, model.EffectZoom, model.EffectOscillate}, names)

	policy.Enabled = false
	timeline.ApplyEffects(tl, policy)
	assert.Empty(t, tl.Segments[0].Effects)
}

func TestApplyEffectsClampsFades(t *testing.T) {
	tl := &model.Timeline{TotalDuration: 0.4, Segments: []model.TimedSegment{{Duration: 0.4}}}
	timeline.ApplyEffects(tl, timeline.DefaultEffectPolicy())
	in, ok := tl.Segments[0].Effects.Param(model.EffectFadeIn, timeline.ParamDuration)
	require.True(t, ok)
	assert.InDelta(t, 0.2, in, 1e-9)
}
