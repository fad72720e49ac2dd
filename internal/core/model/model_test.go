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

package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestErrorKindMatching(t *testing.T) {
	err := model.NewError(model.KindNarrationUnavailable, errors.New("dial tcp: timeout"))
	wrapped := fmt.Errorf("narrate: %w", err)

	assert.True(t, errors.Is(wrapped, model.ErrNarrationUnavailable))
	assert.False(t, errors.Is(wrapped, model.ErrEncodingFailure))
	assert.Equal(t, model.KindNarrationUnavailable, model.KindOf(wrapped))
	assert.NotContains(t, model.UserMessage(wrapped), "dial tcp")
	assert.Equal(t, "Something went wrong. Please try again.", model.UserMessage(errors.New("/tmp/x failed")))
}

func TestValidateDefaults(t *testing.T) {
	req := &model.GenerationRequest{Text: "Hello."}
	assert.NoError(t, req.Validate())
	assert.Equal(t, model.ModeVideo, req.Mode)
	assert.Equal(t, model.StyleGradient, req.Style)
	assert.Equal(t, model.SegmentBySentence, req.Segmentation)
	assert.Equal(t, model.AllocateProportional, req.Allocation)
	assert.Equal(t, "en", req.Language)

	req = &model.GenerationRequest{Text: "Hello.", Style: "city", Mode: "AUDIO"}
	assert.NoError(t, req.Validate())
	assert.Equal(t, model.StyleCity, req.Style)
	assert.Equal(t, model.ModeAudio, req.Mode)

	req = &model.GenerationRequest{Text: "Hello.", Style: "Sepia"}
	assert.ErrorIs(t, req.Validate(), model.ErrInvalidRequest)

	req = &model.GenerationRequest{Text: "Hello.", Allocation: "random"}
	assert.ErrorIs(t, req.Validate(), model.ErrInvalidRequest)
}

func TestTimelineBalanced(t *testing.T) {
	tl := &model.Timeline{TotalDuration: 3}
	tl.Segments = []model.TimedSegment{{Duration: 1}, {Duration: 2}}
	assert.True(t, tl.Balanced())
	tl.Segments[1].Duration = 2.1
	assert.False(t, tl.Balanced())
}

func TestEffectSpecLookup(t *testing.T) {
	spec := model.EffectSpec{
		{Name: model.EffectFadeIn, Params: map[string]float64{"duration": 0.5}},
	}
	v, ok := spec.Param(model.EffectFadeIn, "duration")
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)
	assert.False(t, spec.Has(model.EffectZoom))
}
