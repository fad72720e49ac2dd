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


// Package services_test runs the Generator against fakes for the speech
// service, ffprobe and ffmpeg.
package services_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/compose"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/narration"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/services"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-slideshow/internal/testutil"
	"github.com/zeebo/assert"
)

// countingTransport fails every request and counts the attempts.
type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("network disabled in tests")
}

type fixture struct {
	config    *cloud.Config
	provider  *test.FakeProvider
	encoder   *test.FakeEncoder
	transport *countingTransport
	generator *services.Generator
}

func newFixture(t *testing.T, seconds float64, fail bool) *fixture {
	config := test.GetConfig(t)
	store, err := cloud.NewLocalStore(config.Storage.LocalDir)
	test.HandleErr(err, t)

	f := &fixture{
		config:    config,
		provider:  &test.FakeProvider{Fail: fail},
		encoder:   &test.FakeEncoder{},
		transport: &countingTransport{},
	}
	f.generator = services.NewGenerator(config, workflow.Dependencies{
		Narrator:   narration.NewNarrator(f.provider, test.FakeProber{Seconds: seconds}),
		Compositor: compose.NewCompositor(f.encoder),
		Store:      store,
		Records:    &test.FakeRecordSink{},
		HTTPClient: &http.Client{Transport: f.transport},
	})
	return f
}

func (f *fixture) leftovers(t *testing.T) int {
	return test.CountFiles(t, f.config.Application.TempDir)
}

func TestHelloWorldVideo(t *testing.T) {
	f := newFixture(t, 4, false)

	result, err := f.generator.Generate(context.Background(), &model.GenerationRequest{
		Text:         "Hello world. This is a test.",
		Segmentation: model.SegmentBySentence,
		Allocation:   model.AllocateUniform,
	})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.NotNil(t, result.Video)
	assert.NotNil(t, result.Audio)
	assert.Equal(t, result.Segments, 2)
	assert.Equal(t, result.Duration, 4.0)
	assert.Equal(t, f.leftovers(t), 0)
}

func TestEmptyTextIsRejected(t *testing.T) {
	f := newFixture(t, 4, false)

	result, err := f.generator.Generate(context.Background(), &model.GenerationRequest{Text: ""})

	assert.Nil(t, result)
	assert.That(t, errors.Is(err, model.ErrEmptyInput))
	assert.Equal(t, model.UserMessage(err), "Please enter some text to narrate.")
	assert.Equal(t, test.CountFiles(t, f.config.Storage.LocalDir), 0)
	assert.Equal(t, f.leftovers(t), 0)
}

func TestWordlessTextIsRejectedBeforeSynthesis(t *testing.T) {
	modes := []model.Mode{model.ModeVideo, model.ModeAudio}
	segmentations := []model.SegmentationMode{model.SegmentBySentence, model.SegmentByChunk}
	for _, mode := range modes {
		for _, seg := range segmentations {
			f := newFixture(t, 4, false)

			result, err := f.generator.Generate(context.Background(), &model.GenerationRequest{
				Text:         "... !!! ???",
				Mode:         mode,
				Segmentation: seg,
			})

			assert.Nil(t, result)
			assert.That(t, errors.Is(err, model.ErrEmptyInput))
			assert.Equal(t, f.provider.Calls(), 0)
			assert.Equal(t, test.CountFiles(t, f.config.Storage.LocalDir), 0)
		}
	}
}

func TestGradientNeverTouchesTheNetwork(t *testing.T) {
	f := newFixture(t, 6, false)
	f.config.Backgrounds.URLTemplate = "https://images.example.com/{query}/{width}/{height}"

	result, err := f.generator.Generate(context.Background(), &model.GenerationRequest{
		Text:  "One. Two. Three.",
		Style: model.StyleGradient,
	})

	assert.NoError(t, err)
	assert.Equal(t, len(result.Warnings), 0)
	assert.Equal(t, int(f.transport.calls.Load()), 0)
}

func TestWebBackgroundFailureDegradesToGradient(t *testing.T) {
	f := newFixture(t, 4, false)
	f.config.Backgrounds.URLTemplate = "https://images.example.com/{query}/{width}/{height}"

	result, err := f.generator.Generate(context.Background(), &model.GenerationRequest{
		Text:  "One. Two.",
		Style: model.StyleNature,
	})

	assert.NoError(t, err)
	assert.NotNil(t, result.Video)
	assert.That(t, f.transport.calls.Load() > 0)
	assert.That(t, len(result.Warnings) > 0)
	assert.Equal(t, result.Warnings[0].Kind, model.WarningBackgroundFallback)
}

func TestNarrationUnavailable(t *testing.T) {
	f := newFixture(t, 4, true)

	result, err := f.generator.Generate(context.Background(), &model.GenerationRequest{Text: "Hello world."})

	assert.Nil(t, result)
	assert.That(t, errors.Is(err, model.ErrNarrationUnavailable))
	assert.Equal(t, len(f.encoder.Args), 0)
	assert.Equal(t, test.CountFiles(t, f.config.Storage.LocalDir), 0)
	assert.Equal(t, f.leftovers(t), 0)
}

func TestGenerateMessage(t *testing.T) {
	f := newFixture(t, 4, false)

	result, err := f.generator.GenerateMessage(context.Background(), []byte(test.GetTestRequestMessageText()))

	assert.NoError(t, err)
	assert.Equal(t, result.RequestID, "test-request-001")
	assert.Equal(t, f.leftovers(t), 0)
}

func TestConcurrentRequestsDoNotShareState(t *testing.T) {
	f := newFixture(t, 4, false)
	texts := []string{"Alpha beta. Gamma delta.", "One. Two. Three. Four.", "Solo."}

	type outcome struct {
		result *model.Result
		err    error
	}
	outcomes := make(chan outcome, len(texts))
	for _, text := range texts {
		go func(text string) {
			r, err := f.generator.Generate(context.Background(), &model.GenerationRequest{Text: text})
			outcomes <- outcome{r, err}
		}(text)
	}
	segments := 0
	for range texts {
		o := <-outcomes
		assert.NoError(t, o.err)
		segments += o.result.Segments
	}
	assert.Equal(t, segments, 2+4+1)
	assert.Equal(t, f.leftovers(t), 0)
}
