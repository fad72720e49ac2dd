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


package commands

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/compose"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/narration"
	test "github.com/jaycherian/gcp-go-slideshow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChainContext(t *testing.T, config *cloud.Config) cor.Context {
	t.Helper()
	chCtx := cor.NewBaseContextWithTempRoot(config.Application.TempDir)
	chCtx.SetContext(context.Background())
	t.Cleanup(chCtx.Close)
	return chCtx
}

func validRequest(t *testing.T, config *cloud.Config, req *model.GenerationRequest) cor.Context {
	t.Helper()
	chCtx := newChainContext(t, config)
	chCtx.Add(ParamRequest, req)
	NewRequestValidator("validate", config).Execute(chCtx)
	require.False(t, chCtx.HasErrors())
	return chCtx
}

func narrate(t *testing.T, config *cloud.Config, chCtx cor.Context, seconds float64) {
	t.Helper()
	narrator := narration.NewNarrator(&test.FakeProvider{}, test.FakeProber{Seconds: seconds})
	NewNarrateAndSegment("narrate", narrator, config, true).Execute(chCtx)
	require.False(t, chCtx.HasErrors(), "%v", chCtx.FirstError())
}

func TestRequestReader(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := newChainContext(t, config)
	chCtx.Add(cor.CtxIn, test.GetTestRequestMessageText())

	reader := NewRequestReader("read")
	assert.True(t, reader.IsExecutable(chCtx))
	reader.Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	req := requestOf(chCtx)
	require.NotNil(t, req)
	assert.Equal(t, "test-request-001", req.ID)
	assert.Equal(t, model.AllocateUniform, req.Allocation)
	assert.Same(t, req, chCtx.Get(cor.CtxOut))
}

func TestRequestReaderRejectsBadMessages(t *testing.T) {
	config := test.GetConfig(t)

	for name, in := range map[string]interface{}{
		"malformed": []byte("{not json"),
		"wrong type": 42,
	} {
		t.Run(name, func(t *testing.T) {
			chCtx := newChainContext(t, config)
			chCtx.Add(cor.CtxIn, in)
			NewRequestReader("read").Execute(chCtx)
			assert.ErrorIs(t, chCtx.FirstError(), model.ErrInvalidRequest)
		})
	}
}

func TestRequestValidatorFillsDefaults(t *testing.T) {
	config := test.GetConfig(t)
	config.Narration.Language = "fr"
	config.Compose.MusicPath = "/music/bed.mp3"

	chCtx := validRequest(t, config, &model.GenerationRequest{Text: "Hi."})
	req := requestOf(chCtx)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "fr", req.Language)
	assert.Equal(t, "/music/bed.mp3", req.MusicPath)
	assert.Equal(t, model.ModeVideo, req.Mode)
	assert.Equal(t, model.StyleGradient, req.Style)
}

func TestRequestValidatorRejectsUnknownMode(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := newChainContext(t, config)
	chCtx.Add(ParamRequest, &model.GenerationRequest{Text: "Hi.", Mode: "slides"})

	NewRequestValidator("validate", config).Execute(chCtx)
	assert.ErrorIs(t, chCtx.FirstError(), model.ErrInvalidRequest)
}

func TestImageStagerWithoutClientWarns(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := validRequest(t, config, &model.GenerationRequest{
		Text:         "Hi.",
		ImageObjects: []string{"gs://bucket/a.png"},
	})

	NewGCSImageStager("stage", nil, 1<<20).Execute(chCtx)

	assert.False(t, chCtx.HasErrors())
	assert.Empty(t, requestOf(chCtx).ImageObjects)
	require.Len(t, chCtx.GetWarnings(), 1)
	assert.Equal(t, model.WarningBackgroundFallback, chCtx.GetWarnings()[0].Kind)
}

func TestNarrateAndSegmentSentenceMode(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := validRequest(t, config, &model.GenerationRequest{Text: "Hello world. This is a test."})

	narrate(t, config, chCtx, 4)

	n := narrationOf(chCtx)
	require.NotNil(t, n)
	assert.Equal(t, 4.0, n.Duration)
	assert.FileExists(t, n.Path)
	segments := segmentsOf(chCtx)
	require.Len(t, segments, 2)
	assert.Equal(t, "Hello world.", segments[0].Content)
	assert.Equal(t, "This is a test.", segments[1].Content)
}

func TestNarrateAndSegmentChunkModeUsesDuration(t *testing.T) {
	config := test.GetConfig(t)
	config.Segmentation.SecondsPerChunk = 2
	chCtx := validRequest(t, config, &model.GenerationRequest{
		Text:         "one two three four five six seven eight",
		Segmentation: model.SegmentByChunk,
	})

	narrate(t, config, chCtx, 4)

	// Eight words over four seconds at two seconds per chunk.
	segments := segmentsOf(chCtx)
	require.Len(t, segments, 2)
	assert.Equal(t, 4, segments[0].WordCount())
}

func TestNarrateAndSegmentFailures(t *testing.T) {
	config := test.GetConfig(t)

	t.Run("empty text", func(t *testing.T) {
		chCtx := validRequest(t, config, &model.GenerationRequest{Text: "  ...  "})
		narrator := narration.NewNarrator(&test.FakeProvider{}, test.FakeProber{Seconds: 1})
		NewNarrateAndSegment("narrate", narrator, config, false).Execute(chCtx)
		assert.ErrorIs(t, chCtx.FirstError(), model.ErrEmptyInput)
	})

	t.Run("provider down", func(t *testing.T) {
		chCtx := validRequest(t, config, &model.GenerationRequest{Text: "Hello there."})
		narrator := narration.NewNarrator(&test.FakeProvider{Fail: true}, test.FakeProber{Seconds: 1})
		NewNarrateAndSegment("narrate", narrator, config, true).Execute(chCtx)
		assert.ErrorIs(t, chCtx.FirstError(), model.ErrNarrationUnavailable)
		assert.Nil(t, narrationOf(chCtx))
	})
}

func TestTimelineAllocatorUniform(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := validRequest(t, config, &model.GenerationRequest{
		Text:       "Hello world. This is a test.",
		Allocation: model.AllocateUniform,
	})
	narrate(t, config, chCtx, 4)

	NewTimelineAllocator("allocate", config).Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	tl := timelineOf(chCtx)
	require.Len(t, tl.Segments, 2)
	assert.InDelta(t, 2.0, tl.Segments[0].Duration, 1e-9)
	assert.InDelta(t, 2.0, tl.Segments[1].Duration, 1e-9)
	assert.True(t, tl.Balanced())
	assert.Same(t, narrationOf(chCtx), tl.Narration)
	assert.Empty(t, tl.Segments[0].Effects)
}

func TestTimelineAllocatorDegradedTimingIsAWarning(t *testing.T) {
	config := test.GetConfig(t)
	config.Timeline.SecondsPerWord = 1
	chCtx := validRequest(t, config, &model.GenerationRequest{
		Text:       "one two three. four five six.",
		Allocation: model.AllocateFixedWithRemainder,
	})
	narrate(t, config, chCtx, 2)

	NewTimelineAllocator("allocate", config).Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	require.NotEmpty(t, chCtx.GetWarnings())
	assert.Equal(t, model.WarningDegradedTiming, chCtx.GetWarnings()[0].Kind)
	assert.Equal(t, 0.0, timelineOf(chCtx).Segments[1].Duration)
}

func renderedContext(t *testing.T, config *cloud.Config, req *model.GenerationRequest) cor.Context {
	t.Helper()
	chCtx := validRequest(t, config, req)
	narrate(t, config, chCtx, 4)
	NewTimelineAllocator("allocate", config).Execute(chCtx)
	NewFrameRenderer("render", config, nil, config.Application.ThreadPoolSize).Execute(chCtx)
	require.False(t, chCtx.HasErrors(), "%v", chCtx.FirstError())
	return chCtx
}

func TestFrameRendererKeepsIndexOrder(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := renderedContext(t, config, &model.GenerationRequest{Text: "One. Two. Three. Four. Five."})

	frames := framesOf(chCtx)
	require.Len(t, frames, 5)
	for i, f := range frames {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, 64, f.Width)
		assert.Equal(t, 36, f.Height)
		assert.FileExists(t, f.Path)
	}
	assert.Empty(t, chCtx.GetWarnings())
}

func TestFrameRendererFallsBackOnBadUploads(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := renderedContext(t, config, &model.GenerationRequest{
		Text:    "One. Two.",
		Uploads: []model.UploadedImage{{Name: "broken.png", Data: []byte("not an image")}},
	})

	assert.Len(t, framesOf(chCtx), 2)
	require.NotEmpty(t, chCtx.GetWarnings())
	assert.Equal(t, model.WarningBackgroundFallback, chCtx.GetWarnings()[0].Kind)
}

func TestVideoComposer(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := renderedContext(t, config, &model.GenerationRequest{Text: "Hello world. This is a test."})
	encoder := &test.FakeEncoder{}

	NewVideoComposer("compose", config, compose.NewCompositor(encoder)).Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	video, _ := chCtx.Get(ParamVideoPath).(string)
	assert.FileExists(t, video)
	require.Len(t, encoder.Args, 1)
	assert.Contains(t, encoder.Args[0], "4.000")
}

func TestVideoComposerEncodingFailure(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := renderedContext(t, config, &model.GenerationRequest{Text: "Hello world."})

	NewVideoComposer("compose", config, compose.NewCompositor(&test.FakeEncoder{Fail: true})).Execute(chCtx)

	assert.ErrorIs(t, chCtx.FirstError(), model.ErrEncodingFailure)
	assert.Nil(t, chCtx.Get(ParamVideoPath))
}

func TestPublishAndCleanup(t *testing.T) {
	config := test.GetConfig(t)
	store, err := cloud.NewLocalStore(config.Storage.LocalDir)
	require.NoError(t, err)
	chCtx := validRequest(t, config, &model.GenerationRequest{Text: "Hello world.", Mode: model.ModeAudio})
	narrator := narration.NewNarrator(&test.FakeProvider{}, test.FakeProber{Seconds: 3})
	NewNarrateAndSegment("narrate", narrator, config, false).Execute(chCtx)

	NewArtifactPublisher("publish", store).Execute(chCtx)

	require.False(t, chCtx.HasErrors())
	result, _ := chCtx.Get(ParamResult).(*model.Result)
	require.NotNil(t, result)
	require.NotNil(t, result.Audio)
	assert.Nil(t, result.Video)
	assert.Equal(t, ContentTypeMP3, result.Audio.ContentType)
	assert.Equal(t, 3.0, result.Duration)
	assert.Equal(t, 1, test.CountFiles(t, config.Storage.LocalDir))

	// Without errors cleanup leaves the artifacts alone.
	NewArtifactCleanup("cleanup", store).Execute(chCtx)
	assert.Equal(t, 1, test.CountFiles(t, config.Storage.LocalDir))

	chCtx.AddError("late", errors.New("late failure"))
	NewArtifactCleanup("cleanup", store).Execute(chCtx)
	assert.Equal(t, 0, test.CountFiles(t, config.Storage.LocalDir))
	assert.Nil(t, chCtx.Get(ParamPublished))
}

func TestPublisherNeedsVideoInVideoMode(t *testing.T) {
	config := test.GetConfig(t)
	store, err := cloud.NewLocalStore(config.Storage.LocalDir)
	require.NoError(t, err)
	chCtx := validRequest(t, config, &model.GenerationRequest{Text: "Hello world."})
	narrate(t, config, chCtx, 2)

	assert.False(t, NewArtifactPublisher("publish", store).IsExecutable(chCtx))
}

func TestGenerationRecorder(t *testing.T) {
	config := test.GetConfig(t)
	sink := &test.FakeRecordSink{}
	chCtx := validRequest(t, config, &model.GenerationRequest{Text: "Hello world. Bye."})
	narrate(t, config, chCtx, 2)
	chCtx.AddWarning(model.Warning{Kind: model.WarningBackgroundFallback, Message: "fallback"})
	chCtx.AddError("compose", model.NewErrorf(model.KindEncodingFailure, "boom"))

	NewGenerationRecorder("record", sink).Execute(chCtx)

	record := sink.Last()
	require.NotNil(t, record)
	assert.Equal(t, requestOf(chCtx).ID, record.RequestID)
	assert.Equal(t, model.StatusFailed, record.Status)
	assert.Equal(t, string(model.KindEncodingFailure), record.ErrorKind)
	assert.Equal(t, 2, record.Segments)
	assert.Equal(t, 2.0, record.NarrationSeconds)
	assert.Equal(t, []string{"BackgroundFallback: fallback"}, record.Warnings)
}

func TestCloseRemovesFrames(t *testing.T) {
	config := test.GetConfig(t)
	chCtx := renderedContext(t, config, &model.GenerationRequest{Text: "One. Two."})
	frames := framesOf(chCtx)

	chCtx.Close()

	for _, f := range frames {
		_, err := os.Stat(f.Path)
		assert.True(t, os.IsNotExist(err))
	}
	assert.Equal(t, 0, test.CountFiles(t, config.Application.TempDir))
}
