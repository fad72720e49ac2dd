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

package segment_test

import (
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconstruct(segments []model.TextSegment) []string {
	out := make([]string, 0)
	for _, s := range segments {
		out = append(out, s.Words...)
	}
	return out
}

func TestSentenceMode(t *testing.T) {
	segments, err := segment.Segment("Hello world. This is a test.", segment.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "Hello world.", segments[0].Content)
	assert.Equal(t, "This is a test.", segments[1].Content)
	assert.Equal(t, 0, segments[0].Index)
	assert.Equal(t, 1, segments[1].Index)
	assert.Equal(t, 4, segments[1].WordCount())
}

func TestSentenceModeKeepsDecimals(t *testing.T) {
	segments, err := segment.Segment("Version 4.5 is out. Upgrade now", segment.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "Version 4.5 is out.", segments[0].Content)
	assert.Equal(t, "Upgrade now", segments[1].Content)
}

func TestSentenceModeNeedsSpaceAfterTerminator(t *testing.T) {
	// Sentences end on word boundaries, so a terminator glued to the next
	// word does not split. This is what keeps "4.5" whole.
	segments, err := segment.Segment("Hello world.This is a test.", segment.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "Hello world.This is a test.", segments[0].Content)
	assert.Equal(t, []string{"Hello", "world.This", "is", "a", "test."}, segments[0].Words)
}

func TestSentenceModeCustomTerminators(t *testing.T) {
	opts := segment.DefaultOptions()
	opts.Terminators = ".!?"
	segments, err := segment.Segment(`Really? Yes! "Done."`, opts)
	require.NoError(t, err)
	assert.Len(t, segments, 3)
	assert.Equal(t, `"Done."`, segments[2].Content)
}

func TestSentenceModeFoldsPunctuation(t *testing.T) {
	segments, err := segment.Segment("Wait . . . Go on.", segment.DefaultOptions())
	require.NoError(t, err)
	for _, s := range segments {
		assert.GreaterOrEqual(t, s.WordCount(), 1)
	}
	assert.Equal(t, segment.Tokenize("Wait . . . Go on."), reconstruct(segments))
}

func TestSentenceModeFallback(t *testing.T) {
	segments, err := segment.Segment("no terminator here at all", segment.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "no terminator here at all", segments[0].Content)
}

func TestChunkMode(t *testing.T) {
	text := strings.Repeat("word ", 23)
	opts := segment.Options{Mode: model.SegmentByChunk, SecondsPerChunk: 5, EstimatedDuration: 20}
	segments, err := segment.Segment(text, opts)
	require.NoError(t, err)

	// 23 words over floor(20/5)=4 chunks gives 5 words per chunk.
	assert.Equal(t, 5, segment.ChunkSize(23, 20, 5))
	require.Len(t, segments, 5)
	assert.Equal(t, 3, segments[4].WordCount())
	assert.Equal(t, segment.Tokenize(text), reconstruct(segments))
}

func TestChunkSizeBounds(t *testing.T) {
	assert.Equal(t, 10, segment.ChunkSize(10, 2, 5))
	assert.Equal(t, 1, segment.ChunkSize(3, 100, 5))
	assert.Equal(t, 7, segment.ChunkSize(7, 0, 0))
}

func TestEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\t ", ". , ; !"} {
		_, err := segment.Segment(in, segment.DefaultOptions())
		assert.ErrorIs(t, err, model.ErrEmptyInput, "input %q", in)
	}
}

func TestReconstruction(t *testing.T) {
	inputs := []string{
		model.ExampleText,
		"  leading and trailing   whitespace.  ",
		"One. Two. Three. Four.",
		"a.b.c. d",
		"... Starts with dots. Then text",
	}
	for _, in := range inputs {
		for _, opts := range []segment.Options{
			segment.DefaultOptions(),
			{Mode: model.SegmentByChunk, SecondsPerChunk: 5, EstimatedDuration: 11},
		} {
			segments, err := segment.Segment(in, opts)
			require.NoError(t, err)
			require.NotEmpty(t, segments)
			assert.Equal(t, segment.Tokenize(in), reconstruct(segments), "input %q mode %s", in, opts.Mode)
			for i, s := range segments {
				assert.Equal(t, i, s.Index)
				assert.GreaterOrEqual(t, s.WordCount(), 1)
			}
		}
	}
}
