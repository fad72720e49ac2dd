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

// Package segment partitions narration text into the ordered runs of words
// that are shown one per frame.
//
// Both modes work on the whitespace tokenization of the input, so joining
// the words of every segment in order always reproduces Tokenize(text).
package segment

import (
	"math"
	"strings"
	"unicode"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

const (
	// DefaultTerminators closes a sentence on a full stop only.
	DefaultTerminators = "."
	// DefaultSecondsPerChunk is the target on-screen time of a fixed chunk.
	DefaultSecondsPerChunk = 5.0
)

// Options selects and parameterizes the segmentation mode.
type Options struct {
	Mode              model.SegmentationMode // Sentence or fixed-chunk.
	Terminators       string                 // Sentence terminating runes, e.g. ".!?".
	SecondsPerChunk   float64                // Fixed-chunk target seconds per chunk.
	EstimatedDuration float64                // Fixed-chunk narration duration in seconds.
}

// DefaultOptions returns sentence mode with the default terminators.
func DefaultOptions() Options {
	return Options{
		Mode:            model.SegmentBySentence,
		Terminators:     DefaultTerminators,
		SecondsPerChunk: DefaultSecondsPerChunk,
	}
}

// Tokenize splits text on runs of whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Segment splits text into ordered segments.
//
// Inputs:
//   - text: The raw user text.
//   - opts: The segmentation mode and its parameters.
//
// Outputs:
//   - []model.TextSegment: At least one segment, each with at least one word.
//   - error: model.ErrEmptyInput when the text contains no letters or digits.
func Segment(text string, opts Options) ([]model.TextSegment, error) {
	words := Tokenize(text)
	if !anyWord(words) {
		return nil, model.NewErrorf(model.KindEmptyInput, "no words in %d tokens", len(words))
	}

	var runs [][]string
	switch opts.Mode {
	case model.SegmentByChunk:
		runs = chunks(words, ChunkSize(len(words), opts.EstimatedDuration, opts.SecondsPerChunk))
	default:
		terminators := opts.Terminators
		if terminators == "" {
			terminators = DefaultTerminators
		}
		runs = sentences(words, terminators)
	}
	if len(runs) == 0 {
		runs = [][]string{words}
	}

	out := make([]model.TextSegment, len(runs))
	for i, run := range runs {
		out[i] = model.TextSegment{Index: i, Content: strings.Join(run, " "), Words: run}
	}
	return out, nil
}

// ChunkSize returns the number of words per fixed chunk so that the chunk
// count approximates estimatedDuration / secondsPerChunk.
func ChunkSize(totalWords int, estimatedDuration float64, secondsPerChunk float64) int {
	if secondsPerChunk <= 0 {
		secondsPerChunk = DefaultSecondsPerChunk
	}
	chunkCount := int(math.Floor(estimatedDuration / secondsPerChunk))
	if chunkCount < 1 {
		chunkCount = 1
	}
	size := totalWords / chunkCount
	if size < 1 {
		size = 1
	}
	return size
}

func chunks(words []string, size int) [][]string {
	out := make([][]string, 0, len(words)/size+1)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, words[start:end])
	}
	return out
}

// sentences closes a run after every token that ends in a terminator. A run
// made only of punctuation is folded into its neighbour so no frame shows a
// bare "..." on its own.
func sentences(words []string, terminators string) [][]string {
	out := make([][]string, 0)
	start := 0
	for i, w := range words {
		if !strings.ContainsAny(lastRune(w), terminators) {
			continue
		}
		run := words[start : i+1]
		if !anyWord(run) {
			if len(out) == 0 {
				continue
			}
			out[len(out)-1] = words[start-len(out[len(out)-1]) : i+1]
			start = i + 1
			continue
		}
		out = append(out, run)
		start = i + 1
	}
	if start < len(words) {
		tail := words[start:]
		if anyWord(tail) || len(out) == 0 {
			out = append(out, tail)
		} else {
			out[len(out)-1] = words[start-len(out[len(out)-1]):]
		}
	}
	return out
}

// lastRune returns the final rune of w, ignoring closing quotes and brackets.
func lastRune(w string) string {
	trimmed := strings.TrimRight(w, "\"')]}’”")
	if trimmed == "" {
		return ""
	}
	r := []rune(trimmed)
	return string(r[len(r)-1])
}

func anyWord(words []string) bool {
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return true
			}
		}
	}
	return false
}
