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

package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// DurationProber measures the length of an audio file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFProbe measures duration with ffprobe.
type FFProbe struct {
	Timeout time.Duration
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

func (p FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := p.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			// ProbeWithTimeout treats a non-positive timeout as none at all.
			return 0, context.DeadlineExceeded
		}
		if timeout == 0 || remaining < timeout {
			timeout = remaining
		}
	}
	out, err := ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return ParseProbeDuration(out)
}

// ParseProbeDuration extracts the duration from ffprobe JSON output,
// preferring the container duration over the first audio stream's.
func ParseProbeDuration(out string) (float64, error) {
	var probe probeOutput
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return 0, fmt.Errorf("invalid ffprobe output: %w", err)
	}
	candidates := []string{probe.Format.Duration}
	for _, s := range probe.Streams {
		if s.CodecType == "audio" {
			candidates = append(candidates, s.Duration)
		}
	}
	for _, c := range candidates {
		if c == "" || c == "N/A" {
			continue
		}
		d, err := strconv.ParseFloat(c, 64)
		if err == nil {
			return d, nil
		}
	}
	return 0, fmt.Errorf("ffprobe output has no duration")
}
