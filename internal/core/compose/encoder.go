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

package compose

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const (
	DefaultFFmpegPath = "ffmpeg"
	stderrTailBytes   = 2048
)

// Encoder runs an encoding job described by ffmpeg style arguments.
type Encoder interface {
	Encode(ctx context.Context, args []string) error
}

// FFmpeg runs the ffmpeg binary.
type FFmpeg struct {
	Path string // Executable path; defaults to "ffmpeg" on PATH.
}

// Encode runs ffmpeg with args and returns the tail of stderr on failure.
// The process is killed when ctx is cancelled.
func (f FFmpeg) Encode(ctx context.Context, args []string) error {
	path := f.Path
	if path == "" {
		path = DefaultFFmpegPath
	}
	full := append([]string{"-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, path, full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("error running ffmpeg: %w: %s", err, tail(stderr.String()))
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailBytes {
		s = s[len(s)-stderrTailBytes:]
	}
	return s
}
