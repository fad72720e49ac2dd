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
	"context"
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// Compositor encodes a plan and its narration into a single video file.
type Compositor struct {
	encoder Encoder
}

func NewCompositor(encoder Encoder) *Compositor {
	if encoder == nil {
		encoder = FFmpeg{}
	}
	return &Compositor{encoder: encoder}
}

// Compose writes the video for plan to outputPath.
//
// Inputs:
//   - ctx: Cancels the encoder.
//   - plan: The ordered clip list from NewPlan.
//   - narration: The measured narration; attached from t=0.
//   - musicPath: Optional background music, looped under the narration. Empty skips it.
//   - outputPath: Destination MP4.
//
// Outputs:
//   - error: ErrEncodingFailure wrapping the cause. A failed encode never
//     leaves a partial file at outputPath.
func (c *Compositor) Compose(ctx context.Context, plan *Plan, narration *model.Narration, musicPath string, outputPath string) error {
	if plan == nil || len(plan.Clips) == 0 {
		return model.NewError(model.KindEncodingFailure, ErrEmptyTimeline)
	}
	if narration == nil || narration.Path == "" {
		return model.NewErrorf(model.KindEncodingFailure, "no narration to attach")
	}
	if musicPath != "" {
		if _, err := os.Stat(musicPath); err != nil {
			musicPath = ""
		}
	}

	args := plan.Args(narration.Path, musicPath, outputPath)
	if err := c.encoder.Encode(ctx, args); err != nil {
		_ = os.Remove(outputPath)
		return model.NewError(model.KindEncodingFailure, err)
	}
	info, err := os.Stat(outputPath)
	if err != nil {
		return model.NewError(model.KindEncodingFailure, fmt.Errorf("encoder produced no output: %w", err))
	}
	if info.Size() == 0 {
		_ = os.Remove(outputPath)
		return model.NewErrorf(model.KindEncodingFailure, "encoder produced an empty file")
	}
	return nil
}
