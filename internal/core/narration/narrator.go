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
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// Narrator synthesizes and measures narration.
type Narrator struct {
	provider Provider
	prober   DurationProber
}

func NewNarrator(provider Provider, prober DurationProber) *Narrator {
	return &Narrator{provider: provider, prober: prober}
}

// Narrate writes the speech for text into dir and measures it.
//
// Inputs:
//   - ctx: Cancels synthesis and probing.
//   - text: The text to speak.
//   - language: BCP-47 style language code, e.g. "en".
//   - dir: The request's working directory; the audio file is created there.
//
// Outputs:
//   - *model.Narration: The audio path and its measured duration.
//   - error: ErrEmptyInput for blank text, ErrNarrationUnavailable for any
//     synthesis, storage or probe failure, or a non-positive duration.
func (n *Narrator) Narrate(ctx context.Context, text string, language string, dir string) (*model.Narration, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewErrorf(model.KindEmptyInput, "blank narration text")
	}
	stream, err := n.provider.Synthesize(ctx, text, language)
	if err != nil {
		return nil, model.NewError(model.KindNarrationUnavailable, err)
	}
	defer stream.Close()

	file, err := os.CreateTemp(dir, "narration-*.mp3")
	if err != nil {
		return nil, model.NewError(model.KindNarrationUnavailable, err)
	}
	path := file.Name()
	_, err = io.Copy(file, stream)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, model.NewError(model.KindNarrationUnavailable, fmt.Errorf("write narration: %w", err))
	}

	duration, err := n.prober.Duration(ctx, path)
	if err == nil && (duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0)) {
		err = fmt.Errorf("narration duration %v is not positive", duration)
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, model.NewError(model.KindNarrationUnavailable, err)
	}
	return &model.Narration{Path: path, Duration: duration, Format: "mp3"}, nil
}
