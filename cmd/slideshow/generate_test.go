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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

func TestRequestFromTextFile(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "story.txt")
	assert.Nil(t, os.WriteFile(textFile, []byte("One. Two."), 0o644))
	image := filepath.Join(dir, "bg.png")
	assert.Nil(t, os.WriteFile(image, []byte("png"), 0o644))

	g := generateFlags{
		textFile:     textFile,
		mode:         "audio",
		style:        "forest",
		effects:      true,
		images:       []string{image},
		imageObjects: []string{"gs://bucket/a.jpg"},
	}
	req, err := g.request(strings.NewReader(""))
	assert.Nil(t, err)
	assert.Equal(t, "One. Two.", req.Text)
	assert.Equal(t, model.Mode("audio"), req.Mode)
	assert.Equal(t, model.Style("forest"), req.Style)
	assert.True(t, req.EffectsEnabled)
	assert.Len(t, req.Uploads, 1)
	assert.Equal(t, "bg.png", req.Uploads[0].Name)
	assert.Equal(t, []string{"gs://bucket/a.jpg"}, req.ImageObjects)
}

func TestRequestFromStdin(t *testing.T) {
	g := generateFlags{textFile: "-", mode: "video"}
	req, err := g.request(strings.NewReader("From stdin."))
	assert.Nil(t, err)
	assert.Equal(t, "From stdin.", req.Text)
}

func TestRequestMissingImage(t *testing.T) {
	g := generateFlags{text: "x", images: []string{filepath.Join(t.TempDir(), "missing.png")}}
	_, err := g.request(strings.NewReader(""))
	assert.Error(t, err)
}

func TestExampleCommand(t *testing.T) {
	var out bytes.Buffer
	exampleCmd.SetOut(&out)
	assert.Nil(t, exampleCmd.RunE(exampleCmd, nil))
	assert.Contains(t, out.String(), model.ExampleText[:20])
	assert.Contains(t, out.String(), "\"mode\": \"video\"")
}
