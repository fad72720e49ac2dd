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


// Package test provides configuration and fakes shared by the package tests.
// The fakes stand in for the three process boundaries of the pipeline: the
// speech service, ffprobe and ffmpeg.
package test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// ErrProviderDown is returned by a FakeProvider with Fail set.
var ErrProviderDown = errors.New("speech service unavailable")

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestRequestMessageText returns a queued generation request as it
// arrives on the Pub/Sub subscription.
func GetTestRequestMessageText() string {
	return `{
  "id": "test-request-001",
  "text": "Hello world. This is a test.",
  "mode": "video",
  "style": "Gradient",
  "effects": false,
  "segmentation": "sentence",
  "allocation": "uniform"
}`
}

// SetupOS points the layered config loader at dir using the given runtime.
func SetupOS(t *testing.T, dir string, runtime string) {
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, runtime)
}

// GetConfig returns a configuration rooted in the test's temp directory: a
// local artifact store, the log record sink, a small frame size and the
// built-in font. Requests keep the default Gradient style, which never
// reaches the network.
func GetConfig(t *testing.T) *cloud.Config {
	t.Helper()
	config := cloud.NewConfig()
	root := t.TempDir()
	config.Application.TempDir = filepath.Join(root, "work")
	config.Storage.Kind = cloud.StorageLocal
	config.Storage.LocalDir = filepath.Join(root, "artifacts")
	config.Records.Kind = cloud.RecordsLog
	config.Render.Width = 64
	config.Render.Height = 36
	config.Render.FontPaths = nil
	config.Compose.FPS = 4
	config.Application.ThreadPoolSize = 2
	if err := os.MkdirAll(config.Application.TempDir, 0o755); err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}
	return config
}

// CountFiles returns the number of regular files below dir.
func CountFiles(t *testing.T, dir string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed to walk %s: %v", dir, err)
	}
	return count
}

// FakeProvider returns a fixed MP3 body for every request.
type FakeProvider struct {
	Fail  bool
	calls atomic.Int32
}

func (f *FakeProvider) Synthesize(_ context.Context, text string, _ string) (io.ReadCloser, error) {
	f.calls.Add(1)
	if f.Fail {
		return nil, ErrProviderDown
	}
	return io.NopCloser(strings.NewReader("ID3" + text)), nil
}

// Calls returns how many times Synthesize ran.
func (f *FakeProvider) Calls() int {
	return int(f.calls.Load())
}

// FakeProber reports a fixed duration for every file.
type FakeProber struct {
	Seconds float64
}

func (f FakeProber) Duration(_ context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	return f.Seconds, nil
}

// FakeEncoder records the arguments it was given and writes a small file to
// the output path, the last argument ending in ".mp4".
type FakeEncoder struct {
	Fail bool

	mu   sync.Mutex
	Args [][]string
}

func (f *FakeEncoder) Encode(_ context.Context, args []string) error {
	f.mu.Lock()
	f.Args = append(f.Args, args)
	f.mu.Unlock()
	if f.Fail {
		return errors.New("exit status 1")
	}
	for i := len(args) - 1; i >= 0; i-- {
		if strings.HasSuffix(args[i], ".mp4") {
			return os.WriteFile(args[i], bytes.Repeat([]byte{0}, 64), 0o644)
		}
	}
	return errors.New("no output path")
}

// FakeRecordSink keeps the records it was given.
type FakeRecordSink struct {
	mu      sync.Mutex
	Records []*model.GenerationRecord
}

func (f *FakeRecordSink) Write(_ context.Context, record *model.GenerationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Records = append(f.Records, record)
	return nil
}

// Last returns the most recent record, or nil.
func (f *FakeRecordSink) Last() *model.GenerationRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Records) == 0 {
		return nil
	}
	return f.Records[len(f.Records)-1]
}
