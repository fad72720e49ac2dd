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


// Package workflow_test runs the generation workflows end to end against the
// fakes in testutil: no network, no ffmpeg.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/compose"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/narration"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/workflow"
	"github.com/jaycherian/gcp-go-slideshow/internal/telemetry"
	test "github.com/jaycherian/gcp-go-slideshow/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const tName = "github.com/jaycherian/gcp-go-slideshow/tests/workflow"

var (
	ctx    context.Context
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())

	closeLog, err := telemetry.SetupLogging("")
	if err != nil {
		panic(err)
	}
	logger.Info("completed test setup")

	exitCode := m.Run()

	cancel()
	_ = closeLog()
	os.Exit(exitCode)
}

// harness wires a workflow to fakes and a local store under the test's
// temp directory.
type harness struct {
	config   *cloud.Config
	provider *test.FakeProvider
	encoder  *test.FakeEncoder
	records  *test.FakeRecordSink
	deps     workflow.Dependencies
}

func newHarness(t *testing.T, seconds float64) *harness {
	t.Helper()
	config := test.GetConfig(t)
	store, err := cloud.NewLocalStore(config.Storage.LocalDir)
	test.HandleErr(err, t)

	h := &harness{
		config:   config,
		provider: &test.FakeProvider{},
		encoder:  &test.FakeEncoder{},
		records:  &test.FakeRecordSink{},
	}
	h.deps = workflow.Dependencies{
		Narrator:   narration.NewNarrator(h.provider, test.FakeProber{Seconds: seconds}),
		Compositor: compose.NewCompositor(h.encoder),
		Store:      store,
		Records:    h.records,
	}
	return h
}

func (h *harness) newContext(parent context.Context) cor.Context {
	chCtx := cor.NewBaseContextWithTempRoot(h.config.Application.TempDir)
	chCtx.SetContext(parent)
	return chCtx
}
