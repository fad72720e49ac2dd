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
	"log/slog"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
)

// ArtifactCleanup deletes what a failed request already published, so a
// caller never finds a handle to a partial result. It only runs when the
// context carries errors; delete failures are logged.
type ArtifactCleanup struct {
	cor.BaseCommand
	store cloud.ArtifactStore
}

func NewArtifactCleanup(name string, store cloud.ArtifactStore) *ArtifactCleanup {
	out := &ArtifactCleanup{BaseCommand: *cor.NewBaseCommand(name), store: store}
	out.InputParamName = ParamPublished
	return out
}

func (c *ArtifactCleanup) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (c *ArtifactCleanup) Execute(context cor.Context) {
	if !context.HasErrors() {
		return
	}
	for _, artifact := range publishedOf(context) {
		if err := c.store.Delete(context.GetContext(), artifact); err != nil {
			slog.ErrorContext(context.GetContext(), "failed to delete artifact of a failed request", "name", artifact.Name, "error", err)
			continue
		}
		slog.InfoContext(context.GetContext(), "deleted artifact of a failed request", "name", artifact.Name)
	}
	context.Remove(ParamPublished)
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}
