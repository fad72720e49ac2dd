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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore publishes finished files and hands back a location the caller
// can download from.
type ArtifactStore interface {
	// Publish copies the local file at path into the store.
	Publish(ctx context.Context, path string, contentType string) (*model.Artifact, error)
	// Delete removes a published artifact.
	Delete(ctx context.Context, artifact *model.Artifact) error
}

// ArtifactName returns a collision free name that keeps the file extension.
func ArtifactName(path string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(path))
}

// LocalStore keeps artifacts in a directory served by the HTTP API.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) Publish(_ context.Context, path string, contentType string) (*model.Artifact, error) {
	name := ArtifactName(path)
	dest := filepath.Join(s.Dir, name)

	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return nil, err
	}
	written, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return nil, fmt.Errorf("copy artifact: %w", err)
	}
	return &model.Artifact{Name: name, Location: name, ContentType: contentType, Size: written}, nil
}

func (s *LocalStore) Delete(_ context.Context, artifact *model.Artifact) error {
	err := os.Remove(filepath.Join(s.Dir, filepath.Base(artifact.Name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Open returns a reader for a published artifact. Names are confined to the
// store directory.
func (s *LocalStore) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, ErrArtifactNotFound
	}
	f, err := os.Open(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrArtifactNotFound
	}
	return f, err
}
