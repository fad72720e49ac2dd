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

package cor

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

const tempDirPattern = "slideshow-*"

type namedError struct {
	key string
	err error
}

// BaseContext is the default Context. Data and errors are only touched by
// the chain goroutine; warnings may be added from worker goroutines.
type BaseContext struct {
	data      map[string]interface{}
	errors    []namedError
	tempFiles []string
	tempRoot  string // Parent of the working directory; "" is os.TempDir().
	tempDir   string
	context   context.Context

	mu       sync.Mutex
	warnings []model.Warning
}

func NewBaseContext() Context {
	return NewBaseContextWithTempRoot("")
}

// NewBaseContextWithTempRoot creates a context whose working directory is
// created under root.
func NewBaseContextWithTempRoot(root string) Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make([]namedError, 0),
		tempFiles: make([]string, 0),
		tempRoot:  root,
	}
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

func (c *BaseContext) TempDir() (string, error) {
	if c.tempDir != "" {
		return c.tempDir, nil
	}
	if c.tempRoot != "" {
		if err := os.MkdirAll(c.tempRoot, 0o755); err != nil {
			return "", err
		}
	}
	dir, err := os.MkdirTemp(c.tempRoot, tempDirPattern)
	if err != nil {
		return "", err
	}
	c.tempDir = dir
	return dir, nil
}

func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "file", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
	if c.tempDir != "" {
		if err := os.RemoveAll(c.tempDir); err != nil {
			slog.Warn("failed to remove working directory", "dir", c.tempDir, "error", err)
		}
		c.tempDir = ""
	}
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

func (c *BaseContext) AddError(key string, err error) {
	c.errors = append(c.errors, namedError{key: key, err: err})
}

func (c *BaseContext) GetErrors() []error {
	out := make([]error, 0, len(c.errors))
	for _, e := range c.errors {
		out = append(out, e.err)
	}
	return out
}

func (c *BaseContext) FirstError() error {
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors[0].err
}

func (c *BaseContext) AddWarning(warning model.Warning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, warning)
}

func (c *BaseContext) GetWarnings() []model.Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
