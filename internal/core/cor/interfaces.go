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

// Package cor (Chain of Responsibility) provides the building blocks the
// generation pipeline is assembled from. A Chain runs Commands in order over
// a shared Context; each Command reads its input from the Context, records
// its output or its error there, and the Chain stops at the first error.
package cor

import (
	"context"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe the primary value from one
// command to the next.
const (
	// CtxIn holds the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the per-request state shared by the commands of a chain. A
// Context is owned by exactly one request and is discarded after Close.
type Context interface {
	// SetContext sets the Go context carrying cancellation and the active span.
	SetContext(context context.Context)

	// GetContext retrieves the Go context.
	GetContext() context.Context

	// Add stores a key-value pair. It returns the Context to allow chaining.
	Add(key string, value interface{}) Context

	// Get retrieves a value by key.
	Get(key string) interface{}

	// Remove deletes a key.
	Remove(key string)

	// AddError records an error produced by the named command.
	AddError(key string, err error)

	// GetErrors returns the recorded errors in the order they were added.
	GetErrors() []error

	// FirstError returns the earliest recorded error, or nil.
	FirstError() error

	// HasErrors reports whether any error has been recorded.
	HasErrors() bool

	// AddWarning records a non-fatal condition. Safe for concurrent use.
	AddWarning(warning model.Warning)

	// GetWarnings returns the warnings in the order they were added.
	GetWarnings() []model.Warning

	// TempDir returns the request's working directory, creating it on first use.
	TempDir() (string, error)

	// AddTempFile tracks a file that Close must remove.
	AddTempFile(file string)

	// GetTempFiles returns the tracked temporary files.
	GetTempFiles() []string

	// Close removes every tracked temporary file and the working directory.
	// It must run on every exit path of a request.
	Close()
}

type Executable interface {
	// Execute runs the object against the shared Context.
	Execute(context Context)
}

type Command interface {
	Executable

	// GetName returns the command name used for spans, metrics and error keys.
	GetName() string

	// GetInputParam returns the Context key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the Context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable checks the command's preconditions against the Context.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

type Chain interface {
	Command

	// ContinueOnFailure tells the chain whether to keep going after a
	// command records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
