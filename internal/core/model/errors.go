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

package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure. The kind decides both the
// user-facing message and the transport status code of the adapters.
type ErrorKind string

const (
	KindEmptyInput            ErrorKind = "EmptyInput"
	KindNarrationUnavailable  ErrorKind = "NarrationUnavailable"
	KindBackgroundUnavailable ErrorKind = "BackgroundUnavailable"
	KindEncodingFailure       ErrorKind = "EncodingFailure"
	KindInvalidRequest        ErrorKind = "InvalidRequest"
)

// userMessages are the only strings ever shown to an end user. They never
// contain paths, command lines or stack traces.
var userMessages = map[ErrorKind]string{
	KindEmptyInput:            "Please enter some text to narrate.",
	KindNarrationUnavailable:  "The narration service is unavailable. Please try again later.",
	KindBackgroundUnavailable: "A background image could not be loaded.",
	KindEncodingFailure:       "The video could not be generated.",
	KindInvalidRequest:        "The request is not valid.",
}

// Error is the typed failure returned by every pipeline stage.
type Error struct {
	Kind    ErrorKind // The failure class.
	Message string    // The user-visible message.
	Err     error     // The underlying cause, for logs only.
}

// Sentinels for errors.Is. Matching is on Kind only.
var (
	ErrEmptyInput            = &Error{Kind: KindEmptyInput, Message: userMessages[KindEmptyInput]}
	ErrNarrationUnavailable  = &Error{Kind: KindNarrationUnavailable, Message: userMessages[KindNarrationUnavailable]}
	ErrBackgroundUnavailable = &Error{Kind: KindBackgroundUnavailable, Message: userMessages[KindBackgroundUnavailable]}
	ErrEncodingFailure       = &Error{Kind: KindEncodingFailure, Message: userMessages[KindEncodingFailure]}
	ErrInvalidRequest        = &Error{Kind: KindInvalidRequest, Message: userMessages[KindInvalidRequest]}
)

// NewError wraps cause with the standard user message for kind.
func NewError(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Message: userMessages[kind], Err: cause}
}

// NewErrorf is NewError with a formatted cause.
func NewErrorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return NewError(kind, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is not a pipeline error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns text that is safe to show to the end user for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// WarningKind classifies a non-fatal condition.
type WarningKind string

const (
	// WarningDegradedTiming is raised when fixed per-segment durations overrun
	// the narration and the final segment had to be clamped.
	WarningDegradedTiming WarningKind = "DegradedTiming"
	// WarningBackgroundFallback is raised when a segment fell back to the gradient.
	WarningBackgroundFallback WarningKind = "BackgroundFallback"
)

// Warning is a non-fatal condition attached to a timeline or a result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}
