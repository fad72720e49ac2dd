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

import "time"

// Artifact is a published output file. Location is whatever the store hands
// back to the caller: a local download path, a gs:// URI or a signed URL.
type Artifact struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Result is the outcome of a successful request.
type Result struct {
	RequestID string    `json:"request_id"`
	Audio     *Artifact `json:"audio"`
	Video     *Artifact `json:"video,omitempty"`
	Segments  int       `json:"segments"`
	Duration  float64   `json:"duration"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

// Record statuses.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// GenerationRecord is the audit row written once per request.
type GenerationRecord struct {
	RequestID        string    `json:"request_id" bigquery:"request_id"`
	Mode             string    `json:"mode" bigquery:"mode"`
	Style            string    `json:"style" bigquery:"style"`
	Segments         int       `json:"segments" bigquery:"segments"`
	NarrationSeconds float64   `json:"narration_seconds" bigquery:"narration_seconds"`
	Status           string    `json:"status" bigquery:"status"`
	ErrorKind        string    `json:"error_kind,omitempty" bigquery:"error_kind"`
	Warnings         []string  `json:"warnings,omitempty" bigquery:"warnings"`
	CreatedAt        time.Time `json:"created_at" bigquery:"created_at"`
}
