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
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
)

// RecordSink stores one GenerationRecord per finished request.
type RecordSink interface {
	Write(ctx context.Context, record *model.GenerationRecord) error
}

// LogRecordSink writes records to the structured log.
type LogRecordSink struct{}

func (LogRecordSink) Write(ctx context.Context, record *model.GenerationRecord) error {
	slog.InfoContext(ctx, "generation record",
		"request_id", record.RequestID,
		"mode", record.Mode,
		"style", record.Style,
		"segments", record.Segments,
		"narration_seconds", record.NarrationSeconds,
		"status", record.Status,
		"error_kind", record.ErrorKind,
		"warnings", record.Warnings,
	)
	return nil
}

// BigQueryRecordSink streams records into dataset.table.
type BigQueryRecordSink struct {
	client  *bigquery.Client
	dataset string
	table   string
}

func NewBigQueryRecordSink(client *bigquery.Client, dataset string, table string) *BigQueryRecordSink {
	return &BigQueryRecordSink{client: client, dataset: dataset, table: table}
}

func (s *BigQueryRecordSink) Write(ctx context.Context, record *model.GenerationRecord) error {
	i := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := i.Put(ctx, record); err != nil {
		return fmt.Errorf("bigquery insert failed for request '%s': %w", record.RequestID, err)
	}
	return nil
}
