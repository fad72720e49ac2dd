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


package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"google.golang.org/api/iterator"
)

// ErrRecordNotFound is returned by HistoryService.Get for an unknown id.
var ErrRecordNotFound = errors.New("generation record not found")

// HistoryService reads the generation records written by the BigQuery sink.
type HistoryService struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	Table          string
}

// GetFQN returns the table name in the dotted form used by standard SQL.
func (s *HistoryService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.Table).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Recent returns at most limit records, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]*model.GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(QryRecentGenerations, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "limit", Value: limit}}
	return s.read(ctx, q)
}

// Get returns the latest record of a request.
func (s *HistoryService) Get(ctx context.Context, requestID string) (*model.GenerationRecord, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindGenerationById, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "request_id", Value: requestID}}
	out, err := s.read(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrRecordNotFound
	}
	return out[0], nil
}

func (s *HistoryService) read(ctx context.Context, q *bigquery.Query) ([]*model.GenerationRecord, error) {
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read from BigQuery: %w", err)
	}
	out := make([]*model.GenerationRecord, 0)
	for {
		r := &model.GenerationRecord{}
		err := itr.Next(r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
