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
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ServiceClients holds the Google Cloud clients the configuration asks for.
// Any of them may be nil.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	BigQueryClient  *bigquery.Client
	IAMClient       *credentials.IamCredentialsClient
	PubSubListeners map[string]*PubSubListener // Keyed like Config.TopicSubscriptions.
}

func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BigQueryClient != nil {
		_ = c.BigQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NeedsCloud reports whether config requires any Google Cloud client.
func NeedsCloud(config *Config) bool {
	return config.Storage.Kind == StorageGCS ||
		config.Records.Kind == RecordsBigQuery ||
		len(config.TopicSubscriptions) > 0
}

// NewCloudServiceClients creates the clients config requires. Listeners are
// created without a handler; the caller installs one with SetHandler.
//
// Inputs:
//   - ctx: Used while dialing the services.
//   - config: The loaded configuration.
//
// Outputs:
//   - *ServiceClients: The clients; nil fields were not needed.
//   - error: The first client that could not be created.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	var opts []option.ClientOption
	if config.Application.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.Application.CredentialsFile))
	}
	project := config.Application.GoogleProjectId
	clients := &ServiceClients{PubSubListeners: make(map[string]*PubSubListener)}

	if config.Storage.Kind == StorageGCS || len(config.TopicSubscriptions) > 0 {
		sc, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("storage client: %w", err)
		}
		clients.StorageClient = sc
	}
	if config.Storage.Kind == StorageGCS && config.Application.SignerServiceAccountEmail != "" {
		ic, err := credentials.NewIamCredentialsClient(ctx, opts...)
		if err != nil {
			clients.Close()
			return nil, fmt.Errorf("iam credentials client: %w", err)
		}
		clients.IAMClient = ic
	}
	if config.Records.Kind == RecordsBigQuery {
		bc, err := bigquery.NewClient(ctx, project, opts...)
		if err != nil {
			clients.Close()
			return nil, fmt.Errorf("bigquery client: %w", err)
		}
		clients.BigQueryClient = bc
	}
	if len(config.TopicSubscriptions) > 0 {
		pc, err := pubsub.NewClient(ctx, project, opts...)
		if err != nil {
			clients.Close()
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		clients.PubsubClient = pc
		for key, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(pc, values.Name, nil)
			if err != nil {
				clients.Close()
				return nil, fmt.Errorf("subscription %s: %w", key, err)
			}
			listener.SetTimeout(time.Duration(values.TimeoutInSeconds) * time.Second)
			clients.PubSubListeners[key] = listener
		}
	}
	slog.Info("cloud clients ready", "project", project,
		"storage", clients.StorageClient != nil,
		"bigquery", clients.BigQueryClient != nil,
		"pubsub", clients.PubsubClient != nil,
		"iam", clients.IAMClient != nil)
	return clients, nil
}

// NewArtifactStore returns the store selected by config.Storage.
func NewArtifactStore(config *Config, clients *ServiceClients) (ArtifactStore, error) {
	switch config.Storage.Kind {
	case "", StorageLocal:
		return NewLocalStore(config.Storage.LocalDir)
	case StorageGCS:
		if clients == nil || clients.StorageClient == nil {
			return nil, fmt.Errorf("gcs store needs a storage client")
		}
		if config.Storage.Bucket == "" {
			return nil, fmt.Errorf("gcs store needs storage.bucket")
		}
		store := NewGCSStore(clients.StorageClient, config.Storage.Bucket, config.Storage.Prefix)
		if clients.IAMClient != nil && config.Storage.SignedURLMinutes > 0 {
			store.WithSigner(clients.IAMClient, config.Application.SignerServiceAccountEmail,
				time.Duration(config.Storage.SignedURLMinutes)*time.Minute)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage kind %q", config.Storage.Kind)
}

// NewRecordSink returns the sink selected by config.Records.
func NewRecordSink(config *Config, clients *ServiceClients) (RecordSink, error) {
	switch config.Records.Kind {
	case "", RecordsLog:
		return LogRecordSink{}, nil
	case RecordsBigQuery:
		if clients == nil || clients.BigQueryClient == nil {
			return nil, fmt.Errorf("bigquery sink needs a bigquery client")
		}
		return NewBigQueryRecordSink(clients.BigQueryClient, config.Records.Dataset, config.Records.Table), nil
	}
	return nil, fmt.Errorf("unknown records kind %q", config.Records.Kind)
}
