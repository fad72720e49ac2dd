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

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-slideshow/internal/api"
	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/services"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/workflow"
)

// state manages the application's dependencies.
var state = &StateManager{}

// StateManager holds the shared components for the application.
type StateManager struct {
	config    *cloud.Config
	cloud     *cloud.ServiceClients
	store     cloud.ArtifactStore
	generator *services.Generator
	history   *services.HistoryService
}

// SetupOS defaults the configuration location to ./configs and the runtime
// to "local" unless the environment already names them.
func SetupOS() {
	defaults := map[string]string{
		cloud.EnvConfigFilePrefix: "configs",
		cloud.EnvConfigRuntime:    "local",
	}
	for key, value := range defaults {
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			log.Fatalf("failed to setup env: %v\n", err)
		}
	}
}

// GetConfig loads the application configuration once.
func GetConfig() *cloud.Config {
	if state.config == nil {
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState creates the cloud clients, the artifact store, the record sink
// and the generator, then starts the Pub/Sub listeners.
func InitState(ctx context.Context, config *cloud.Config) error {
	clients := &cloud.ServiceClients{}
	if cloud.NeedsCloud(config) {
		c, err := cloud.NewCloudServiceClients(ctx, config)
		if err != nil {
			return err
		}
		clients = c
	}
	state.cloud = clients

	store, err := cloud.NewArtifactStore(config, clients)
	if err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}
	state.store = store

	records, err := cloud.NewRecordSink(config, clients)
	if err != nil {
		return fmt.Errorf("record sink: %w", err)
	}
	if clients.BigQueryClient != nil {
		state.history = &services.HistoryService{
			BigqueryClient: clients.BigQueryClient,
			DatasetName:    config.Records.Dataset,
			Table:          config.Records.Table,
		}
	}

	state.generator = services.NewGenerator(config, workflow.Dependencies{
		Narrator:      cloud.NewNarrator(config),
		Store:         store,
		Records:       records,
		StorageClient: clients.StorageClient,
	})

	SetupListeners(ctx, config, clients, state.generator)
	return nil
}

// Handlers returns the route dependencies built by InitState.
func Handlers() *api.Handlers {
	h := &api.Handlers{
		Generator:      state.generator,
		MaxUploadBytes: state.config.Application.MaxUploadMegabytes << 20,
	}
	if local, ok := state.store.(*cloud.LocalStore); ok {
		h.Artifacts = local
	}
	if state.history != nil {
		h.History = state.history
	}
	return h
}
