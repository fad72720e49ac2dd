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
	"log/slog"

	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/services"
)

// GenerationSubscription is the topic_subscriptions key of queued requests.
const GenerationSubscription = "generation"

// SetupListeners binds the generator to the configured subscriptions and
// starts receiving.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, generator *services.Generator) {
	for key, listener := range cloudClients.PubSubListeners {
		if key != GenerationSubscription {
			slog.Warn("no handler for subscription", "key", key, "subscription", config.TopicSubscriptions[key].Name)
			continue
		}
		listener.SetHandler(func(ctx context.Context, data []byte) error {
			result, err := generator.GenerateMessage(ctx, data)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "queued generation complete", "request_id", result.RequestID)
			return nil
		})
		listener.Listen(ctx)
	}
}
