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
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// MessageHandler processes one message body.
type MessageHandler func(ctx context.Context, data []byte) error

// PubSubListener pulls generation requests from a subscription.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	handler      MessageHandler
	timeout      time.Duration
}

func NewPubSubListener(pubsubClient *pubsub.Client, subscriptionID string, handler MessageHandler) (*PubSubListener, error) {
	if subscriptionID == "" {
		return nil, errors.New("pubsub: empty subscription id")
	}
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		handler:      handler,
	}, nil
}

// SetHandler installs the handler if none is set yet.
func (m *PubSubListener) SetHandler(handler MessageHandler) {
	if m.handler == nil {
		m.handler = handler
	}
}

// SetTimeout bounds the processing time of a single message.
func (m *PubSubListener) SetTimeout(timeout time.Duration) {
	m.timeout = timeout
}

// Retryable reports whether a failed message should be redelivered. Bad
// input never succeeds on retry, so it is acknowledged and dropped.
func Retryable(err error) bool {
	switch model.KindOf(err) {
	case model.KindEmptyInput, model.KindInvalidRequest:
		return false
	}
	return true
}

// Listen starts receiving in the background until ctx is cancelled.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(msgCtx, "receive-message")
			defer span.End()
			span.SetAttributes(attribute.String("message_id", msg.ID))
			if m.timeout > 0 {
				var cancel context.CancelFunc
				spanCtx, cancel = context.WithTimeout(spanCtx, m.timeout)
				defer cancel()
			}

			err := m.handler(spanCtx, msg.Data)
			switch {
			case err == nil:
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
			case !Retryable(err):
				span.SetStatus(codes.Error, "rejected")
				slog.WarnContext(spanCtx, "dropping invalid request", "message_id", msg.ID, "error", err)
				msg.Ack()
			default:
				span.SetStatus(codes.Error, "failed")
				slog.ErrorContext(spanCtx, "error executing request", "message_id", msg.ID, "error", err)
				msg.Nack()
			}
		})
		if err != nil {
			slog.Error("error receiving data", "error", err)
		}
	}()
}
