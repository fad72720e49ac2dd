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
	"io"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/cor"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/narration"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

// QuotaAwareProvider wraps a speech provider with a process-wide request
// rate and a bounded number of retries.
type QuotaAwareProvider struct {
	Provider     narration.Provider
	RateLimit    *rate.Limiter
	MaxRetries   int
	RetryDelay   time.Duration
	RetryCounter metric.Int64Counter // Optional.
}

// NewQuotaAwareProvider creates the wrapper. requestsPerSecond <= 0 disables
// rate limiting.
func NewQuotaAwareProvider(provider narration.Provider, requestsPerSecond float64, maxRetries int, retryDelay time.Duration) *QuotaAwareProvider {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetries > MaxRetries {
		maxRetries = MaxRetries
	}
	return &QuotaAwareProvider{Provider: provider, RateLimit: limiter, MaxRetries: maxRetries, RetryDelay: retryDelay}
}

func (q *QuotaAwareProvider) Synthesize(ctx context.Context, text string, language string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt <= q.MaxRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		out, err := q.Provider.Synthesize(ctx, text, language)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == q.MaxRetries {
			break
		}
		slog.WarnContext(ctx, "speech synthesis failed, retrying", "attempt", attempt+1, "error", err)
		if q.RetryCounter != nil {
			q.RetryCounter.Add(ctx, 1)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.RetryDelay * time.Duration(attempt+1)):
		}
	}
	return nil, lastErr
}

// NewNarrator builds the narrator described by the narration section: the
// translate TTS provider, retried by a QuotaAwareProvider, with durations
// measured by ffprobe. The provider paces its own chunk requests, so the
// wrapper only retries.
func NewNarrator(config *Config) *narration.Narrator {
	provider := NewQuotaAwareProvider(
		narration.NewGoogleTranslateProvider(nil, config.TranslateOptions()),
		0,
		config.Narration.MaxRetries,
		time.Duration(config.Narration.RetryDelayMillis)*time.Millisecond)
	counter, err := otel.Meter(cor.MeterName).Int64Counter("narration.retries")
	if err == nil {
		provider.RetryCounter = counter
	}
	prober := narration.FFProbe{Timeout: time.Duration(config.Narration.ProbeTimeoutInSeconds) * time.Second}
	return narration.NewNarrator(provider, prober)
}
