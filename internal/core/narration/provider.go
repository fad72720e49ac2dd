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

// Package narration turns text into a speech track and measures it.
//
// The speech engine itself is an external service reached through Provider.
// Narrator stores the stream in the request's working directory and probes
// its duration, which is the only number the rest of the pipeline needs.
package narration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

// Provider synthesizes speech. The returned stream is MP3 audio.
type Provider interface {
	Synthesize(ctx context.Context, text string, language string) (io.ReadCloser, error)
}

const (
	DefaultTranslateTTSURL = "https://translate.google.com/translate_tts"
	DefaultChunkLength     = 100
	DefaultMaxChunkBytes   = 4 << 20
	DefaultUserAgent       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// TranslateOptions configures GoogleTranslateProvider.
type TranslateOptions struct {
	BaseURL           string
	ChunkLength       int     // Max runes per request.
	RequestsPerSecond float64 // Shared across requests; <= 0 is unlimited.
	Timeout           time.Duration
	UserAgent         string
	MaxChunkBytes     int64   // Largest accepted audio body per chunk.
}

// GoogleTranslateProvider calls the public translate TTS endpoint. The
// endpoint only accepts short inputs, so text is sent in word-boundary
// chunks and the MP3 parts are concatenated, which MP3 framing allows.
type GoogleTranslateProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    TranslateOptions
}

// NewGoogleTranslateProvider creates a provider. A nil client uses a client
// with opts.Timeout.
func NewGoogleTranslateProvider(client *http.Client, opts TranslateOptions) *GoogleTranslateProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultTranslateTTSURL
	}
	if opts.ChunkLength <= 0 {
		opts.ChunkLength = DefaultChunkLength
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxChunkBytes <= 0 {
		opts.MaxChunkBytes = DefaultMaxChunkBytes
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return &GoogleTranslateProvider{client: client, limiter: limiter, opts: opts}
}

func (p *GoogleTranslateProvider) Synthesize(ctx context.Context, text string, language string) (io.ReadCloser, error) {
	chunks := SplitText(text, p.opts.ChunkLength)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("nothing to synthesize")
	}
	if language == "" {
		language = "en"
	}
	var audio bytes.Buffer
	for i, chunk := range chunks {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if err := p.fetchChunk(ctx, &audio, chunk, language, i, len(chunks)); err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return io.NopCloser(&audio), nil
}

func (p *GoogleTranslateProvider) fetchChunk(ctx context.Context, w io.Writer, chunk string, language string, idx int, total int) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", language)
	params.Set("q", chunk)
	params.Set("total", strconv.Itoa(total))
	params.Set("idx", strconv.Itoa(idx))
	params.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", p.opts.UserAgent)
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tts status %d", resp.StatusCode)
	}
	limit := p.opts.MaxChunkBytes
	n, err := io.Copy(w, io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("tts returned an empty body")
	}
	if n > limit {
		return fmt.Errorf("tts body exceeds %d bytes", limit)
	}
	return nil
}

// SplitText splits text into chunks of at most limit runes, breaking on
// whitespace. A single word longer than limit is cut.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLength
	}
	out := make([]string, 0)
	var cur strings.Builder
	curLen := 0
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > limit {
			if curLen > 0 {
				out = append(out, cur.String())
				cur.Reset()
				curLen = 0
			}
			r := []rune(word)
			out = append(out, string(r[:limit]))
			word = string(r[limit:])
		}
		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > limit {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}
