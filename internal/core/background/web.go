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

package background

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"golang.org/x/time/rate"
)

// fetcher downloads and decodes images under a shared rate limit.
type fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
}

func newFetcher(client *http.Client, opts Options) *fetcher {
	return &fetcher{client: client, limiter: newLimiter(opts.RequestsPerSecond), opts: opts}
}

func (f *fetcher) fetch(ctx context.Context, rawURL string) (image.Image, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	limit := f.opts.MaxBytes
	if limit <= 0 {
		limit = DefaultOptions().MaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", rawURL, limit)
	}
	return Decode(data, f.opts.MaxPixels)
}

// URLList cycles through caller supplied image URLs.
type URLList struct {
	urls    []string
	fetcher *fetcher
}

func (u *URLList) Resolve(ctx context.Context, q Query) (image.Image, error) {
	if len(u.urls) == 0 {
		return nil, nil
	}
	return u.fetcher.fetch(ctx, u.urls[q.Index%len(u.urls)])
}

// Web asks an image service for a picture matching the style, or for the
// Contextual style, matching keywords drawn from the segment text.
type Web struct {
	opts    Options
	fetcher *fetcher
}

func (w *Web) Resolve(ctx context.Context, q Query) (image.Image, error) {
	return w.fetcher.fetch(ctx, w.URL(q))
}

// URL expands the template for q.
func (w *Web) URL(q Query) string {
	query := w.opts.StyleQueries[q.Style]
	if q.Style == model.StyleContextual || query == "" {
		query = strings.Join(Keywords(q.Text, 3), ",")
	}
	if query == "" {
		query = "abstract"
	}
	terms := strings.Split(query, ",")
	for i, term := range terms {
		terms[i] = url.PathEscape(strings.TrimSpace(term))
	}
	r := strings.NewReplacer(
		"{query}", strings.Join(terms, ","),
		"{width}", strconv.Itoa(w.opts.Width),
		"{height}", strconv.Itoa(w.opts.Height),
		"{index}", strconv.Itoa(q.Index),
	)
	return r.Replace(w.opts.URLTemplate)
}

var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "also": true, "been": true, "before": true,
	"being": true, "between": true, "both": true, "could": true, "does": true, "doing": true,
	"each": true, "from": true, "further": true, "have": true, "having": true, "here": true,
	"into": true, "itself": true, "just": true, "more": true, "most": true, "much": true,
	"only": true, "other": true, "over": true, "same": true, "should": true, "some": true,
	"such": true, "than": true, "that": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "those": true, "through": true,
	"under": true, "until": true, "very": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "will": true, "with": true, "would": true,
	"your": true, "today": true,
}

// Keywords returns up to n content words of text, most frequent first and
// by first appearance on ties.
func Keywords(text string, n int) []string {
	type entry struct {
		word  string
		count int
		first int
	}
	entries := make(map[string]*entry)
	pos := 0
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		word := strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len([]rune(word)) < 4 || stopWords[word] {
			continue
		}
		if e, ok := entries[word]; ok {
			e.count++
			continue
		}
		entries[word] = &entry{word: word, count: 1, first: pos}
		pos++
	}
	list := make([]*entry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].first < list[j].first
	})
	out := make([]string, 0, n)
	for i := 0; i < len(list) && i < n; i++ {
		out = append(out, list[i].word)
	}
	return out
}
