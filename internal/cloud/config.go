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

// Package cloud holds the process configuration, loaded from layered TOML
// files, and the adapters to Google Cloud services: the GCS artifact store,
// the BigQuery record sink and the Pub/Sub request listener.
//
// Structs:
//   - Config: The top-level configuration, one section per pipeline stage.
//   - Storage: Where finished artifacts are published.
//   - Records: Where generation records are written.
//   - TopicSubscription: A Pub/Sub subscription the server listens on.
package cloud

import (
	"time"

	"github.com/jaycherian/gcp-go-slideshow/internal/core/background"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/compose"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/narration"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/render"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/segment"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/timeline"
)

// Store and sink kinds.
const (
	StorageLocal    = "local"
	StorageGCS      = "gcs"
	RecordsLog      = "log"
	RecordsBigQuery = "bigquery"
)

// TopicSubscription configures one Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The subscription id.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // Informational; dead lettering is configured on the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Per-message processing deadline.
}

// Storage configures the artifact store.
type Storage struct {
	Kind             string `toml:"kind"`               // "local" or "gcs".
	LocalDir         string `toml:"local_dir"`          // Root of the local store.
	Bucket           string `toml:"bucket"`             // GCS bucket for the gcs store.
	Prefix           string `toml:"prefix"`             // Object name prefix inside the bucket.
	SignedURLMinutes int    `toml:"signed_url_minutes"` // Lifetime of signed download URLs; 0 returns gs:// URIs.
}

// Records configures the generation record sink.
type Records struct {
	Kind    string `toml:"kind"` // "log" or "bigquery".
	Dataset string `toml:"dataset"`
	Table   string `toml:"table"`
}

type Narration struct {
	ProviderURL           string  `toml:"provider_url"`
	Language              string  `toml:"language"`
	ChunkLength           int     `toml:"chunk_length"`
	RequestsPerSecond     float64 `toml:"requests_per_second"`
	TimeoutInSeconds      int     `toml:"timeout_in_seconds"`
	ProbeTimeoutInSeconds int     `toml:"probe_timeout_in_seconds"`
	MaxRetries            int     `toml:"max_retries"`
	RetryDelayMillis      int     `toml:"retry_delay_millis"`
	MaxChunkBytes         int64   `toml:"max_chunk_bytes"`
}

type Segmentation struct {
	Mode            string  `toml:"mode"`
	Terminators     string  `toml:"terminators"`
	SecondsPerChunk float64 `toml:"seconds_per_chunk"`
}

type Timeline struct {
	Policy            string  `toml:"policy"`
	SecondsPerWord    float64 `toml:"seconds_per_word"`
	MaxSegmentSeconds float64 `toml:"max_segment_seconds"`
}

type Render struct {
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
	WrapWidth  int      `toml:"wrap_width"`
	FontSize   float64  `toml:"font_size"`
	Padding    int      `toml:"padding"`
	FontPaths  []string `toml:"font_paths"`
	PanelColor string   `toml:"panel_color"` // #RRGGBBAA
	TextColor  string   `toml:"text_color"`  // #RRGGBB
}

type Compose struct {
	FFmpegPath  string  `toml:"ffmpeg_path"`
	FPS         int     `toml:"fps"`
	Crossfade   float64 `toml:"crossfade"`
	VideoCodec  string  `toml:"video_codec"`
	AudioCodec  string  `toml:"audio_codec"`
	Preset      string  `toml:"preset"`
	MusicPath   string  `toml:"music_path"`
	MusicVolume float64 `toml:"music_volume"`
}

type Backgrounds struct {
	URLTemplate       string            `toml:"url_template"`
	TimeoutInSeconds  int               `toml:"timeout_in_seconds"`
	RequestsPerSecond float64           `toml:"requests_per_second"`
	MaxBytes          int64             `toml:"max_bytes"`
	MaxPixels         int64             `toml:"max_pixels"`
	StyleQueries      map[string]string `toml:"style_queries"`
}

// Config is the process configuration.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"` // Empty disables every Google Cloud client.
		GoogleLocation            string `toml:"location"`
		CredentialsFile           string `toml:"credentials_file"` // Optional service account key for the cloud clients.
		ThreadPoolSize            int    `toml:"thread_pool_size"` // Render workers per request.
		TempDir                   string `toml:"temp_dir"`         // Parent of per-request working directories.
		ListenAddress             string `toml:"listen_address"`
		MaxUploadMegabytes        int64  `toml:"max_upload_megabytes"`
		LogFile                   string `toml:"log_file"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
	} `toml:"application"`
	Narration          Narration                    `toml:"narration"`
	Segmentation       Segmentation                 `toml:"segmentation"`
	Timeline           Timeline                     `toml:"timeline"`
	Render             Render                       `toml:"render"`
	Effects            timeline.EffectPolicy        `toml:"effects"`
	Compose            Compose                      `toml:"compose"`
	Backgrounds        Backgrounds                  `toml:"backgrounds"`
	Storage            Storage                      `toml:"storage"`
	Records            Records                      `toml:"records"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by logical name, e.g. "generation".
}

// NewConfig returns a configuration populated with the package defaults so
// that TOML files only need to carry overrides.
func NewConfig() *Config {
	seg := segment.DefaultOptions()
	tl := timeline.DefaultOptions()
	ren := render.DefaultOptions()
	com := compose.DefaultOptions()
	bg := background.DefaultOptions()

	c := &Config{
		Narration: Narration{
			ProviderURL:           narration.DefaultTranslateTTSURL,
			Language:              "en",
			ChunkLength:           narration.DefaultChunkLength,
			RequestsPerSecond:     2,
			TimeoutInSeconds:      30,
			ProbeTimeoutInSeconds: 30,
			MaxRetries:            2,
			RetryDelayMillis:      500,
			MaxChunkBytes:         narration.DefaultMaxChunkBytes,
		},
		Segmentation: Segmentation{
			Mode:            string(seg.Mode),
			Terminators:     seg.Terminators,
			SecondsPerChunk: seg.SecondsPerChunk,
		},
		Timeline: Timeline{
			Policy:            string(tl.Policy),
			SecondsPerWord:    tl.SecondsPerWord,
			MaxSegmentSeconds: tl.MaxSegmentSeconds,
		},
		Render: Render{
			Width:      ren.Width,
			Height:     ren.Height,
			WrapWidth:  ren.WrapWidth,
			FontSize:   ren.FontSize,
			Padding:    ren.Padding,
			FontPaths:  append([]string(nil), ren.FontPaths...),
			PanelColor: "#000000B3",
			TextColor:  "#FFFFFF",
		},
		Effects: timeline.DefaultEffectPolicy(),
		Compose: Compose{
			FFmpegPath:  compose.DefaultFFmpegPath,
			FPS:         com.FPS,
			Crossfade:   com.Crossfade,
			VideoCodec:  com.VideoCodec,
			AudioCodec:  com.AudioCodec,
			Preset:      com.Preset,
			MusicVolume: com.MusicVolume,
		},
		Backgrounds: Backgrounds{
			URLTemplate:       bg.URLTemplate,
			TimeoutInSeconds:  int(bg.Timeout / time.Second),
			RequestsPerSecond: bg.RequestsPerSecond,
			MaxBytes:          bg.MaxBytes,
			MaxPixels:         bg.MaxPixels,
			StyleQueries:      make(map[string]string),
		},
		Storage: Storage{Kind: StorageLocal, LocalDir: "artifacts", SignedURLMinutes: 60},
		Records: Records{Kind: RecordsLog},

		TopicSubscriptions: make(map[string]TopicSubscription),
	}
	for style, q := range bg.StyleQueries {
		c.Backgrounds.StyleQueries[string(style)] = q
	}
	c.Application.Name = "slideshow"
	c.Application.ThreadPoolSize = 4
	c.Application.ListenAddress = ":8080"
	c.Application.MaxUploadMegabytes = 32
	return c
}

// SegmentOptions returns the segmenter options for a request. The request's
// mode wins over the configured one.
func (c *Config) SegmentOptions(req *model.GenerationRequest) segment.Options {
	opts := segment.DefaultOptions()
	if c.Segmentation.Mode != "" {
		opts.Mode = model.SegmentationMode(c.Segmentation.Mode)
	}
	if req != nil && req.Segmentation != "" {
		opts.Mode = req.Segmentation
	}
	if c.Segmentation.Terminators != "" {
		opts.Terminators = c.Segmentation.Terminators
	}
	if c.Segmentation.SecondsPerChunk > 0 {
		opts.SecondsPerChunk = c.Segmentation.SecondsPerChunk
	}
	return opts
}

// TimelineOptions returns the allocator options for a request.
func (c *Config) TimelineOptions(req *model.GenerationRequest) timeline.Options {
	opts := timeline.DefaultOptions()
	if c.Timeline.Policy != "" {
		opts.Policy = model.AllocationPolicy(c.Timeline.Policy)
	}
	if req != nil && req.Allocation != "" {
		opts.Policy = req.Allocation
	}
	if c.Timeline.SecondsPerWord > 0 {
		opts.SecondsPerWord = c.Timeline.SecondsPerWord
	}
	if c.Timeline.MaxSegmentSeconds > 0 {
		opts.MaxSegmentSeconds = c.Timeline.MaxSegmentSeconds
	}
	return opts
}

// EffectPolicy returns the configured effects, disabled unless the request
// asks for them.
func (c *Config) EffectPolicy(req *model.GenerationRequest) timeline.EffectPolicy {
	policy := c.Effects
	policy.Enabled = policy.Enabled && req != nil && req.EffectsEnabled
	return policy
}

// RenderOptions converts the render section. Invalid colors fall back to
// the defaults.
func (c *Config) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	if c.Render.Width > 0 && c.Render.Height > 0 {
		opts.Width, opts.Height = c.Render.Width, c.Render.Height
	}
	if c.Render.WrapWidth > 0 {
		opts.WrapWidth = c.Render.WrapWidth
	}
	if c.Render.FontSize > 0 {
		opts.FontSize = c.Render.FontSize
	}
	if c.Render.Padding > 0 {
		opts.Padding = c.Render.Padding
	}
	if len(c.Render.FontPaths) > 0 {
		opts.FontPaths = c.Render.FontPaths
	}
	if col, err := render.ParseHexColor(c.Render.PanelColor); err == nil {
		opts.PanelColor = col
	}
	if col, err := render.ParseHexColor(c.Render.TextColor); err == nil {
		opts.TextColor = col
	}
	return opts
}

// ComposeOptions converts the compose section, sized to the rendered frames.
func (c *Config) ComposeOptions() compose.Options {
	opts := compose.DefaultOptions()
	ren := c.RenderOptions()
	opts.Width, opts.Height = ren.Width, ren.Height
	if c.Compose.FPS > 0 {
		opts.FPS = c.Compose.FPS
	}
	if c.Compose.Crossfade >= 0 {
		opts.Crossfade = c.Compose.Crossfade
	}
	if c.Compose.VideoCodec != "" {
		opts.VideoCodec = c.Compose.VideoCodec
	}
	if c.Compose.AudioCodec != "" {
		opts.AudioCodec = c.Compose.AudioCodec
	}
	if c.Compose.Preset != "" {
		opts.Preset = c.Compose.Preset
	}
	if c.Compose.MusicVolume > 0 {
		opts.MusicVolume = c.Compose.MusicVolume
	}
	return opts
}

// BackgroundOptions converts the backgrounds section. Unknown style names
// are ignored.
func (c *Config) BackgroundOptions() background.Options {
	opts := background.DefaultOptions()
	ren := c.RenderOptions()
	opts.Width, opts.Height = ren.Width, ren.Height
	if c.Backgrounds.URLTemplate != "" {
		opts.URLTemplate = c.Backgrounds.URLTemplate
	}
	if c.Backgrounds.TimeoutInSeconds > 0 {
		opts.Timeout = time.Duration(c.Backgrounds.TimeoutInSeconds) * time.Second
	}
	if c.Backgrounds.RequestsPerSecond > 0 {
		opts.RequestsPerSecond = c.Backgrounds.RequestsPerSecond
	}
	if c.Backgrounds.MaxBytes > 0 {
		opts.MaxBytes = c.Backgrounds.MaxBytes
	}
	if c.Backgrounds.MaxPixels > 0 {
		opts.MaxPixels = c.Backgrounds.MaxPixels
	}
	for name, q := range c.Backgrounds.StyleQueries {
		if style, err := model.ParseStyle(name); err == nil {
			opts.StyleQueries[style] = q
		}
	}
	return opts
}

// TranslateOptions converts the narration section.
func (c *Config) TranslateOptions() narration.TranslateOptions {
	return narration.TranslateOptions{
		BaseURL:           c.Narration.ProviderURL,
		ChunkLength:       c.Narration.ChunkLength,
		RequestsPerSecond: c.Narration.RequestsPerSecond,
		Timeout:           time.Duration(c.Narration.TimeoutInSeconds) * time.Second,
		MaxChunkBytes:     c.Narration.MaxChunkBytes,
	}
}
