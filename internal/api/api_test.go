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


package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-slideshow/internal/cloud"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/model"
	"github.com/jaycherian/gcp-go-slideshow/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	req    *model.GenerationRequest
	result *model.Result
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, req *model.GenerationRequest) (*model.Result, error) {
	f.req = req
	return f.result, f.err
}

type fakeHistory struct {
	records []*model.GenerationRecord
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]*model.GenerationRecord, error) {
	if limit < len(f.records) {
		return f.records[:limit], nil
	}
	return f.records, nil
}

func (f *fakeHistory) Get(_ context.Context, id string) (*model.GenerationRecord, error) {
	for _, r := range f.records {
		if r.RequestID == id {
			return r, nil
		}
	}
	return nil, services.ErrRecordNotFound
}

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, data := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestGenerateMultipart(t *testing.T) {
	gen := &fakeGenerator{result: &model.Result{
		RequestID: "r1",
		Audio:     &model.Artifact{Name: "a.mp3", Location: "a.mp3"},
		Video:     &model.Artifact{Name: "v.mp4", Location: "https://storage.example.com/v.mp4"},
		Segments:  2,
		Duration:  4,
	}}
	router := NewRouter(&Handlers{Generator: gen}, "test")

	body, contentType := multipartBody(t, map[string]string{
		"text":            "Hello world. This is a test.",
		"mode":            "video",
		"style":           "Nature",
		"effects":         "on",
		"allocation":      "uniform",
		"background_urls": "https://a.example/1.png, https://a.example/2.png",
	}, map[string][]byte{"bg.png": []byte("png bytes")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, gen.req)
	assert.Equal(t, "Hello world. This is a test.", gen.req.Text)
	assert.Equal(t, model.StyleNature, gen.req.Style)
	assert.True(t, gen.req.EffectsEnabled)
	assert.Equal(t, model.AllocateUniform, gen.req.Allocation)
	assert.Equal(t, []string{"https://a.example/1.png", "https://a.example/2.png"}, gen.req.BackgroundURLs)
	require.Len(t, gen.req.Uploads, 1)
	assert.Equal(t, "bg.png", gen.req.Uploads[0].Name)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "r1", out["request_id"])
	assert.Equal(t, ArtifactPath+"a.mp3", out["audio_url"])
	assert.Equal(t, "https://storage.example.com/v.mp4", out["video_url"])
}

func TestGenerateJSON(t *testing.T) {
	gen := &fakeGenerator{result: &model.Result{Audio: &model.Artifact{Name: "a.mp3"}}}
	router := NewRouter(&Handlers{Generator: gen}, "test")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate",
		bytes.NewBufferString(`{"text":"Hi there.","mode":"audio"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ModeAudio, gen.req.Mode)
}

func TestGenerateJSONIgnoresBucketObjects(t *testing.T) {
	gen := &fakeGenerator{result: &model.Result{Audio: &model.Artifact{Name: "a.mp3"}}}
	router := NewRouter(&Handlers{Generator: gen}, "test")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate",
		bytes.NewBufferString(`{"text":"Hi there.","image_objects":["gs://private-bucket/secret.png"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hi there.", gen.req.Text)
	assert.Empty(t, gen.req.ImageObjects)
	assert.Empty(t, gen.req.MusicPath)
}

func TestGenerateErrorStatus(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"empty":     {model.NewErrorf(model.KindEmptyInput, "blank"), http.StatusBadRequest},
		"invalid":   {model.NewErrorf(model.KindInvalidRequest, "bad"), http.StatusBadRequest},
		"narration": {model.NewErrorf(model.KindNarrationUnavailable, "429"), http.StatusBadGateway},
		"encoding":  {model.NewErrorf(model.KindEncodingFailure, "/tmp/x: exit 1"), http.StatusInternalServerError},
		"untyped":   {errors.New("disk full at /var/tmp"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			router := NewRouter(&Handlers{Generator: &fakeGenerator{err: tc.err}}, "test")
			body, contentType := multipartBody(t, map[string]string{"text": "x"}, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), model.UserMessage(tc.err))
			assert.NotContains(t, rec.Body.String(), "/tmp")
			assert.NotContains(t, rec.Body.String(), "/var")
		})
	}
}

func TestGenerateRejectsBadEffectsFlag(t *testing.T) {
	gen := &fakeGenerator{}
	router := NewRouter(&Handlers{Generator: gen}, "test")
	body, contentType := multipartBody(t, map[string]string{"text": "x", "effects": "maybe"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, gen.req)
}

func TestArtifactDownload(t *testing.T) {
	dir := t.TempDir()
	store, err := cloud.NewLocalStore(dir)
	require.NoError(t, err)
	src := filepath.Join(t.TempDir(), "narration.mp3")
	require.NoError(t, os.WriteFile(src, []byte("ID3\x03\x00\x00\x00\x00\x00\x00audio"), 0o644))
	artifact, err := store.Publish(context.Background(), src, "audio/mpeg")
	require.NoError(t, err)
	router := NewRouter(&Handlers{Generator: &fakeGenerator{}, Artifacts: store}, "test")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ArtifactPath+artifact.Name, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "audio")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ArtifactPath+"missing.mp4", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard(t *testing.T) {
	history := &fakeHistory{records: []*model.GenerationRecord{
		{RequestID: "r2", Status: model.StatusFailed},
		{RequestID: "r1", Status: model.StatusSucceeded},
	}}
	router := NewRouter(&Handlers{Generator: &fakeGenerator{}, History: history}, "test")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats?count=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out []model.GenerationRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].RequestID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	router = NewRouter(&Handlers{Generator: &fakeGenerator{}}, "test")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	router := NewRouter(&Handlers{Generator: &fakeGenerator{}}, "test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
