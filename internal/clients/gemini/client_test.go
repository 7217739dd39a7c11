package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
  "candidates": [{
    "content": {"parts": [{"text": "[FA_INSIGHT]: سلام "}, {"text": "[EN_INSIGHT]: hello"}]},
    "groundingMetadata": {"groundingChunks": [
      {"maps": {"uri": "https://maps.google.com/?cid=1"}},
      {"web": {"uri": "https://example.org/x"}},
      {"web": {}}
    ]}
  }]
}`

func newTestClient(url string) *Client {
	c := NewClient("test-key", "")
	c.SetBaseURL(url)
	c.SetRetry(3, time.Millisecond)
	return c
}

func TestGenerateContent(t *testing.T) {
	var got GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/"+DefaultModel+":generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	req := &GenerateRequest{
		Contents:         []Content{{Role: "user", Parts: []Part{{Text: "prompt"}}}},
		GenerationConfig: &GenerationConfig{Temperature: 0.75},
		Tools:            []Tool{{GoogleMaps: &struct{}{}}},
		ToolConfig:       &ToolConfig{RetrievalConfig: RetrievalConfig{LatLng: LatLng{Latitude: 35.7, Longitude: 51.4}}},
	}

	resp, err := newTestClient(srv.URL).GenerateContent(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "[FA_INSIGHT]: سلام [EN_INSIGHT]: hello", resp.Text())
	assert.Equal(t, []string{"https://maps.google.com/?cid=1", "https://example.org/x"}, resp.GroundingLinks())

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "prompt", got.Contents[0].Parts[0].Text)
	assert.InDelta(t, 0.75, got.GenerationConfig.Temperature, 1e-9)
	require.Len(t, got.Tools, 1)
	assert.NotNil(t, got.Tools[0].GoogleMaps)
	assert.InDelta(t, 35.7, got.ToolConfig.RetrievalConfig.LatLng.Latitude, 1e-9)
}

func TestGenerateContentOmitsEmptyTools(t *testing.T) {
	body, err := json.Marshal(&GenerateRequest{Contents: []Content{{Parts: []Part{{Text: "x"}}}}})
	require.NoError(t, err)
	assert.NotContains(t, string(body), "tools")
	assert.NotContains(t, string(body), "toolConfig")
}

func TestGenerateContentRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(okBody))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).GenerateContent(context.Background(), &GenerateRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Text())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerateContentDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateContent(context.Background(), &GenerateRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.False(t, apiErr.Temporary())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmptyResponse(t *testing.T) {
	var resp GenerateResponse
	assert.Empty(t, resp.Text())
	assert.Nil(t, resp.GroundingLinks())
}
