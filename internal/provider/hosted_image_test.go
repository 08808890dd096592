package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArtifactURLKnownShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"images array", `{"images":[{"url":"https://cdn/a.png"}]}`, "https://cdn/a.png"},
		{"image object", `{"image":{"url":"https://cdn/b.png"}}`, "https://cdn/b.png"},
		{"output array", `{"output":["https://cdn/c.png"]}`, "https://cdn/c.png"},
		{"bare url", `{"url":"https://cdn/d.png"}`, "https://cdn/d.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractArtifactURL([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractArtifactURLPriorityOrder(t *testing.T) {
	// When several shapes are present, the first in priority order wins.
	body := `{"url":"https://cdn/last.png","images":[{"url":"https://cdn/first.png"}]}`
	got, err := extractArtifactURL([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/first.png", got)
}

func TestExtractArtifactURLFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown shape", `{"result":"https://cdn/a.png"}`},
		{"empty images array", `{"images":[]}`},
		{"images entry without url", `{"images":[{"id":"x"}]}`},
		{"empty url value", `{"url":""}`},
		{"output with non-string", `{"output":[42]}`},
		{"not json", `<html>gateway timeout</html>`},
		{"json scalar", `"https://cdn/a.png"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractArtifactURL([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestHostedTransformSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "https://shop/collar.jpg", payload["image_url"])
		assert.NotEmpty(t, payload["prompt"])

		fmt.Fprint(w, `{"images":[{"url":"https://cdn/styled.png"}]}`)
	}))
	defer srv.Close()

	p := NewHostedImageProvider(srv.URL, "test-key")
	result, err := p.Transform(context.Background(), &ImageRequest{
		SubjectURL: "https://shop/collar.jpg",
		Prompt:     "warm autumn palette",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/styled.png", result.ArtifactURL)
}

func TestHostedTransformStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":"upstream exploded"}`)
	}))
	defer srv.Close()

	p := NewHostedImageProvider(srv.URL, "")
	_, err := p.Transform(context.Background(), &ImageRequest{SubjectURL: "https://shop/a.jpg", Prompt: "p"})

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonStatus, pe.Reason)
	assert.Equal(t, "hosted", pe.Provider)
}

func TestHostedTransformMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"done"}`)
	}))
	defer srv.Close()

	p := NewHostedImageProvider(srv.URL, "")
	_, err := p.Transform(context.Background(), &ImageRequest{SubjectURL: "https://shop/a.jpg", Prompt: "p"})

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonMalformed, pe.Reason)
}

func TestHostedTransformNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	p := NewHostedImageProvider(srv.URL, "")
	_, err := p.Transform(context.Background(), &ImageRequest{SubjectURL: "https://shop/a.jpg", Prompt: "p"})

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonNetwork, pe.Reason)
}

func TestHostedTransformTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := NewHostedImageProvider(srv.URL, "")
	_, err := p.Transform(ctx, &ImageRequest{SubjectURL: "https://shop/a.jpg", Prompt: "p"})

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonTimeout, pe.Reason)
}
