package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	providerNameHosted = "hosted"

	// Logging limits
	maxErrorResponseChars = 200
)

// HostedImageProvider implements ImageProvider against a generic hosted
// image-edit HTTP API. Different deployments of these APIs disagree on the
// response envelope, so extraction probes the known shapes in a fixed
// priority order and fails closed when none match.
type HostedImageProvider struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHostedImageProvider creates a provider for the configured endpoint
func NewHostedImageProvider(baseURL, apiKey string) *HostedImageProvider {
	return &HostedImageProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// Name returns the provider name
func (p *HostedImageProvider) Name() string {
	return providerNameHosted
}

// Transform sends the subject and prompt to the hosted API and extracts the
// generated image URL from the response
func (p *HostedImageProvider) Transform(ctx context.Context, request *ImageRequest) (*ImageResult, error) {
	startTime := time.Now()
	log.Printf("🎨 HOSTED IMAGE REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "hosted.transform")
	defer transaction.Finish()

	transaction.SetTag("provider", providerNameHosted)
	transaction.SetTag("model", request.Model)

	payload := map[string]any{
		"image_url": request.SubjectURL,
		"prompt":    request.Prompt,
	}
	if request.Model != "" {
		payload["model"] = request.Model
	}

	body, err := json.Marshal(payload)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, NewError(providerNameHosted, ReasonMalformed, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, NewError(providerNameHosted, ReasonNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	span := transaction.StartChild("hosted.api_call")
	apiStartTime := time.Now()
	resp, err := p.http.Do(req)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ HOSTED IMAGE REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, WrapTransport(providerNameHosted, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("⚠️  Failed to close response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, WrapTransport(providerNameHosted, err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("API error %d: %s", resp.StatusCode, truncateString(string(respBody), maxErrorResponseChars))
		log.Printf("❌ HOSTED IMAGE API ERROR: %v", statusErr)
		transaction.SetTag("success", "false")
		sentry.CaptureException(statusErr)
		return nil, NewError(providerNameHosted, ReasonStatus, statusErr)
	}

	log.Printf("⏱️  HOSTED IMAGE API CALL COMPLETED in %v", apiDuration)

	artifactURL, err := extractArtifactURL(respBody)
	if err != nil {
		// A 200 with an unusable body is still a failure.
		log.Printf("❌ HOSTED IMAGE RESPONSE UNUSABLE: %v", err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, NewError(providerNameHosted, ReasonMalformed, err)
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ HOSTED IMAGE COMPLETED in %v", time.Since(startTime))

	return &ImageResult{ArtifactURL: artifactURL}, nil
}

// extractArtifactURL probes the known hosted-API response shapes in fixed
// priority order: images[0].url, image.url, output[0], url. No silent
// fallthrough: a body matching none of them is an error.
func extractArtifactURL(body []byte) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("response is not a JSON object: %w", err)
	}

	// Shape 1: {"images": [{"url": "..."}]}
	if images, ok := payload["images"].([]any); ok && len(images) > 0 {
		if first, ok := images[0].(map[string]any); ok {
			if u, ok := first["url"].(string); ok && u != "" {
				return u, nil
			}
		}
	}

	// Shape 2: {"image": {"url": "..."}}
	if image, ok := payload["image"].(map[string]any); ok {
		if u, ok := image["url"].(string); ok && u != "" {
			return u, nil
		}
	}

	// Shape 3: {"output": ["..."]}
	if output, ok := payload["output"].([]any); ok && len(output) > 0 {
		if u, ok := output[0].(string); ok && u != "" {
			return u, nil
		}
	}

	// Shape 4: {"url": "..."}
	if u, ok := payload["url"].(string); ok && u != "" {
		return u, nil
	}

	return "", fmt.Errorf("no known response shape matched (keys: %v)", getMapKeys(payload))
}

// getMapKeys returns the keys of a map for error messages
func getMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// truncateString truncates a string to a maximum length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
