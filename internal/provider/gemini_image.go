package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	geminiUserRole     = "user"
	defaultImageMIME   = "image/png"

	// Subject images above this size are rejected before upload
	maxSubjectBytes = 20 << 20
)

// GeminiImageProvider implements ImageProvider using Google's Gemini
// image-editing models. The subject image is fetched, sent inline with the
// prompt, and the first generated image part comes back as a data: URL so
// the artifact needs no storage tier.
type GeminiImageProvider struct {
	client *genai.Client
	http   *http.Client
}

// NewGeminiImageProvider creates a new Gemini image provider
func NewGeminiImageProvider(ctx context.Context, apiKey string) (*GeminiImageProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiImageProvider{
		client: client,
		http:   &http.Client{},
	}, nil
}

// Name returns the provider name
func (p *GeminiImageProvider) Name() string {
	return providerNameGemini
}

// Transform fetches the subject image and asks Gemini to restyle it
func (p *GeminiImageProvider) Transform(ctx context.Context, request *ImageRequest) (*ImageResult, error) {
	startTime := time.Now()
	log.Printf("🎨 GEMINI IMAGE REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "gemini.transform")
	defer transaction.Finish()

	transaction.SetTag("provider", providerNameGemini)
	transaction.SetTag("model", request.Model)

	subjectBytes, mimeType, err := p.fetchSubject(ctx, request.SubjectURL)
	if err != nil {
		log.Printf("❌ GEMINI SUBJECT FETCH FAILED: %v", err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, WrapTransport(providerNameGemini, err)
	}

	contents := []*genai.Content{{
		Role: geminiUserRole,
		Parts: []*genai.Part{
			{Text: request.Prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: subjectBytes}},
		},
	}}

	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, request.Model, contents, nil)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI IMAGE REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, WrapTransport(providerNameGemini, err)
	}

	log.Printf("⏱️  GEMINI IMAGE API CALL COMPLETED in %v", apiDuration)

	artifactURL, err := extractInlineImage(result)
	if err != nil {
		log.Printf("❌ GEMINI IMAGE RESPONSE UNUSABLE: %v", err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, NewError(providerNameGemini, ReasonMalformed, err)
	}

	if result.UsageMetadata != nil {
		log.Printf("📊 GEMINI USAGE: input=%d, output=%d, total=%d",
			result.UsageMetadata.PromptTokenCount,
			result.UsageMetadata.CandidatesTokenCount,
			result.UsageMetadata.TotalTokenCount)
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ GEMINI IMAGE COMPLETED in %v", time.Since(startTime))

	return &ImageResult{
		ArtifactURL: artifactURL,
		Usage:       result.UsageMetadata,
	}, nil
}

// fetchSubject downloads the subject image bytes for inline upload
func (p *GeminiImageProvider) fetchSubject(ctx context.Context, subjectURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, subjectURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building subject request: %w", err)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching subject image: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("⚠️  Failed to close subject body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("subject fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSubjectBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading subject image: %w", err)
	}
	if len(data) > maxSubjectBytes {
		return nil, "", fmt.Errorf("subject image exceeds %d bytes", maxSubjectBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	return data, mimeType, nil
}

// extractInlineImage finds the first generated image part and encodes it as
// a data: URL. A response with candidates but no image part is unusable.
func extractInlineImage(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no parts in Gemini response")
	}

	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			mimeType := part.InlineData.MIMEType
			if mimeType == "" {
				mimeType = defaultImageMIME
			}
			encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
			return "data:" + mimeType + ";base64," + encoded, nil
		}
	}

	return "", fmt.Errorf("no inline image part in Gemini response")
}
