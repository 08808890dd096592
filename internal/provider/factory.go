package provider

import (
	"context"
	"fmt"
	"strings"
)

// Factory creates providers from configured credentials
type Factory struct {
	openaiAPIKey string
	geminiAPIKey string
	imageAPIURL  string
	imageAPIKey  string
}

// NewFactory creates a new provider factory
func NewFactory(openaiAPIKey, geminiAPIKey, imageAPIURL, imageAPIKey string) *Factory {
	return &Factory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
		imageAPIURL:  imageAPIURL,
		imageAPIKey:  imageAPIKey,
	}
}

// ImageProvider returns the image provider for the given name.
// An empty name selects gemini.
func (f *Factory) ImageProvider(ctx context.Context, providerName string) (ImageProvider, error) {
	switch strings.ToLower(providerName) {
	case providerNameGemini, "":
		if f.geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		return NewGeminiImageProvider(ctx, f.geminiAPIKey)

	case providerNameHosted:
		if f.imageAPIURL == "" {
			return nil, fmt.Errorf("image API URL not configured")
		}
		return NewHostedImageProvider(f.imageAPIURL, f.imageAPIKey), nil

	default:
		return nil, fmt.Errorf("unknown image provider: %s (allowed: gemini, hosted)", providerName)
	}
}

// TextProvider returns the text provider for the given name.
// An empty name selects openai.
func (f *Factory) TextProvider(providerName string) (TextProvider, error) {
	switch strings.ToLower(providerName) {
	case providerNameOpenAI, "":
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAITextProvider(f.openaiAPIKey), nil

	default:
		return nil, fmt.Errorf("unknown text provider: %s (allowed: openai)", providerName)
	}
}
