package provider

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

const (
	providerNameOpenAI = "openai"

	// Reasoning effort levels
	reasoningMinimal = "minimal"
	reasoningLow     = "low"
	reasoningMedium  = "medium"
	reasoningHigh    = "high"
)

// OpenAITextProvider implements TextProvider using OpenAI's Responses API
// with strict JSON Schema output
type OpenAITextProvider struct {
	client *openai.Client
}

// NewOpenAITextProvider creates a new OpenAI text provider
func NewOpenAITextProvider(apiKey string) *OpenAITextProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAITextProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAITextProvider) Name() string {
	return providerNameOpenAI
}

// GenerateConfig produces a structured personalization config
func (p *OpenAITextProvider) GenerateConfig(ctx context.Context, request *ConfigRequest) (*ConfigResult, error) {
	startTime := time.Now()
	log.Printf("📝 OPENAI CONFIG REQUEST STARTED (Model: %s)", request.Model)

	// Start Sentry transaction
	transaction := sentry.StartTransaction(ctx, "openai.generate_config")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, p.classifyError(err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	textOutput := extractAndCleanTextOutput(resp)
	if textOutput == "" {
		transaction.SetTag("success", "false")
		return nil, NewError(providerNameOpenAI, ReasonMalformed,
			errors.New("openai response did not include any output text"))
	}

	p.logUsageStats(resp.Usage)

	transaction.SetTag("success", "true")
	log.Printf("✅ OPENAI CONFIG COMPLETED in %v", time.Since(startTime))

	return &ConfigResult{
		RawOutput: textOutput,
		Usage:     resp.Usage,
	}, nil
}

// buildRequestParams converts a ConfigRequest to OpenAI ResponseNewParams
func (p *OpenAITextProvider) buildRequestParams(request *ConfigRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{
		responses.ResponseInputItemParamOfMessage(request.UserPrompt, responses.EasyInputMessageRoleUser),
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Instructions: openai.String(request.SystemPrompt),
	}

	// Only GPT-5 family models accept reasoning parameters
	if strings.HasPrefix(strings.ToLower(request.Model), "gpt-5") {
		params.Reasoning = shared.ReasoningParam{
			Effort: reasoningEffortFor(request.ReasoningMode),
		}
	}

	if request.OutputSchema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(
				request.OutputSchema.Name,
				request.OutputSchema.Schema,
			),
		}
		log.Printf("📋 JSON SCHEMA CONFIGURED: %s", request.OutputSchema.Name)
	}

	return params
}

// reasoningEffortFor maps our reasoning mode strings to the SDK values.
// minimal is the fastest time-to-first-token; the personalize phase is
// latency-bounded so that is the usual choice.
func reasoningEffortFor(mode string) shared.ReasoningEffort {
	switch mode {
	case reasoningMinimal:
		return shared.ReasoningEffort(reasoningMinimal)
	case reasoningMedium:
		return shared.ReasoningEffortMedium
	case reasoningHigh:
		return shared.ReasoningEffortHigh
	case reasoningLow:
		return shared.ReasoningEffortLow
	default:
		return shared.ReasoningEffortLow
	}
}

// classifyError types an SDK failure: API-level errors carry a status,
// everything else is transport trouble
func (p *OpenAITextProvider) classifyError(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return NewError(providerNameOpenAI, ReasonStatus, err)
	}
	return WrapTransport(providerNameOpenAI, err)
}

// extractAndCleanTextOutput extracts text output, stripping markdown fences
// some models still wrap around JSON
func extractAndCleanTextOutput(resp *responses.Response) string {
	textOutput := resp.OutputText()
	if textOutput == "" {
		return ""
	}

	cleaned := strings.TrimPrefix(textOutput, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned != textOutput {
		log.Printf("🧹 Stripped markdown code blocks from output: %d -> %d chars", len(textOutput), len(cleaned))
	}

	return cleaned
}

func (p *OpenAITextProvider) logUsageStats(usage responses.ResponseUsage) {
	reasoningTokens := int64(0)
	if usage.OutputTokensDetails.ReasoningTokens > 0 {
		reasoningTokens = usage.OutputTokensDetails.ReasoningTokens
	}
	log.Printf("📊 USAGE: input=%d, output=%d, reasoning=%d, total=%d",
		usage.InputTokens, usage.OutputTokens,
		reasoningTokens, usage.TotalTokens)
}
