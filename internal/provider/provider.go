package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ImageProvider transforms a subject image under a generated prompt.
// Implementations MUST return a typed *Error on failure so callers can
// distinguish transient provider trouble from programming errors.
type ImageProvider interface {
	// Transform produces a context-styled variant of the subject image
	Transform(ctx context.Context, request *ImageRequest) (*ImageResult, error)

	// Name returns the provider name (e.g., "gemini", "hosted")
	Name() string
}

// TextProvider generates structured personalization configs.
type TextProvider interface {
	// GenerateConfig produces a JSON config constrained by the output schema
	GenerateConfig(ctx context.Context, request *ConfigRequest) (*ConfigResult, error)

	// Name returns the provider name (e.g., "openai")
	Name() string
}

// ImageRequest contains everything an image transformation needs
type ImageRequest struct {
	SubjectURL string
	Prompt     string
	Model      string
}

// ImageResult is the artifact produced by an image provider
type ImageResult struct {
	ArtifactURL string
	Usage       any
}

// ConfigRequest contains the prompts and schema for a config generation
type ConfigRequest struct {
	SystemPrompt  string
	UserPrompt    string
	Model         string
	ReasoningMode string
	// Structured output schema - REQUIRED for reliable JSON parsing
	OutputSchema *OutputSchema
}

// ConfigResult contains the raw JSON string from the text provider
type ConfigResult struct {
	RawOutput string
	Usage     any
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Reason classifies why a provider call failed
type Reason string

const (
	ReasonTimeout   Reason = "timeout"   // deadline exceeded or transport timeout
	ReasonNetwork   Reason = "network"   // connection-level failure
	ReasonStatus    Reason = "status"    // upstream returned a non-success status
	ReasonMalformed Reason = "malformed" // response arrived but no known shape matched
)

// Error is the typed failure every provider returns. These are transient
// upstream conditions: callers surface them but never cache them.
type Error struct {
	Provider string
	Reason   Reason
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a provider name and reason
func NewError(providerName string, reason Reason, err error) *Error {
	return &Error{Provider: providerName, Reason: reason, Err: err}
}

// WrapTransport classifies a transport-level error. Deadline expiry and net
// timeouts map to timeout; everything else at this level is a network failure.
func WrapTransport(providerName string, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	reason := ReasonNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		reason = ReasonTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			reason = ReasonTimeout
		}
	}

	return &Error{Provider: providerName, Reason: reason, Err: err}
}
