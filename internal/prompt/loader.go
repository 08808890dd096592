package prompt

import (
	"strings"

	"github.com/brindlewood/storefront-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetBrandVoice loads the brand voice guidelines
func (l *Loader) GetBrandVoice() (string, error) {
	return strings.TrimSpace(string(embedded.BrandVoiceTxt)), nil
}

// GetImageStyleGuidance loads the shared style constraints for image generation
func (l *Loader) GetImageStyleGuidance() (string, error) {
	return strings.TrimSpace(string(embedded.ImageStyleGuidanceTxt)), nil
}

// GetPersonalizeSystemPrompt loads the system prompt for config generation
func (l *Loader) GetPersonalizeSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.PersonalizeSystemPromptTxt)), nil
}

// GetCopyGuidance loads headline/subheadline/announcement writing guidance
func (l *Loader) GetCopyGuidance() (string, error) {
	return strings.TrimSpace(string(embedded.CopyGuidanceTxt)), nil
}
