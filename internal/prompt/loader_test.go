package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetBrandVoice(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetBrandVoice()

	if err != nil {
		t.Fatalf("GetBrandVoice() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetBrandVoice() returned empty string")
	}

	// Check for expected content
	if !strings.Contains(content, "Brindlewood") {
		t.Error("GetBrandVoice() does not contain expected content")
	}

	// Ensure no excessive whitespace
	if strings.HasPrefix(content, "\n\n\n") {
		t.Error("GetBrandVoice() has excessive leading newlines")
	}
}

func TestGetImageStyleGuidance(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetImageStyleGuidance()

	if err != nil {
		t.Fatalf("GetImageStyleGuidance() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetImageStyleGuidance() returned empty string")
	}

	// Check for expected style content
	if !strings.Contains(content, "IMAGE STYLE") || !strings.Contains(content, "OUTPUT FORMAT") {
		t.Error("GetImageStyleGuidance() does not contain expected content")
	}
}

func TestGetPersonalizeSystemPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetPersonalizeSystemPrompt()

	if err != nil {
		t.Fatalf("GetPersonalizeSystemPrompt() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetPersonalizeSystemPrompt() returned empty string")
	}

	// Check for the decision rules the engine relies on
	if !strings.Contains(content, "intensity") {
		t.Error("GetPersonalizeSystemPrompt() does not contain intensity rules")
	}
	if !strings.Contains(content, "tagBoosts") {
		t.Error("GetPersonalizeSystemPrompt() does not contain tagBoosts rules")
	}
	if !strings.Contains(content, "JSON") {
		t.Error("GetPersonalizeSystemPrompt() does not contain output format rules")
	}
}

func TestGetCopyGuidance(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetCopyGuidance()

	if err != nil {
		t.Fatalf("GetCopyGuidance() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetCopyGuidance() returned empty string")
	}

	// Check for expected copy fields
	if !strings.Contains(content, "headline") || !strings.Contains(content, "announcement") {
		t.Error("GetCopyGuidance() does not contain expected content")
	}
}

func TestAllLoadersReturnNonEmptyContent(t *testing.T) {
	loader := NewPromptLoader()

	tests := []struct {
		name string
		fn   func() (string, error)
	}{
		{"BrandVoice", loader.GetBrandVoice},
		{"ImageStyleGuidance", loader.GetImageStyleGuidance},
		{"PersonalizeSystemPrompt", loader.GetPersonalizeSystemPrompt},
		{"CopyGuidance", loader.GetCopyGuidance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := tt.fn()
			if err != nil {
				t.Errorf("%s returned error: %v", tt.name, err)
			}
			if content == "" {
				t.Errorf("%s returned empty string", tt.name)
			}
			if len(content) < 10 {
				t.Errorf("%s returned suspiciously short content: %d characters", tt.name, len(content))
			}
		})
	}
}

func TestNoExcessiveWhitespace(t *testing.T) {
	loader := NewPromptLoader()

	tests := []struct {
		name string
		fn   func() (string, error)
	}{
		{"BrandVoice", loader.GetBrandVoice},
		{"ImageStyleGuidance", loader.GetImageStyleGuidance},
		{"PersonalizeSystemPrompt", loader.GetPersonalizeSystemPrompt},
		{"CopyGuidance", loader.GetCopyGuidance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := tt.fn()
			if err != nil {
				t.Fatalf("%s returned error: %v", tt.name, err)
			}

			// Check for excessive leading/trailing newlines (more than 2)
			if strings.HasPrefix(content, "\n\n\n") {
				t.Errorf("%s has excessive leading newlines", tt.name)
			}
			if strings.HasSuffix(content, "\n\n\n") {
				t.Errorf("%s has excessive trailing newlines", tt.name)
			}

			// Check for sections with only newlines
			lines := strings.Split(content, "\n")
			emptyCount := 0
			for _, line := range lines {
				if strings.TrimSpace(line) == "" {
					emptyCount++
				} else {
					emptyCount = 0
				}
				if emptyCount > 5 {
					t.Errorf("%s has more than 5 consecutive empty lines", tt.name)
					break
				}
			}
		})
	}
}
