package provider

// Stage represents which generation path is calling a provider
type Stage string

const (
	StageImageTransform Stage = "image_transform"
	StageConfig         Stage = "config"
)

// Default models per stage
const (
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultTextModel  = "gpt-5-mini"
)

// CallParams contains the model selection for one provider call
type CallParams struct {
	Model         string
	ReasoningMode string
}

// GetCallParams returns the parameters for each stage.
// Config generation runs inside the bounded personalize phase, so it uses
// minimal reasoning for the fastest time-to-first-token.
func GetCallParams(stage Stage) CallParams {
	switch stage {
	case StageConfig:
		return CallParams{
			Model:         DefaultTextModel,
			ReasoningMode: reasoningMinimal,
		}

	case StageImageTransform:
		fallthrough
	default:
		return CallParams{
			Model: DefaultImageModel,
		}
	}
}
