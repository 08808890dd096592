package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/brand_voice.txt
var BrandVoiceTxt []byte

//go:embed data/image_style_guidance.txt
var ImageStyleGuidanceTxt []byte

//go:embed data/personalize_system_prompt.txt
var PersonalizeSystemPromptTxt []byte

//go:embed data/copy_guidance.txt
var CopyGuidanceTxt []byte
