package handlers

const (
	// serviceName identifies this API in health payloads and release tags
	serviceName = "storefront-api"

	// maxLoggedPromptChars caps how much generator input lands in logs
	maxLoggedPromptChars = 120
)
