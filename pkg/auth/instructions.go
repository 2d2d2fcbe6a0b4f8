package auth

import (
	"fmt"
	"strings"
)

// ShowTokenSetupGuide displays step-by-step instructions for wiring up
// an endpoint profile
func ShowTokenSetupGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("API TOKEN SETUP GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("Scoring needs a vision model endpoint that speaks the OpenAI-style")
	fmt.Println("chat completions API, plus an API key that authorizes requests to it.")
	fmt.Println()

	fmt.Println("STEP 1: Create an API key")
	fmt.Println("   - Open your model provider's console")
	fmt.Println("   - Create (or reuse) an inference endpoint for a vision model")
	fmt.Println("   - Generate an API key with access to that endpoint")
	fmt.Println()

	fmt.Println("STEP 2: Collect the three values")
	fmt.Println("   - Endpoint URL, e.g. https://ark.cn-beijing.volces.com/api/v3/chat/completions")
	fmt.Println("   - API key (the long secret string)")
	fmt.Println("   - Model name or endpoint id the provider routes by")
	fmt.Println()

	fmt.Println("STEP 3: Store them as a profile")
	fmt.Println("   vlmscore auth login --name production")
	fmt.Println("   The token prompt hides what you type. Profiles land in the system")
	fmt.Println("   keychain when available, otherwise in an encrypted file under the")
	fmt.Println("   user config directory.")
	fmt.Println()

	fmt.Println("   Or export environment variables instead of storing a profile:")
	fmt.Println("   export VLMSCORE_API_ENDPOINT=https://...")
	fmt.Println("   export VLMSCORE_API_TOKEN=sk-...")
	fmt.Println("   export VLMSCORE_MODEL=doubao-1-5-vision-pro-32k")
	fmt.Println()

	fmt.Println("TIPS:")
	fmt.Println("   - Copy the ENTIRE key; keys are often longer than one screen line")
	fmt.Println("   - Quotas and pricing are per endpoint; check both before a big batch")
	fmt.Println("   - 'vlmscore auth test' sends one tiny request to verify the profile")
	fmt.Println()

	fmt.Println("SECURITY WARNING:")
	fmt.Println("   - The API key spends real money on your provider account")
	fmt.Println("   - NEVER commit it or share it; this tool encrypts what it stores")
	fmt.Println("   - Rotate the key in the provider console if it ever leaks")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickSetupGuide shows a condensed version for experienced users
func ShowQuickSetupGuide() {
	fmt.Println("\nQuick setup: provider console -> create API key -> vlmscore auth login --name NAME")
	fmt.Println("   Need: endpoint URL, API key, model name")
	fmt.Println("   Type 'help' for detailed instructions")
}
