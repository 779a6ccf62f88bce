package prompt

import (
	"fmt"
)

// BuildAnalysisPrompt builds the deterministic analysis prompt from the
// five idea fields. Same inputs always produce the same prompt.
func BuildAnalysisPrompt(name, pitch, description, industry, mode string) string {
	return fmt.Sprintf(`Analyze this startup idea and give insights.

Startup Name: %s
Pitch: %s
Description: %s
Industry: %s
Mode: %s

Give:
1. Market fit
2. Strengths
3. Risks
4. Suggestions
5. Score out of 10
`, name, pitch, description, industry, mode)
}
