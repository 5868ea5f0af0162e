package scoring

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var thinkTagRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinkTags removes reasoning-model think tags from a response.
func StripThinkTags(text string) string {
	return strings.TrimSpace(thinkTagRegex.ReplaceAllString(text, ""))
}

type confidencePayload struct {
	Confidence float64 `json:"confidence"`
}

// ParseConfidence extracts a confidence in [0,1] from an LLM response.
// Handles a bare number, a JSON object, and markdown code fences.
func ParseConfidence(text string) (float64, error) {
	cleaned := StripThinkTags(text)

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return 0, fmt.Errorf("empty response")
	}

	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return checkRange(v)
	}

	var payload confidencePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
		return checkRange(payload.Confidence)
	}

	// Try to extract an embedded JSON object
	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart >= 0 && jsonEnd > jsonStart {
		substr := cleaned[jsonStart : jsonEnd+1]
		if err := json.Unmarshal([]byte(substr), &payload); err == nil {
			return checkRange(payload.Confidence)
		}
	}

	return 0, fmt.Errorf("failed to parse confidence from response: %.200s", cleaned)
}

func checkRange(v float64) (float64, error) {
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("confidence %v outside [0,1]", v)
	}
	return v, nil
}
