package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// CleanJSONBlock removes markdown code block wrappers and conversational preamble from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip the language identifier on the first line, if any
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.ContainsAny(firstLine, "{[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Drop preamble such as "Here is the JSON:" before the first object or array
	if idx := strings.IndexAny(text, "{["); idx > 0 {
		text = text[idx:]
	}
	return text
}

// RepairJSON returns text unchanged when it is valid JSON, otherwise attempts to repair it
// (trailing commas, unquoted keys, truncated output).
func RepairJSON(text string) (string, error) {
	if json.Valid([]byte(text)) {
		return text, nil
	}
	fixed, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return "", fmt.Errorf("unrepairable JSON: %w", err)
	}
	return fixed, nil
}
