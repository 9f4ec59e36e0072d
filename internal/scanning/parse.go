package scanning

import (
	"fmt"
	"strings"
)

// transcribePrompt is the shared prompt used by all LLM providers. The model
// only transcribes; field extraction stays in our own heuristics.
const transcribePrompt = `You are an OCR engine. Transcribe every piece of text visible in this image of an invoice, exactly as printed.

Rules:
- Keep the original language (usually Polish) and spelling, including diacritics
- Keep numbers, dates, slashes and punctuation exactly as printed
- Put each printed line on its own line, top to bottom, left to right
- Do not translate, summarize, correct or interpret anything
- Do not add any commentary before or after the text
- Do not use markdown code blocks
- If there is no readable text, return an empty response`

// noTextMarkers are replies some models give instead of an empty response
var noTextMarkers = []string{
	"NO READABLE TEXT",
	"NO TEXT FOUND",
}

// parseTranscript cleans up the raw text returned by an LLM provider
func parseTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```text")
		text = strings.TrimPrefix(text, "```plaintext")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	upper := strings.ToUpper(strings.Trim(text, ". "))
	for _, marker := range noTextMarkers {
		if upper == marker {
			return "", nil
		}
	}

	if strings.ContainsRune(text, '\uFFFD') {
		return "", fmt.Errorf("transcript contains invalid characters")
	}

	return text, nil
}
