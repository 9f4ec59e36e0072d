package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fakturka/invoice-scan/internal/scanning"
)

type engineOptions struct {
	Engine        string
	TesseractLang string
	GeminiKey     string
	GeminiModel   string
	OllamaURL     string
	OllamaModel   string
}

// newRecognizer initializes the OCR engine selected by opts.Engine
func newRecognizer(opts engineOptions) (scanning.Recognizer, error) {
	switch opts.Engine {
	case "tesseract":
		langs := splitList(opts.TesseractLang)
		slog.Info("Initializing Tesseract...", "languages", langs)
		return scanning.NewTesseract(langs...)
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := opts.GeminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini...", "model", opts.GeminiModel)
		return scanning.NewGemini(apiKey, opts.GeminiModel)
	case "ollama":
		slog.Info("Initializing Ollama...", "url", opts.OllamaURL, "model", opts.OllamaModel)
		return scanning.NewOllama(opts.OllamaURL, opts.OllamaModel)
	default:
		return nil, fmt.Errorf("unknown engine %q (valid: tesseract, gemini, ollama)", opts.Engine)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
