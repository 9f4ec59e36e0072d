package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/fakturka/invoice-scan/internal/extraction"
	"github.com/fakturka/invoice-scan/internal/invoice"
	"github.com/fakturka/invoice-scan/internal/lexicon"
	"github.com/fakturka/invoice-scan/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine; real environment variables still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	flags := ff.NewFlagSet("invoice-scan")
	var (
		port            = flags.IntLong("port", 8080, "HTTP server port")
		engine          = flags.StringLong("engine", "tesseract", "OCR engine: 'tesseract', 'gemini' or 'ollama'")
		tesseractLang   = flags.StringLong("tesseract-lang", "pol,eng", "Comma-separated Tesseract language codes")
		geminiKey       = flags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = flags.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL       = flags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = flags.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl)")
		ocrTimeout      = flags.DurationLong("ocr-timeout", invoice.DefaultOCRTimeout, "Timeout for a single OCR pass (0 disables)")
		maxAttempts     = flags.IntLong("max-attempts", invoice.DefaultMaxAttempts, "Rotated re-scans allowed when the issuance label has no date")
		rotationAngle   = flags.IntLong("rotation-angle", invoice.DefaultRotationDegrees, "Clockwise rotation applied before each re-scan, in degrees")
		label           = flags.StringLong("label", extraction.DefaultExactLabel, "Printed label that precedes the issuance date")
		labelWindow     = flags.IntLong("label-window", extraction.DefaultLabelWindow, "Characters after the label searched for a date")
		fuzzyThreshold  = flags.Float64Long("fuzzy-threshold", extraction.DefaultFuzzyThreshold, "Normalized edit distance below which a word counts as a label")
		fuzzyTargets    = flags.StringListLong("fuzzy-target", "Label word matched by similarity (repeatable, replaces the defaults)")
		corrections     = flags.StringListLong("correction", "OCR correction as FROM=TO (repeatable)")
		correctionsFile = flags.StringLong("corrections-file", "", "YAML file with OCR corrections (optional)")
		watchFile       = flags.BoolLong("watch-corrections", "Reload the corrections file when it changes")
		ocrCache        = flags.StringLong("ocr-cache", "", "BoltDB file caching OCR transcripts (optional)")
		lang            = flags.StringLong("lang", "en", "Language of result messages: 'en' or 'pl'")
		authUser        = flags.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = flags.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel        = flags.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logJSON         = flags.BoolLong("log-json", "Write logs as JSON")
		_               = flags.StringLong("config", "", "Config file (optional)")
		showVersion     = flags.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(flags, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_SCAN"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(flags))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logger, err := newLogger(*logLevel, *logJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	messages, err := invoice.MessagesFor(*lang)
	if err != nil {
		slog.Error("Invalid language", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the correction table: built-ins, then the file, then flags
	flagCorrections := make([]extraction.Correction, 0, len(*corrections))
	for _, c := range *corrections {
		corr, err := extraction.ParseCorrection(c)
		if err != nil {
			slog.Error("Invalid correction", "correction", c, "error", err)
			os.Exit(1)
		}
		flagCorrections = append(flagCorrections, corr)
	}
	var fileCorrections []extraction.Correction
	if *correctionsFile != "" {
		fileCorrections, err = lexicon.Load(*correctionsFile)
		if err != nil {
			slog.Error("Failed to load corrections", "path", *correctionsFile, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded corrections", "path", *correctionsFile, "count", len(fileCorrections))
	}
	buildCorrections := func(fromFile []extraction.Correction) []extraction.Correction {
		return lexicon.Merge(lexicon.Merge(extraction.DefaultCorrections, fromFile), flagCorrections)
	}

	cfg := extraction.DefaultConfig()
	cfg.ExactLabel = strings.ToUpper(*label)
	cfg.LabelWindow = *labelWindow
	cfg.FuzzyThreshold = *fuzzyThreshold
	if len(*fuzzyTargets) > 0 {
		cfg.FuzzyTargets = upperAll(*fuzzyTargets)
	}
	cfg.Corrections = buildCorrections(fileCorrections)

	extractor, err := extraction.New(cfg)
	if err != nil {
		slog.Error("Invalid extraction settings", "error", err)
		os.Exit(1)
	}

	if *watchFile {
		if *correctionsFile == "" {
			slog.Error("--watch-corrections requires --corrections-file")
			os.Exit(1)
		}
		watcher := lexicon.NewWatcher(*correctionsFile, func(fromFile []extraction.Correction) {
			extractor.SetCorrections(buildCorrections(fromFile))
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				slog.Error("Corrections watcher stopped", "error", err)
			}
		}()
	}

	// Initialize the OCR engine
	recognizer, err := newRecognizer(engineOptions{
		Engine:        *engine,
		TesseractLang: *tesseractLang,
		GeminiKey:     *geminiKey,
		GeminiModel:   *geminiModel,
		OllamaURL:     *ollamaURL,
		OllamaModel:   *ollamaModel,
	})
	if err != nil {
		slog.Error("Failed to initialize OCR engine", "engine", *engine, "error", err)
		os.Exit(1)
	}
	if *ocrCache != "" {
		slog.Info("Initializing transcript cache...", "path", *ocrCache)
		recognizer, err = scanning.NewCachedRecognizer(*ocrCache, *engine, recognizer)
		if err != nil {
			slog.Error("Failed to initialize transcript cache", "error", err)
			os.Exit(1)
		}
	}
	defer recognizer.Close()

	controller, err := invoice.NewController(recognizer, scanning.ImagingRotator{}, extractor, invoice.ControllerConfig{
		MaxAttempts:     *maxAttempts,
		RotationDegrees: *rotationAngle,
		OCRTimeout:      *ocrTimeout,
	})
	if err != nil {
		slog.Error("Invalid retry settings", "error", err)
		os.Exit(1)
	}
	service := invoice.NewService(controller, messages)

	// Files on the command line are processed and printed; otherwise serve HTTP
	if files := flags.GetArgs(); len(files) > 0 {
		sink := invoice.NewWriterSink(os.Stdout, len(files) > 1)
		if failed := extractFiles(ctx, service, sink, files); failed > 0 {
			recognizer.Close()
			os.Exit(1)
		}
		return
	}

	server := invoice.NewServer(service, invoice.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	})
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		recognizer.Close()
		os.Exit(1)
	}
	slog.Info("Shutting down...")
}

func upperAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToUpper(w)
	}
	return out
}
