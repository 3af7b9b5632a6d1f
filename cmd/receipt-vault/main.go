package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-vault/internal/auth"
	"github.com/zombor/receipt-vault/internal/extraction"
	"github.com/zombor/receipt-vault/internal/receipt"
	"github.com/zombor/receipt-vault/internal/storage"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("receipt-vault")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "receipt-vault.db", "Database file path")
		jwtSecret     = fs.StringLong("jwt-secret", "", "Secret for verifying bearer tokens (or set RECEIPT_VAULT_JWT_SECRET)")
		tokenTTL      = fs.DurationLong("token-ttl", 24*time.Hour, "Lifetime of issued tokens")
		issueToken    = fs.StringLong("issue-token", "", "Mint a bearer token for the given uid and exit")
		storageKind   = fs.StringLong("storage", "local", "Object storage backend: 'local' or 's3'")
		storageDir    = fs.StringLong("storage-dir", "./images", "Local storage directory path")
		baseURL       = fs.StringLong("base-url", "http://localhost:8080", "Externally reachable base URL (local storage public links)")
		s3Bucket      = fs.StringLong("s3-bucket", "", "S3 bucket for uploaded images")
		s3Region      = fs.StringLong("s3-region", "us-east-1", "S3 bucket region")
		extractorKind = fs.StringLong("extractor", "none", "Amount extractor: 'ocr', 'gemini' or 'none'")
		ocrKey        = fs.StringLong("ocr-key", "", "OCR API key (or set RECEIPT_VAULT_OCR_KEY)")
		ocrURL        = fs.StringLong("ocr-url", "", "OCR API base URL (default api.ocr.space)")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set RECEIPT_VAULT_GEMINI_KEY)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		logLevel      = fs.StringLong("log-level", "info", "Log level: debug, info, warn, error")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_VAULT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	setupLogging(*logLevel)

	if *jwtSecret == "" {
		slog.Error("JWT secret is required. Set --jwt-secret flag or RECEIPT_VAULT_JWT_SECRET environment variable")
		os.Exit(1)
	}
	verifier := auth.NewJWTVerifier(*jwtSecret, *tokenTTL)

	if *issueToken != "" {
		token, err := verifier.Generate(*issueToken, "")
		if err != nil {
			slog.Error("Failed to issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		os.Exit(0)
	}

	slog.Info("Initializing database...")
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize object storage based on backend
	var objects storage.ObjectStore
	var fileStore storage.ObjectStore
	switch *storageKind {
	case "local":
		slog.Info("Initializing local storage...", "dir", *storageDir)
		local, err := storage.NewLocalStore(*storageDir, *baseURL)
		if err != nil {
			slog.Error("Failed to initialize storage", "error", err)
			os.Exit(1)
		}
		objects = local
		fileStore = local
	case "s3":
		slog.Info("Initializing S3 storage...", "bucket", *s3Bucket, "region", *s3Region)
		objects, err = storage.NewS3Store(context.Background(), *s3Bucket, *s3Region)
		if err != nil {
			slog.Error("Failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid storage backend", "backend", *storageKind, "valid", "local or s3")
		os.Exit(1)
	}

	// Initialize extractor based on type
	var extractor extraction.Extractor
	switch *extractorKind {
	case "ocr":
		apiKey := *ocrKey
		if apiKey == "" {
			apiKey = os.Getenv("OCR_API_KEY")
		}
		slog.Info("Initializing OCR extractor...")
		extractor, err = extraction.NewOCRClient(*ocrURL, apiKey)
		if err != nil {
			slog.Error("Failed to initialize OCR extractor", "error", err)
			os.Exit(1)
		}
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = extraction.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini extractor", "error", err)
			os.Exit(1)
		}
	case "none":
		slog.Info("No extractor configured, uploads report the placeholder amount")
	default:
		slog.Error("Invalid extractor type", "type", *extractorKind, "valid", "ocr, gemini or none")
		os.Exit(1)
	}
	if extractor != nil {
		defer extractor.Close()
	}

	service := receipt.NewService(db, objects, extractor)
	server := receipt.NewServer(service, verifier, fileStore)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// setupLogging installs a tint handler at the requested level.
func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      l,
			TimeFormat: time.Kitchen,
		}),
	))
}
