// Package main is the Kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kotae-ai/kotae/internal/answer"
	"github.com/kotae-ai/kotae/internal/budget"
	"github.com/kotae-ai/kotae/internal/cli"
	"github.com/kotae-ai/kotae/internal/config"
	"github.com/kotae-ai/kotae/internal/knowledge"
	"github.com/kotae-ai/kotae/internal/llm"
	"github.com/kotae-ai/kotae/internal/models"
	"github.com/kotae-ai/kotae/internal/server"
	"github.com/kotae-ai/kotae/internal/storage"
	"github.com/kotae-ai/kotae/internal/summarize"
	"github.com/kotae-ai/kotae/internal/transcript"
	"github.com/kotae-ai/kotae/internal/vector"
	"github.com/kotae-ai/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "kotae server" from the project dir uses the project's
// config (including debug). Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// Provider API keys live in .env during development.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "summarize":
		runSummarize()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (ingest batches, retrieval scores, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(
		components.KB,
		components.Engine,
		components.Summarizer,
		components.Store,
		components.Governor,
		components.Estimator,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the
// question to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = answer directly without the server)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		fmt.Println("Usage: kotae ask [flags] <question>")
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		fmt.Println("Usage: kotae ask [flags] <question>")
		os.Exit(1)
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		response, err := askViaHTTP(*serverURL, question)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct mode (server not running); shares the database with the server,
	// so prefer the HTTP path when it is up.
	components, _, cleanup := mustInitialize(*configPath)
	defer cleanup()

	answerText, sources, err := components.Engine.Ask(context.Background(), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	response := &models.AnswerResponse{Answer: answerText, Sources: sources}
	if err := cli.WriteAnswer(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, question string) (*models.AnswerResponse, error) {
	body, err := json.Marshal(models.AskRequest{Question: question})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/rag/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.AnswerResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = ingest directly without the server)")
	videoFlag := fs.String("video", "", "YouTube URL or 11-character video ID (required)")
	title := fs.String("title", "", "video title")
	uploader := fs.String("uploader", "", "channel or uploader name")
	_ = fs.Parse(os.Args[2:])

	if *videoFlag == "" {
		fmt.Println("Usage: kotae ingest --video <url-or-id> [flags] <caption-file>")
		os.Exit(1)
	}
	videoID, err := transcript.VideoID(*videoFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid video: %v\n", err)
		os.Exit(1)
	}

	var raw []byte
	if fs.NArg() < 1 || fs.Arg(0) == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read captions: %v\n", err)
		os.Exit(1)
	}

	req := models.IngestRequest{
		Transcript: string(raw),
		VideoID:    videoID,
		VideoInfo: models.VideoMetadata{
			Title:    *title,
			Uploader: *uploader,
			URL:      *videoFlag,
		},
	}

	if *serverURL != "" {
		response, err := ingestViaHTTP(*serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d chunk(s) for %s (%d duplicate(s) skipped)\n",
			response.Count, videoID, response.DuplicatesSkipped)
		return
	}

	components, cfg, cleanup := mustInitialize(*configPath)
	defer cleanup()

	text := transcript.PlainText(req.Transcript)
	chunks := transcript.Chunk(text, cfg.Pipeline.MaxChunkChars)
	accepted, duplicates, err := components.KB.Ingest(context.Background(), chunks, videoID, req.VideoInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Ingested %d chunk(s) for %s (%d duplicate(s) skipped)\n", accepted, videoID, duplicates)
}

func ingestViaHTTP(serverURL string, req models.IngestRequest) (*models.IngestResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/rag/ingest", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.IngestResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runSummarize() {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = summarize directly without the server)")
	level := fs.String("level", models.SummaryLevelQuick, "summary level: quick or detailed")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	var raw []byte
	if fs.NArg() < 1 || fs.Arg(0) == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read transcript: %v\n", err)
		os.Exit(1)
	}
	text := transcript.PlainText(string(raw))

	if *serverURL != "" {
		response, err := summarizeViaHTTP(*serverURL, text, *level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Summarize failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSummary(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	components, _, cleanup := mustInitialize(*configPath)
	defer cleanup()

	summary, err := components.Summarizer.Summarize(context.Background(), text, *level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Summarize failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSummary(os.Stdout, &models.SummarizeResponse{Summary: summary}, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func summarizeViaHTTP(serverURL, text, level string) (*models.SummarizeResponse, error) {
	body, err := json.Marshal(models.SummarizeRequest{Text: text, Level: level})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/summarize", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SummarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status map[string]interface{}
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = res
	} else {
		components, cfg, cleanup := mustInitialize(*configPath)
		defer cleanup()
		recordCount, err := components.Store.CountRecords(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count records failed: %v\n", err)
			os.Exit(1)
		}
		status = map[string]interface{}{
			"records":           recordCount,
			"vector_index_size": components.KB.Size(),
			"config": map[string]interface{}{
				"provider":      cfg.LLM.Provider,
				"dimensions":    cfg.LLM.Dimensions,
				"top_k":         cfg.Pipeline.TopK,
				"database_path": cfg.Storage.DatabasePath,
			},
			"token_usage": components.Governor.Snapshot(),
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("records:            %v   # embedded transcript chunks\n", status["records"])
		fmt.Printf("vector_index_size:  %v   # vectors in the similarity index\n", status["vector_index_size"])
		if cfgMap, ok := status["config"].(map[string]interface{}); ok {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"provider", "dimensions", "top_k", "database_path"} {
				if v, ok := cfgMap[key]; ok {
					fmt.Printf("%-19s %v\n", key+":", v)
				}
			}
		}
		if usage, ok := status["token_usage"]; ok {
			fmt.Println()
			fmt.Println("# token usage")
			b, _ := json.MarshalIndent(usage, "", "  ")
			fmt.Println(string(b))
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (map[string]interface{}, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return s, nil
}

// mustInitialize loads config, builds a logger, and initializes components,
// exiting the process on any failure. Used by the direct (serverless) modes.
func mustInitialize(configPath string) (*Components, *config.Config, func()) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	cleanup := func() {
		components.Close()
		_ = logger.Sync()
	}
	return components, cfg, cleanup
}

// Components holds initialized services.
type Components struct {
	Store      storage.Store
	Embedder   llm.Embedder
	Generator  llm.Generator
	Index      vector.Index
	KB         *knowledge.Base
	Engine     *answer.Engine
	Summarizer *summarize.Summarizer
	Governor   *budget.Governor
	Estimator  budget.Estimator
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, generator, err := buildProviders(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if cfg.Pipeline.EmbeddingCacheSize > 0 {
		embedder = llm.NewCachedEmbedder(embedder, cfg.Pipeline.EmbeddingCacheSize)
	}

	index, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	kb := knowledge.NewBase(store, index, embedder, cfg.Pipeline.MaxChunkChars, knowledge.WithLogger(logger))
	if err := kb.Rebuild(context.Background()); err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to rebuild vector index: %w", err)
	}
	logger.Info("knowledge base ready",
		zap.Int("vectors", kb.Size()),
		zap.Int("dimensions", embedder.Dimensions()),
	)

	engine := answer.NewEngine(store, index, embedder, generator, &cfg.Pipeline, answer.WithLogger(logger))
	summarizer := summarize.New(generator, cfg.Pipeline.MaxTextChars, cfg.Pipeline.MaxSummaryTokens)
	governor := budget.NewGovernor(budget.Limits{
		PerRequest: cfg.Budget.RequestTokenLimit,
		Hourly:     cfg.Budget.HourlyTokenLimit,
		Daily:      cfg.Budget.DailyTokenLimit,
	}, cfg.Budget.UsagePath)

	return &Components{
		Store:      store,
		Embedder:   embedder,
		Generator:  generator,
		Index:      index,
		KB:         kb,
		Engine:     engine,
		Summarizer: summarizer,
		Governor:   governor,
		Estimator:  budget.NewEstimator(),
	}, nil
}

// buildProviders returns the embedder and generator for the configured
// provider. "local" runs ONNX embeddings but still generates through OpenAI;
// "mock" is for development without any key.
func buildProviders(cfg *config.Config, logger *zap.Logger) (llm.Embedder, llm.Generator, error) {
	switch cfg.LLM.Provider {
	case "", "openai":
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:         cfg.LLM.APIKey(),
			BaseURL:        cfg.LLM.BaseURL,
			ChatModel:      cfg.LLM.ChatModel,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			Dimensions:     cfg.LLM.Dimensions,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return client, client, nil
	case "local":
		var embedder llm.Embedder
		embedder, err := llm.NewLocalEmbedder(cfg.LLM.LocalModelPath, cfg.LLM.Dimensions, cfg.LLM.LocalMaxTokens)
		if err != nil {
			logger.Warn("local embedder unavailable, falling back to mock", zap.Error(err))
			embedder = llm.NewMockEmbedder(cfg.LLM.Dimensions)
		}
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:     cfg.LLM.APIKey(),
			BaseURL:    cfg.LLM.BaseURL,
			ChatModel:  cfg.LLM.ChatModel,
			Dimensions: cfg.LLM.Dimensions,
		})
		if err != nil {
			_ = embedder.Close()
			return nil, nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return embedder, client, nil
	case "mock":
		return llm.NewMockEmbedder(cfg.LLM.Dimensions), &llm.MockGenerator{Response: "mock answer"}, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func printUsage() {
	fmt.Println(`kotae - YouTube transcript Q&A service

Usage:
  kotae server [flags]               Start the HTTP server
  kotae ingest [flags] <captions>    Ingest a caption file (VTT/SRT/plain, or - for stdin)
  kotae ask [flags] <question>       Ask a question over ingested transcripts
  kotae summarize [flags] <file>     Summarize a transcript
  kotae status [flags]               Show record/index/usage status
  kotae version                      Show version
  kotae help                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging (ingest batches, retrieval scores, etc.)

Ingest Flags:
  --video string     YouTube URL or 11-character video ID (required)
  --title string     Video title
  --uploader string  Channel or uploader name
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to ingest directly.

Ask Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to answer directly.
  --output string    Output format: text or json (default: text)

Summarize Flags:
  --level string     Summary level: quick or detailed (default: quick)
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --output string    Output format: text or json (default: text)

Examples:
  kotae server
  kotae ingest --video https://youtu.be/dQw4w9WgXcQ --title "Some talk" captions.vtt
  kotae ask "What color is the sky?"
  kotae ask --output json what color is the sky
  kotae summarize --level detailed transcript.txt
  kotae status --output json`)
}
