// Command fraudlens is the interactive fraud-analysis chat. It answers
// questions against the transaction database and the fraud report, streaming
// progress and answer tokens as the pipeline runs.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fraudlens/fraudlens/agent"
	"github.com/fraudlens/fraudlens/config"
	"github.com/fraudlens/fraudlens/llm"
	"github.com/fraudlens/fraudlens/llm/anthropic"
	"github.com/fraudlens/fraudlens/llm/openai"
	"github.com/fraudlens/fraudlens/message"
	"github.com/fraudlens/fraudlens/pkg/logging"
	"github.com/fraudlens/fraudlens/pkg/telemetry"
	"github.com/fraudlens/fraudlens/session"
	sessionstore "github.com/fraudlens/fraudlens/session/store"
	"github.com/fraudlens/fraudlens/store/docstore"
	"github.com/fraudlens/fraudlens/store/frauddb"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fraudlens:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.Logger()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "fraudlens",
		Environment: cfg.Environment,
		Disable:     cfg.DisableTelemetry,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(flushCtx)
	}()

	chat, routing := buildChatClients(cfg)

	db, err := frauddb.Open(&frauddb.Config{
		Host:         cfg.PostgresHost,
		Port:         cfg.PostgresPort,
		User:         cfg.PostgresUser,
		Password:     cfg.PostgresPassword,
		DBName:       cfg.PostgresDB,
		SSLMode:      cfg.PostgresSSLMode,
		QueryTimeout: cfg.QueryTimeout,
	})
	if err != nil {
		return fmt.Errorf("open transaction store: %w", err)
	}
	defer db.Close()
	if !db.Ready(ctx) {
		fmt.Fprintln(os.Stderr, "warning: fraud_transactions is empty; run fraudlens-setup first")
	}

	docs, err := docstore.Open(&docstore.Config{
		Host:      cfg.PostgresHost,
		Port:      cfg.PostgresPort,
		User:      cfg.PostgresUser,
		Password:  cfg.PostgresPassword,
		DBName:    cfg.PostgresDB,
		SSLMode:   cfg.PostgresSSLMode,
		Dimension: cfg.EmbeddingDim,
	})
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer docs.Close()

	embedder := openai.New(&openai.Config{
		APIKey:         cfg.TogetherAPIKey,
		BaseURL:        cfg.LLMBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		Dimension:      cfg.EmbeddingDim,
	})

	transcripts, err := buildTranscriptStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open transcript store: %w", err)
	}

	a := agent.New(agent.Deps{
		Chat:         chat,
		Routing:      routing,
		DB:           db,
		Docs:         docstore.NewRetriever(docs, embedder),
		PrimaryModel: cfg.PrimaryModel,
		RoutingModel: cfg.RoutingModel,
	}, agent.WithSynthesisTemperature(cfg.Temperature))

	sessionID := fmt.Sprintf("cli-%d", time.Now().Unix())
	logger.Info("chat session started", "session_id", sessionID, "provider", cfg.LLMProvider)

	fmt.Println("Fraud Analysis Agent. Ask about transaction statistics or the fraud report.")
	fmt.Println("Commands: /clear resets the conversation, /quit exits.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit", "quit", "exit":
			return nil
		case "/clear":
			if err := transcripts.Clear(ctx, sessionID); err != nil {
				fmt.Fprintln(os.Stderr, "clear transcript:", err)
			} else {
				fmt.Println("Conversation cleared.")
			}
			continue
		}

		if err := askOnce(ctx, a, transcripts, sessionID, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(os.Stderr, "ask:", err)
		}
	}
	return scanner.Err()
}

func askOnce(ctx context.Context, a *agent.Agent, transcripts session.Store, sessionID, question string) error {
	history, err := transcripts.History(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	var final *agent.Response
	streaming := false
	for ev := range a.AskStream(ctx, question, history) {
		switch e := ev.(type) {
		case agent.StepEvent:
			if streaming {
				fmt.Println()
				streaming = false
			}
			fmt.Printf("  [%s] %s\n", e.Step, e.Label)
		case agent.TokenEvent:
			if !streaming {
				fmt.Println()
				streaming = true
			}
			fmt.Print(e.Text)
		case agent.FinalEvent:
			final = e.Response
		}
	}
	if streaming {
		fmt.Println()
	}
	if final == nil {
		return ctx.Err()
	}

	if len(final.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range final.Sources {
			fmt.Println("  -", s)
		}
	}
	if final.Quality != nil {
		fmt.Printf("Quality: %d/5", final.Quality.Score)
		if final.RetryCount > 0 {
			fmt.Printf(" (after %d retries)", final.RetryCount)
		}
		fmt.Println()
	}

	if final.Error != "" {
		// Failed questions are not persisted; a retry should not see them
		// as context.
		return nil
	}
	if err := transcripts.Append(ctx, sessionID, message.NewMessage(message.RoleUser, question)); err != nil {
		return fmt.Errorf("persist question: %w", err)
	}
	if err := transcripts.Append(ctx, sessionID, message.NewMessage(message.RoleAssistant, final.Answer)); err != nil {
		return fmt.Errorf("persist answer: %w", err)
	}
	return nil
}

// buildChatClients returns the synthesis and routing clients. Together serves
// both roles through its OpenAI-compatible endpoint with different models;
// the Anthropic provider serves both with Claude.
func buildChatClients(cfg *config.Config) (chat, routing llm.ChatClient) {
	if cfg.LLMProvider == config.ProviderAnthropic {
		p := anthropic.New(&anthropic.Config{APIKey: cfg.AnthropicAPIKey})
		return p, p
	}
	p := openai.New(&openai.Config{
		APIKey:  cfg.TogetherAPIKey,
		BaseURL: cfg.LLMBaseURL,
	})
	return p, p
}

func buildTranscriptStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionRedis:
		return sessionstore.NewRedisStore(&sessionstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	case config.SessionMongo:
		return sessionstore.NewMongoStore(ctx, &sessionstore.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	default:
		return sessionstore.NewMemoryStore(), nil
	}
}
