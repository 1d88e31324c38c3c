package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/medgrove/med-web-ui/internal/handlers"
	"github.com/medgrove/med-web-ui/internal/services"
	chromem "github.com/philippgille/chromem-go"
	"gopkg.in/yaml.v3"
)

func main() {
	// Secrets may live in a local .env; a missing file is fine.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("err", err.Error()))
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error("Failed to create data directory", slog.String("err", err.Error()))
		os.Exit(1)
	}

	llm, err := cfg.LLM.llm(cfg.systemPrompt(), logger)
	if err != nil {
		// The server still comes up; /api/health reports the llm as
		// unavailable and the chat endpoints refuse politely.
		logger.Warn("LLM provider not available", slog.String("err", err.Error()))
	}

	store, err := services.NewBoltStore(filepath.Join(cfg.DataDir, "store.db"))
	if err != nil {
		logger.Error("Failed to open store", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	var knowledge handlers.Retriever
	if kb := openKnowledgeBase(cfg, logger); kb != nil {
		knowledge = kb
	}

	m, err := handlers.NewMain(llm, store, knowledge, logger)
	if err != nil {
		logger.Error("Failed to build handlers", slog.String("err", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(m),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String("err", err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
	}
}

// loadConfig reads config.yaml from MEDWEBUI_CONFIG, falling back to the
// user config dir, falling back to environment-driven defaults when no file
// exists at all.
func loadConfig() (config, error) {
	cfgFilePath := os.Getenv("MEDWEBUI_CONFIG")
	if cfgFilePath == "" {
		cfgDir, err := os.UserConfigDir()
		if err != nil {
			return config{}, fmt.Errorf("error getting user config dir: %w", err)
		}
		cfgFilePath = filepath.Join(cfgDir, "medwebui", "config.yaml")
	}

	cfgFile, err := os.Open(cfgFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return config{}, fmt.Errorf("error opening config file: %w", err)
	}
	defer cfgFile.Close()

	cfg := config{}
	if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}
	return cfg, nil
}

// openKnowledgeBase wires the vector store when an embedding key is present,
// ingesting the reference corpus on first run. Returns nil when retrieval is
// not available; the assistant then answers from training data alone.
func openKnowledgeBase(cfg config, logger *slog.Logger) *services.KnowledgeBase {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Warn("OPENAI_API_KEY not set, knowledge retrieval disabled")
		return nil
	}

	embed := chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI3Small)
	kb, err := services.NewKnowledgeBase(filepath.Join(cfg.DataDir, "knowledge"), embed, logger)
	if err != nil {
		logger.Warn("Failed to open knowledge base", slog.String("err", err.Error()))
		return nil
	}

	if cfg.DocsDir != "" && kb.Count() == 0 {
		docs, err := loadDocuments(cfg.DocsDir)
		if err != nil {
			logger.Warn("Failed to read docs directory", slog.String("err", err.Error()))
		} else if err := kb.AddDocuments(context.Background(), docs); err != nil {
			logger.Warn("Failed to ingest documents", slog.String("err", err.Error()))
		} else {
			logger.Info("Ingested reference corpus", slog.Int("chunks", len(docs)))
		}
	}

	return kb
}

// loadDocuments reads every markdown and text file under dir and splits each
// into paragraph chunks.
func loadDocuments(dir string) ([]services.KnowledgeDocument, error) {
	var docs []services.KnowledgeDocument

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".md", ".txt":
		default:
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}
		for i, chunk := range strings.Split(string(raw), "\n\n") {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			docs = append(docs, services.KnowledgeDocument{
				ID:       fmt.Sprintf("%s#%d", rel, i),
				Content:  chunk,
				Metadata: map[string]string{"source": rel},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
