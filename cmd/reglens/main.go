// File path: cmd/reglens/main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mjharlow/reglens/internal/api"
	"github.com/mjharlow/reglens/internal/catalog"
	"github.com/mjharlow/reglens/internal/common"
	"github.com/mjharlow/reglens/internal/llm"
	"github.com/mjharlow/reglens/internal/search"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("reglens: .env file not loaded", "error", err)
	} else {
		logger.Info("reglens: environment loaded from .env")
	}

	addr := flag.String("addr", ":8081", "listen address")
	corpusPath := flag.String("corpus", defaultCorpusPath(), "path to the document corpus (JSONL, empty to disable search)")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the SQLite run catalog (empty to disable)")
	flag.Parse()

	logger.Info("reglens: startup initiated", "addr", *addr, "corpus", *corpusPath, "catalog", *catalogPath)

	provider := llm.NewProvider()
	logger.Info("reglens: llm provider ready", "provider", provider.Name())

	var searchClient search.Client
	if trimmed := strings.TrimSpace(*corpusPath); trimmed != "" {
		index, err := search.LoadIndex(trimmed)
		if err != nil {
			logger.Warn("reglens: corpus not loaded, document search disabled", "path", trimmed, "error", err)
		} else {
			logger.Info("reglens: corpus indexed", "path", trimmed, "documents", index.Size())
			searchClient = index
		}
	} else {
		logger.Info("reglens: document search not configured")
	}

	var store *catalog.Store
	if trimmed := strings.TrimSpace(*catalogPath); trimmed != "" {
		opened, err := catalog.Open(trimmed)
		if err != nil {
			logger.Warn("reglens: run catalog unavailable", "path", trimmed, "error", err)
		} else {
			store = opened
			defer store.Close()
		}
	}

	cfg := api.DefaultConfig()
	server := api.NewServer(provider, searchClient, store, &cfg)

	logger.Info("reglens: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("reglens: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func defaultCorpusPath() string {
	return filepath.Join("data", "corpus.jsonl")
}

func defaultCatalogPath() string {
	return filepath.Join("data", "catalog.db")
}
