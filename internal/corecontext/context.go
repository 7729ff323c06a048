// Package corecontext wires the eight components into the single explicit,
// injected handle spec §9 calls for in place of the source's global
// mutable singletons: "a CoreContext struct carrying configuration, the
// template registry, the worker pool handle, and the vector store handle
// is passed into each component." Grounded in ai/client/chat/client.go's
// Client struct threading configuration through every call, and
// core/lynx/lynx.go's top-level Start/Wait/Stop lifecycle.
package corecontext

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkforge/quillcore/internal/completion"
	"github.com/inkforge/quillcore/internal/config"
	"github.com/inkforge/quillcore/internal/prompt"
	"github.com/inkforge/quillcore/internal/providerapi"
	"github.com/inkforge/quillcore/internal/retrieval"
	"github.com/inkforge/quillcore/internal/storage"
	"github.com/inkforge/quillcore/internal/telemetry"
	"github.com/inkforge/quillcore/pkg/xsync"
)

// CoreContext owns every shared, long-lived dependency: configuration,
// the template registry, the shared worker pool, the vector store, and
// the HTTP clients built from provider configuration. Surfaces (one per
// open editor view) are created from it but never hold a strong reference
// back to it beyond what they were handed (spec §9 "Cyclic references").
type CoreContext struct {
	Config *config.Store
	Log    *slog.Logger

	Pool xsync.Pool

	poolTuner    xsync.Tunable
	surfaceMu    sync.Mutex
	surfaceCount int

	DB         *sql.DB
	RagStore   *storage.RagEntryStore
	DiskCache  *storage.EmbeddingDiskCache
	VectorStore retrieval.VectorStore

	TemplateRegistry *prompt.Registry
	Tokenizer        prompt.Tokenizer

	ProviderAPI     *providerapi.Api
	EmbeddingAPI    *providerapi.Api
	CompletionClient *completion.Client
	Embedder        retrieval.Embedder

	EmbeddingCache *retrieval.EmbeddingCache
	Breaker        *retrieval.CircuitBreaker
	Lexical        *retrieval.LexicalIndex
	RetrievalEngine *retrieval.Engine
	Indexer         *retrieval.Indexer
	Reindexer       *retrieval.Reindexer

	PromptBuilder *prompt.Builder
	Bus           *telemetry.Bus
}

// Options configures New.
type Options struct {
	ConfigPath string
	DBPath     string
	Log        *slog.Logger

	// VectorStore lets callers inject a fake for tests; when nil, New
	// builds no vector store of its own and the engine runs lexical-only.
	VectorStore retrieval.VectorStore
}

// New wires a CoreContext: loads configuration, opens sqlite storage,
// builds the OpenAI-compatible provider clients, and assembles the
// Retrieval Engine and Prompt Builder (spec §9 design notes).
func New(opts Options) (*CoreContext, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	cfgStore, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("corecontext: load config: %w", err)
	}
	cfg := cfgStore.Snapshot()

	db, err := storage.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("corecontext: open storage: %w", err)
	}

	ragStore, err := storage.NewRagEntryStore(db)
	if err != nil {
		return nil, fmt.Errorf("corecontext: rag store: %w", err)
	}
	diskCache, err := storage.NewEmbeddingDiskCache(db, time.Duration(cfg.Rag.CacheTTLSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("corecontext: embedding disk cache: %w", err)
	}

	var api *providerapi.Api
	var completionClient *completion.Client
	if cfg.Provider.APIKey != "" {
		api, err = providerapi.New(providerapi.Config{Endpoint: cfg.Provider.Endpoint, APIKey: cfg.Provider.APIKey})
		if err != nil {
			return nil, fmt.Errorf("corecontext: provider api: %w", err)
		}
		completionClient = completion.NewClient(api, cfg.Provider.Model)
	}

	embeddingEndpoint := cfg.Rag.EmbeddingEndpoint
	if embeddingEndpoint == "" {
		embeddingEndpoint = cfg.Provider.Endpoint
	}
	var embedAPI *providerapi.Api
	var embedder retrieval.Embedder
	if cfg.Rag.Enabled && cfg.Provider.APIKey != "" {
		embedAPI, err = providerapi.New(providerapi.Config{Endpoint: embeddingEndpoint, APIKey: cfg.Provider.APIKey})
		if err != nil {
			return nil, fmt.Errorf("corecontext: embedding api: %w", err)
		}
		embedder = &retrieval.OpenAIEmbedder{API: embedAPI, Model: cfg.Rag.EmbeddingModel}
	}

	embeddingCache, err := retrieval.NewEmbeddingCache(cfg.Rag.CacheMemorySize, diskCache)
	if err != nil {
		return nil, fmt.Errorf("corecontext: embedding cache: %w", err)
	}

	breaker := retrieval.NewCircuitBreaker(retrieval.BreakerConfig{
		OpenTimeout: time.Duration(cfg.Rag.BreakerCooldownS) * time.Second,
	})
	lexical := retrieval.NewLexicalIndex()

	var vecStore retrieval.VectorStore
	if opts.VectorStore != nil {
		vecStore = opts.VectorStore
	}

	engine := retrieval.NewEngine(embedder, cfg.Rag.EmbeddingModel, embeddingCache, vecStore, breaker, lexical, log)
	if cfg.Rag.RerankEnabled {
		// Reuse the embedding API client when a distinct rerank model is
		// configured (spec §6 rag.rerank_model); otherwise rerank re-embeds
		// with the primary embedder, and only with no embedder at all does it
		// keep the candidates' existing scores.
		rerankEmbedder := embedder
		rerankAPI := embedAPI
		if rerankAPI == nil {
			rerankAPI = api
		}
		if cfg.Rag.RerankModel != "" && rerankAPI != nil {
			rerankEmbedder = &retrieval.OpenAIEmbedder{API: rerankAPI, Model: cfg.Rag.RerankModel}
		}
		engine.Reranker = retrieval.NewReranker(rerankEmbedder, cfg.Rag.RerankModel, log)
	}

	indexer := retrieval.NewIndexer(embedder, cfg.Rag.EmbeddingModel, vecStore, lexical)
	indexer.Content = ragStore
	indexer.Log = log

	reindexer := retrieval.NewReindexer(indexer, nil, log)

	registry := prompt.NewRegistry()
	var tokenizer prompt.Tokenizer
	if estimator, err := prompt.NewTiktokenEstimator("cl100k_base"); err != nil {
		log.Warn("corecontext: tiktoken estimator unavailable, using character proxy", "error", err)
	} else {
		tokenizer = estimator
	}
	builder := prompt.NewBuilder(registry, tokenizer)

	// Bounded parallelism (spec §5: "equal to the number of active
	// surfaces, minimum 2"); no surfaces are open yet at construction time.
	pool, tuner, err := xsync.NewBoundedPool(2)
	if err != nil {
		return nil, fmt.Errorf("corecontext: worker pool: %w", err)
	}

	return &CoreContext{
		Config:           cfgStore,
		Log:              log,
		Pool:             pool,
		poolTuner:        tuner,
		DB:               db,
		RagStore:         ragStore,
		DiskCache:        diskCache,
		VectorStore:      vecStore,
		TemplateRegistry: registry,
		Tokenizer:        tokenizer,
		ProviderAPI:      api,
		EmbeddingAPI:     embedAPI,
		CompletionClient: completionClient,
		Embedder:         embedder,
		EmbeddingCache:   embeddingCache,
		Breaker:          breaker,
		Lexical:          lexical,
		RetrievalEngine:  engine,
		Indexer:          indexer,
		Reindexer:        reindexer,
		PromptBuilder:    builder,
		Bus:              telemetry.NewBus(),
	}, nil
}

// StartBackground launches the reindex sweep cron (spec §3 "RAG Entries
// are ... replaced on content change"); ctx cancellation stops it.
func (cc *CoreContext) StartBackground(ctx context.Context, source retrieval.DocumentSource, cronSpec string) error {
	cc.Reindexer = retrieval.NewReindexer(cc.Indexer, source, cc.Log)
	if cronSpec == "" {
		cronSpec = "0 */15 * * * *"
	}
	return cc.Reindexer.Start(ctx, cronSpec)
}

// surfaceOpened records a newly opened Surface and retunes the shared pool
// to max(2, active surfaces) (spec §5 bounded parallelism).
func (cc *CoreContext) surfaceOpened() {
	cc.surfaceMu.Lock()
	cc.surfaceCount++
	n := cc.surfaceCount
	cc.surfaceMu.Unlock()
	cc.retunePool(n)
}

// surfaceClosed undoes surfaceOpened, shrinking the pool back down as
// surfaces close.
func (cc *CoreContext) surfaceClosed() {
	cc.surfaceMu.Lock()
	if cc.surfaceCount > 0 {
		cc.surfaceCount--
	}
	n := cc.surfaceCount
	cc.surfaceMu.Unlock()
	cc.retunePool(n)
}

func (cc *CoreContext) retunePool(activeSurfaces int) {
	if cc.poolTuner == nil {
		return
	}
	size := activeSurfaces
	if size < 2 {
		size = 2
	}
	cc.poolTuner.Tune(size)
}

// Close releases every resource CoreContext opened.
func (cc *CoreContext) Close() error {
	var firstErr error
	if cc.poolTuner != nil {
		cc.poolTuner.Release()
	}
	if cc.VectorStore != nil {
		if err := cc.VectorStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if cc.DB != nil {
		if err := cc.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if cc.Config != nil {
		if err := cc.Config.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
