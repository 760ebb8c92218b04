package main

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "voicebridge/agent/internal/agent"
    "voicebridge/agent/internal/config"
    "voicebridge/agent/internal/retrieval"
    "voicebridge/agent/internal/tools"
    "voicebridge/agent/internal/web"
)

func main() {
    // Load .env file if present (ignored if missing)
    _ = godotenv.Load()

    cfg := config.Load()

    var embedder retrieval.Embedder
    if cfg.RAG.OpenAIAPIKey != "" {
        embedder = retrieval.NewOpenAIEmbedder(cfg.RAG.OpenAIAPIKey)
    }
    store := retrieval.NewStore(context.Background(), retrieval.Options{
        DocsPath:     cfg.RAG.DocsPath,
        ChunkSize:    cfg.RAG.ChunkSize,
        ChunkOverlap: cfg.RAG.ChunkOverlap,
        Embedder:     embedder,
        CacheDir:     cfg.RAG.CacheDir,
    })
    registry := tools.NewRegistry(tools.Builtin(store)...)

    hub := web.NewHub()
    defaults := agent.Templates{
        VoiceModel:      cfg.Agent.VoiceModel,
        Greeting:        cfg.Agent.Greeting,
        Prompt:          cfg.Agent.Prompt,
        UserSampleRate:  cfg.Agent.UserSampleRate,
        AgentSampleRate: cfg.Agent.AgentSampleRate,
    }
    mgr := agent.NewManager(cfg.Deepgram.AgentURL, cfg.Deepgram.APIKey, defaults, registry, hub)

    ws := web.NewServer(cfg, hub, mgr)
    mux := http.NewServeMux()
    mux.Handle("/", web.NewRouter(ws))
    mux.Handle("/metrics", promhttp.Handler())

    addr := ":" + cfg.Server.Port
    srv := &http.Server{
        Addr:              addr,
        Handler:           logMiddleware(mux),
        ReadHeaderTimeout: 5 * time.Second,
    }

    // Graceful shutdown on SIGINT/SIGTERM
    sigc := make(chan os.Signal, 1)
    signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
    go func() {
        <-sigc
        log.Printf("shutdown signal received; stopping server...")
        mgr.Stop()
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = srv.Shutdown(ctx)
    }()

    log.Printf("server starting on %s", addr)
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Println("server error:", err)
        os.Exit(1)
    }
}

func logMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        next.ServeHTTP(w, r)
        log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
    })
}
