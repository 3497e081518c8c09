package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flyercalbackend/internal/config"
	"flyercalbackend/internal/flyer"
	"flyercalbackend/internal/llm"
	transporthttp "flyercalbackend/internal/transport/http"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.AnthropicAPIKey == "" {
		log.Fatal("FLYERCAL_ANTHROPIC_API_KEY is required")
	}

	client := llm.NewClient(cfg.AnthropicAPIKey, llm.WithBaseURL(cfg.AnthropicBaseURL))

	policy := flyer.StartPolicyDefault
	if cfg.DropUnresolvable {
		policy = flyer.StartPolicyDrop
	}

	pipeline, err := flyer.NewPipeline(client, flyer.Config{
		Model:           cfg.Model,
		MaxTokens:       cfg.LLMMaxTokens,
		DefaultDuration: cfg.DefaultDuration,
		StartPolicy:     policy,
	})
	if err != nil {
		log.Fatalf("init pipeline: %v", err)
	}

	server := transporthttp.NewServer(pipeline, cfg)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      withLogging(withCORS(server.Routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("flyercal API listening on %s (model %s)", cfg.ListenAddr, cfg.Model)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("signal received: %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// withCORS lets the mobile and web front-ends talk to the API directly.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
