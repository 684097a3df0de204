package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/familymenu/nutrition-ai/internal/ai"
	"github.com/familymenu/nutrition-ai/internal/chat"
	"github.com/familymenu/nutrition-ai/internal/config"
	"github.com/familymenu/nutrition-ai/internal/db"
	"github.com/familymenu/nutrition-ai/internal/httpapi"
	"github.com/familymenu/nutrition-ai/internal/httpapi/handlers"
	"github.com/familymenu/nutrition-ai/internal/meals"
	"github.com/familymenu/nutrition-ai/internal/rag"
	"github.com/familymenu/nutrition-ai/internal/store/rabbitmq"
	"github.com/familymenu/nutrition-ai/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rdb := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	cache := redisstore.New(rdb, cfg.SessionTTL, cfg.HistoryLimit)

	chatRepo := chat.NewRepo(gdb)

	// provider registry (route by AI_PROVIDER)
	ollama := ai.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.EmbedModel)

	reg := ai.NewRegistry()
	reg.Register("ollama", cfg.OllamaModel, func(model string) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model, cfg.EmbedModel), nil
	})
	reg.Register("gemini", cfg.GeminiModel, func(model string) (ai.Provider, error) {
		return ai.NewGeminiProvider(cfg.GeminiAPIKey, model), nil
	})

	provider, err := reg.Get(cfg.AIProvider, "")
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}

	var retriever rag.Retriever
	if cfg.PineconeAPIKey != "" && cfg.PineconeHost != "" {
		retriever = rag.NewPineconeClient(cfg.PineconeHost, cfg.PineconeAPIKey)
	} else {
		log.Printf("pinecone not configured, answering without retrieval")
	}

	chain := rag.NewChain(provider, ollama, retriever)

	var translator chat.Translator
	if cfg.GeminiAPIKey != "" {
		translator = rag.NewProviderTranslator(ai.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel))
	} else {
		log.Printf("gemini not configured, skipping translation")
	}

	chatSvc := chat.NewService(chatRepo, cache, chain, translator, cfg.QuestionQuota)
	rec := chat.NewReconciler(chatRepo, cache, cfg.SyncInterval, cfg.SyncBackoff)

	mealRepo := meals.NewRepo(gdb)
	matcher := meals.NewProductMatcher(ollama, retriever, cfg.PineconeProductNS)
	mealSvc := meals.NewService(mealRepo, provider, matcher, chatSvc)

	rabbit, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer rabbit.Close()

	h := handlers.NewHandler(cfg, chatSvc, chatRepo, cache, rec, mealSvc, rabbit)
	router := httpapi.NewRouter(h)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec.Run(ctx)
	}()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	log.Printf("server started addr=%s sync_interval=%s", cfg.HTTPAddr, cfg.SyncInterval)

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	// bounded wait for the reconciler, then one final flush so pending
	// turns do not sit in the cache across a restart
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Printf("reconciler did not stop in time, flushing anyway")
	}

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFlush()
	if n, err := rec.SyncNow(flushCtx); err != nil {
		log.Printf("final flush failed: %v", err)
	} else {
		log.Printf("final flush synced %d turns", n)
	}
	if err := rec.SyncCounters(flushCtx); err != nil {
		log.Printf("final counter sync failed: %v", err)
	}

	if err := rdb.Close(); err != nil {
		log.Printf("redis close: %v", err)
	}
}
