package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/familymenu/nutrition-ai/internal/ai"
	"github.com/familymenu/nutrition-ai/internal/chat"
	"github.com/familymenu/nutrition-ai/internal/config"
	"github.com/familymenu/nutrition-ai/internal/db"
	"github.com/familymenu/nutrition-ai/internal/meals"
	"github.com/familymenu/nutrition-ai/internal/rag"
	"github.com/familymenu/nutrition-ai/internal/store/rabbitmq"
	"github.com/familymenu/nutrition-ai/internal/store/redisstore"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rdb := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	cache := redisstore.New(rdb, cfg.SessionTTL, cfg.HistoryLimit)

	// the worker only needs the session-resolution slice of the chat facade
	chatSvc := chat.NewService(chat.NewRepo(gdb), cache, nil, nil, cfg.QuestionQuota)

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
	}

	matcher := meals.NewProductMatcher(ollama, retriever, cfg.PineconeProductNS)
	svc := meals.NewService(meals.NewRepo(gdb), provider, matcher, chatSvc)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, rabbitmq.MainQueueArgs(cfg.RabbitQueue))
	if err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.MealJobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := svc.RunJob(ctx, m.JobID); err != nil {
					log.Printf("worker=%d job %s failed session_id=%s cost=%s err=%v",
						workerID, m.JobID, m.SessionID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}
				log.Printf("worker=%d job %s done session_id=%s cost=%s", workerID, m.JobID, m.SessionID, time.Since(start))

				if err := d.Ack(false); err != nil {
					log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}
