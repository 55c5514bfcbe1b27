package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/mrsingh-rishi/audio-scribe/config"
	"github.com/mrsingh-rishi/audio-scribe/retrieval"
	"github.com/mrsingh-rishi/audio-scribe/server"
	"github.com/mrsingh-rishi/audio-scribe/session"
	"github.com/mrsingh-rishi/audio-scribe/transcriber"
	"github.com/mrsingh-rishi/audio-scribe/workers"
)

func newBackend(cfg config.Config) (transcriber.Backend, error) {
	if cfg.Transcriber == "openai" {
		return transcriber.NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.LanguageCode)
	}
	return transcriber.NewGeminiBackend(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatalf("❌ transcriber: %v", err)
	}
	instruction := transcriber.Instruction(transcriber.Prompt{
		Language:    cfg.TargetLanguage,
		Script:      cfg.TargetScript,
		Placeholder: cfg.UnclearPlaceholder,
	})
	worker, err := workers.NewTranscriptionWorker(backend, instruction)
	if err != nil {
		log.Fatalf("❌ transcription worker: %v", err)
	}
	worker.Start()
	defer worker.Stop()

	retriever, err := retrieval.New(
		retrieval.NewHTTPFetcher(cfg.FetchTimeout),
		retrieval.Relay{Prefix: cfg.CORSRelay},
		retrieval.ParseEndpoints(cfg.ProxyEndpoints),
	)
	if err != nil {
		log.Fatalf("❌ retriever: %v", err)
	}
	log.Printf("✅ %s transcriber, %d audio endpoints", cfg.Transcriber, len(retriever.Endpoints()))

	sessions := session.NewRegistry(func() (*session.Session, error) {
		return session.New(retriever, worker)
	})
	srv := server.New(sessions, cfg.BodyLimit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Println("Shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Printf("❌ shutdown: %v", err)
		}
	}()

	if err := srv.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
