package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/config"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/httpserver"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/interview"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/llm"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/planner"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/store"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/transcript"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/tts"
	"github.com/Karunakarankavi/mockpanel-backend2.0/internal/vector"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	sessions := store.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	openai := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.ChatModel, cfg.EmbedModel)
	index := vector.NewPineconeIndex(cfg.PineconeAPIKey, cfg.PineconeIndexHost)
	synth := tts.NewClient(cfg.GoogleTTSKey, cfg.TTSVoice)

	stt := transcript.NewAssemblyAIService(cfg.AssemblyAIKey)
	if err := stt.Connect(); err != nil {
		// The relay drops frames until a connection exists; turns still work
		// with typed answers.
		log.Printf("assemblyai connect failed: %v", err)
	}
	defer func() { _ = stt.Close() }()

	coordinator := interview.NewCoordinator(sessions, sessions, openai, openai, index, synth, interview.DefaultQuestionsPerTopic)
	intake := planner.New(openai, sessions)

	srv := httpserver.New(coordinator, intake, stt)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
