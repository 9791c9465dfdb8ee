package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"smartstudy/internal/api"
	"smartstudy/internal/config"
	"smartstudy/internal/llm"
	"smartstudy/internal/services"
)

func main() {
	cfg := config.Load()

	primary, err := llm.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("init gemini provider: %v", err)
	}
	fallback := llm.NewLocalProvider(cfg.FallbackAPIKey, cfg.FallbackEndpoint, cfg.FallbackModel)
	router := llm.NewRouter(primary, fallback)

	study := services.NewStudyService(router)
	sessions := api.NewSessionManager()

	server := api.NewServer(study, sessions)

	log.Printf("listening on :%s", cfg.Port)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}
