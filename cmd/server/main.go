package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visionboard-backend/internal/config"
	"visionboard-backend/internal/handlers"
	"visionboard-backend/internal/imagery"
	"visionboard-backend/internal/router"
	"visionboard-backend/internal/services"
	"visionboard-backend/internal/session"
	"visionboard-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Vision Board Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize Session Store ────
	store := session.NewStore()
	log.Println("✓ In-memory session store ready")

	// ──── Step 3: Initialize Gemini Client ────
	deriver := imagery.NewDeriver(cfg.ImageServiceBaseURL)
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiChatModel,
		cfg.GeminiExtractModel,
		cfg.GeminiConcurrentReqs,
		cfg.ReferenceDate,
		cfg.Currency,
		deriver,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Printf("✓ Gemini clients initialized (chat: %s, extraction: %s)", cfg.GeminiChatModel, cfg.GeminiExtractModel)

	// ──── Step 4: Start WebSocket Hub ────
	wsHub := websocket.NewHub(store)
	log.Println("✓ WebSocket hub started")

	// ──── Step 5: Initialize Handlers ────
	timeout := time.Duration(cfg.GeminiTimeoutSecs) * time.Second
	sessionHandler := handlers.NewSessionHandler(store)
	chatHandler := handlers.NewChatHandler(store, geminiService, wsHub, timeout)
	boardHandler := handlers.NewBoardHandler(store, geminiService, wsHub, timeout)
	itemHandler := handlers.NewItemHandler(store)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		sessionHandler,
		chatHandler,
		boardHandler,
		itemHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.GeminiTimeoutSecs+15) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Vision Board Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
