package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"ragchat/internal/api"
	"ragchat/internal/cache"
	"ragchat/internal/config"
	"ragchat/internal/service/ai"
	"ragchat/internal/service/catalog"
	"ragchat/internal/storage"
)

func main() {
	cfgPath := os.Getenv("RAGCHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbPath := cfg.Server.DatabasePath
	if dbPath == "" {
		dbPath = "./data/ragchat.db"
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	answers, err := cache.New(cfg)
	if err != nil {
		log.Printf("redis unavailable, answer cache disabled: %v", err)
		answers = nil
	}
	defer answers.Close()

	var provider ai.Provider
	if cfg.Gemini.APIKey != "" {
		provider, err = ai.NewGeminiProvider(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Fatalf("init gemini provider: %v", err)
		}
		log.Printf("AI model: %s", provider.Model())
	} else {
		provider = ai.EchoProvider{}
		log.Printf("no gemini api key configured, using echo provider")
	}

	uploadDir := cfg.Server.UploadDir
	if uploadDir == "" {
		uploadDir = "./data/uploads"
	}

	handler := api.NewHandler(catalog.NewService(db), provider, answers, uploadDir)

	router := gin.Default()
	handler.RegisterRoutes(router)

	addr := cfg.Server.ServerAddress
	if addr == "" {
		addr = ":8001"
	}
	log.Printf("ragchat dev backend listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
