package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gemgrid/internal/api"
	"gemgrid/internal/config"
	"gemgrid/internal/engine"
	"gemgrid/internal/epoch"
	"gemgrid/internal/render"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using environment variables")
	}

	cfg := config.Load()

	clock := epoch.NewClock(
		time.Unix(cfg.Epoch.GenesisUnix, 0),
		cfg.Epoch.Duration,
		cfg.Epoch.CommitFraction,
	)

	ledger := engine.NewMemoryLedger()

	var authorize func(string) bool
	if cfg.Server.DebugToken != "" {
		token := cfg.Server.DebugToken
		authorize = func(t string) bool { return t == token }
	}

	eng := engine.New(engine.Options{
		Config: engine.Config{
			MaxLife:          cfg.Engine.MaxLife,
			StakePerGem:      cfg.Engine.StakePerGem,
			MaxMovesPerBatch: cfg.Engine.MaxMovesPerBatch,
		},
		Sink:      ledger,
		Oracle:    clock,
		Authorize: authorize,
	})

	if cfg.Server.EventLogPath != "" {
		if err := eng.StartEventLog(cfg.Server.EventLogPath); err != nil {
			log.Fatalf("❌ Event log: %v", err)
		}
		log.Printf("📝 Event log: %s", cfg.Server.EventLogPath)
	}

	if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
		log.Printf("⚠️ Debug server: %v", err)
	}

	server := api.NewServer(cfg.Server.Port, api.RouterConfig{
		Engine:     eng,
		Ledger:     ledger,
		Oracle:     clock,
		Renderer:   render.New(cfg.Engine.MaxLife),
		DebugToken: cfg.Server.DebugToken,
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("❌ Server: %v", err)
		}
	}()

	log.Printf("💎 Resolution engine up (maxLife=%d stake=%d epoch=%s)",
		cfg.Engine.MaxLife, cfg.Engine.StakePerGem, cfg.Epoch.Duration)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Shutdown: %v", err)
	}
	eng.StopEventLog()
	log.Println("👋 Bye")
}
