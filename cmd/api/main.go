package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/umx-campus/accesogo/internal/config"
	"github.com/umx-campus/accesogo/internal/database"
	"github.com/umx-campus/accesogo/internal/engine"
	"github.com/umx-campus/accesogo/internal/handlers"
	"github.com/umx-campus/accesogo/internal/models"
	"github.com/umx-campus/accesogo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.GuardAuth{},

		// Registries
		&models.Visitante{},
		&models.Vehiculo{},

		// Visit session aggregate
		&models.Registro{},
		&models.RegistroVisitante{},
		&models.RegistroVehiculo{},
		&models.RegistroNota{},

		// Audit trail
		&models.Bitacora{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// Partial unique index backing card exclusivity
	if err := db.EnsureCardIndex(); err != nil {
		log.Fatalf("Failed to install card index: %v", err)
	}

	// 4. Wire the engine and the live event feed
	hub := websocket.NewHub()
	go hub.Run()

	eng := engine.New(db)
	eng.SetNotifier(hub)

	// 5. Set up HTTP router
	router := handlers.NewRouter(db, eng, hub, cfg)

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
