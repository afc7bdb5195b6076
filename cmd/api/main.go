package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/lunaria-mx/lunaria-api/internal/ai"
	"github.com/lunaria-mx/lunaria-api/internal/checkout"
	"github.com/lunaria-mx/lunaria-api/internal/database"
	"github.com/lunaria-mx/lunaria-api/internal/handlers"
	"github.com/lunaria-mx/lunaria-api/internal/payments"
	"github.com/lunaria-mx/lunaria-api/internal/routes"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Println("WARNING: JWT_SECRET is not set; using the development fallback secret.")
	}

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to primary database: %v", err)
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	cancel()

	// 2. --- Payment Gateways ---
	// A gateway is only registered when its key is configured, so a dev
	// environment can run with a single provider.
	gateways := map[string]payments.Gateway{}

	if key := os.Getenv("CLIP_API_KEY"); key != "" {
		gateways["clip"] = payments.NewClip(key)
	}

	if key := os.Getenv("CONEKTA_PRIVATE_KEY"); key != "" {
		gateways["conekta"] = payments.NewConekta(key)
	}

	var mercadoPago *payments.MercadoPago
	if token := os.Getenv("MP_ACCESS_TOKEN"); token != "" {
		mercadoPago = payments.NewMercadoPago(token)
		gateways["mercadopago"] = mercadoPago
	}

	if len(gateways) == 0 {
		log.Println("WARNING: No payment gateway keys configured. Checkout will reject every provider.")
	}

	// 3. --- Admin Assistant (Optional) ---
	// The assistant gets its own read-only connection so the model can never
	// mutate store data even if it produces a bad query.
	var assistant *ai.Assistant
	var dbReadOnly *sql.DB
	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		readOnlyDSN := os.Getenv("DB_DSN_READONLY")
		if readOnlyDSN == "" {
			log.Fatal("GEMINI_API_KEY is set but DB_DSN_READONLY is not. The assistant requires a read-only connection.")
		}
		dbReadOnly, err = database.OpenDBWithDSN(readOnlyDSN)
		if err != nil {
			log.Fatalf("Failed to connect to read-only database: %v", err)
		}
		defer dbReadOnly.Close()

		assistant, err = ai.NewAssistant(geminiKey, dbReadOnly)
		if err != nil {
			log.Fatalf("Failed to initialize assistant: %v", err)
		}
	} else {
		log.Println("GEMINI_API_KEY not set; the admin assistant is disabled.")
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:          db,
		DBReadOnly:  dbReadOnly,
		CheckoutSvc: checkout.NewService(&checkout.PostgresCatalog{DB: db}, &checkout.PostgresOrders{DB: db}),
		Gateways:    gateways,
		MercadoPago: mercadoPago,
		Assistant:   assistant,
	}

	// 4. --- Background Worker ---
	// Sweeps pending orders whose payment window expired (OXXO vouchers,
	// abandoned SPEI transfers) and cancels them.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Background worker started: monitoring for stale pending orders...")
		for range ticker.C {
			app.ProcessStaleOrders()
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting Lunaria API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
