// @title           Receipt Server API
// @version         1.0
// @host            localhost
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"

	"receipt-server/internal/api"
	"receipt-server/internal/config"
	"receipt-server/internal/database"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "receipt-server/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("Could not ping database: %v", err)
	}
	log.Println("Connected to database")

	store := database.NewStore(dbpool)
	server := api.NewServer(cfg, store)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(api.MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("https://localhost/swagger/doc.json"),
	))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Receipt server is running. Documentation at /swagger/index.html"))
	})

	r.Post("/auth/register", server.RegisterHandler)
	r.Post("/auth/login", server.LoginHandler)
	r.Get("/users", server.ListUsersHandler)

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Post("/auth/api-keys", server.CreateAPIKeyHandler)
		r.Route("/receipts", func(r chi.Router) {
			r.Post("/", server.CreateReceiptHandler)
			r.Get("/", server.ListReceiptsHandler)
			r.Get("/search", server.SearchReceiptsHandler)
			r.Get("/stats", server.GetReceiptStatsHandler)
			r.Get("/{receiptId}", server.GetReceiptHandler)
			r.Put("/{receiptId}", server.UpdateReceiptHandler)
			r.Delete("/{receiptId}", server.DeleteReceiptHandler)
		})
	})

	addr := cfg.App.Host
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("Starting server on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Could not start server: %v", err)
	}
}
