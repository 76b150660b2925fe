package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/classpathio/order-service/internal/auth"
	"github.com/classpathio/order-service/internal/circuitbreaker"
	"github.com/classpathio/order-service/internal/config"
	"github.com/classpathio/order-service/internal/events"
	"github.com/classpathio/order-service/internal/health"
	"github.com/classpathio/order-service/internal/inventory"
	"github.com/classpathio/order-service/internal/orders"
	"github.com/classpathio/order-service/internal/seed"
	"github.com/classpathio/order-service/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg := config.Load()

	// Connect to database
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			logger.Info("Database connection established")
			break
		}
		logger.Info("Waiting for database...")
		time.Sleep(2 * time.Second)
	}

	repo := storage.NewRepository(db, logger)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		logger.WithError(err).Fatal("Failed to create tables")
	}

	// Kafka producer for order accepted events
	producer, err := events.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create Kafka producer")
	}
	defer producer.Close()

	// Issuer public key for bearer token verification
	keyData, err := os.ReadFile(cfg.AuthPublicKeyPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to read JWT public key")
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(keyData)
	if err != nil {
		logger.WithError(err).Fatal("Failed to parse JWT public key")
	}

	state := health.NewState()

	// Inventory client behind a circuit breaker; a tripped breaker marks
	// the service as refusing traffic.
	inventoryClient := inventory.NewClient(cfg.InventoryURL, logger)
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:        "inventory-service",
		MaxFailures: 5,
		Cooldown:    30 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			if to == circuitbreaker.StateOpen {
				state.Readiness().Set(false)
			}
		},
	}, logger)

	service := orders.NewService(repo, producer, inventoryClient, breaker, cfg.InventoryEnabled, logger)
	orderHandler := orders.NewHandler(service, logger)
	healthHandler := health.NewHandler(state, db, logger)

	if cfg.SeedCount > 0 {
		seed.Run(context.Background(), repo, cfg.SeedCount, logger)
	}

	authn := auth.NewMiddleware(publicKey, logger)

	// Set up routes
	router := mux.NewRouter()
	router.Use(loggingMiddleware(logger))

	router.HandleFunc("/health", healthHandler.Probe).Methods(http.MethodGet)
	router.HandleFunc("/api/state/liveness", healthHandler.ToggleLiveness).Methods(http.MethodPost)
	router.HandleFunc("/api/state/readiness", healthHandler.ToggleReadiness).Methods(http.MethodPost)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authn.Handler)
	api.Use(auth.Authorize(auth.DefaultRules(), logger))
	api.HandleFunc("/orders", orderHandler.ListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders", orderHandler.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", orderHandler.DeleteOrder).Methods(http.MethodDelete)
	// Catch-all keeps unmatched paths under /api/v1 inside the auth chain,
	// where the rule table denies them.
	api.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting order service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			correlationID := uuid.New().String()

			logger.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"method":         r.Method,
				"path":           r.URL.Path,
				"remote":         r.RemoteAddr,
			}).Info("Request received")

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"correlation_id": correlationID,
				"method":         r.Method,
				"path":           r.URL.Path,
				"duration":       time.Since(start).Milliseconds(),
			}).Info("Request completed")
		})
	}
}
