package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/divifolio/backend/src/config"
	"github.com/username/divifolio/backend/src/database"
	"github.com/username/divifolio/backend/src/handlers"
	"github.com/username/divifolio/backend/src/logger"
	"github.com/username/divifolio/backend/src/security"
	"github.com/username/divifolio/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("DiviFolio backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	priceService := services.NewPriceService()
	reportService := services.NewReportService(database.DB, priceService, reportCache)
	importService := services.NewImportService(database.DB, reportService)

	snapshotJob := services.NewSnapshotJob(database.DB, reportService, priceService)
	if err := snapshotJob.Start(config.Cfg.PriceRefreshSpec); err != nil {
		logger.L.Error("Failed to start snapshot job", "schedule", config.Cfg.PriceRefreshSpec, "error", err)
	}
	defer snapshotJob.Stop()

	userHandler := handlers.NewUserHandler(authService)
	portfolioHandler := handlers.NewPortfolioHandler(reportService)
	accountHandler := handlers.NewAccountHandler(reportService)
	holdingHandler := handlers.NewHoldingHandler(reportService)
	dividendHandler := handlers.NewDividendHandler(reportService)
	importHandler := handlers.NewImportHandler(importService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "DiviFolio Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Get("/auth/csrf", handlers.GetCSRFToken)
		})

		// Authentication routes (CSRF protected)
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Post("/auth/login", userHandler.LoginUserHandler)
			r.Post("/auth/register", userHandler.RegisterUserHandler)
			r.Post("/auth/refresh", userHandler.RefreshTokenHandler)
			r.With(userHandler.AuthMiddleware).Post("/auth/logout", userHandler.LogoutUserHandler)
		})

		// Protected routes (require authentication and CSRF)
		r.Group(func(r chi.Router) {
			r.Use(handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey))
			r.Use(userHandler.AuthMiddleware)

			r.Get("/portfolios", portfolioHandler.ListPortfolios)
			r.Post("/portfolios", portfolioHandler.CreatePortfolio)
			r.Put("/portfolios/{id}", portfolioHandler.UpdatePortfolio)
			r.Post("/portfolios/{id}/default", portfolioHandler.SetDefaultPortfolio)
			r.Delete("/portfolios/{id}", portfolioHandler.DeletePortfolio)
			r.Get("/portfolios/{id}/value", portfolioHandler.HandleGetPortfolioValue)
			r.Get("/portfolios/{id}/value-history", portfolioHandler.HandleGetValueHistory)
			r.Post("/portfolios/{id}/refresh-snapshot", portfolioHandler.HandleRefreshSnapshot)

			r.Get("/accounts", accountHandler.ListAccounts)
			r.Post("/accounts", accountHandler.CreateAccount)
			r.Put("/accounts/{id}", accountHandler.UpdateAccount)
			r.Delete("/accounts/{id}", accountHandler.DeleteAccount)

			r.Get("/holdings", holdingHandler.ListHoldings)
			r.Post("/holdings", holdingHandler.CreateHolding)
			r.Put("/holdings/{id}", holdingHandler.UpdateHolding)
			r.Delete("/holdings/{id}", holdingHandler.DeleteHolding)
			r.Get("/holdings/aggregated", holdingHandler.HandleGetAggregatedHoldings)

			r.Get("/dividends", dividendHandler.ListDividends)
			r.Post("/dividends", dividendHandler.CreateDividend)
			r.Put("/dividends/{id}", dividendHandler.UpdateDividend)
			r.Delete("/dividends/{id}", dividendHandler.DeleteDividend)
			r.Get("/dividends/summary", dividendHandler.HandleGetDividendSummary)
			r.Get("/dividends/trailing", dividendHandler.HandleGetTrailingIncome)
			r.Get("/dividends/projection", dividendHandler.HandleGetProjection)

			r.Post("/import", importHandler.HandleImportCSV)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
