package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/splitfair/splitfair/internal/api"
	"github.com/splitfair/splitfair/internal/auth"
	"github.com/splitfair/splitfair/internal/config"
	"github.com/splitfair/splitfair/internal/ingest"
	"github.com/splitfair/splitfair/internal/middleware"
	"github.com/splitfair/splitfair/internal/notify"
	"github.com/splitfair/splitfair/internal/scheduler"
	"github.com/splitfair/splitfair/internal/service"
	"github.com/splitfair/splitfair/internal/storage/sqlite"
	"github.com/splitfair/splitfair/pkg/logging"
)

const tokenDuration = 7 * 24 * time.Hour

func main() {
	logging.Setup()
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	sessions := service.NewSessionService(store, logger)
	settlements := service.NewSettlementService(store, logger)
	reports := service.NewReportService(store, logger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, tokenDuration)
	passwordAuth := auth.NewPasswordAuthenticator(store)

	var googleAuth *auth.GoogleAuthenticator
	if cfg.GoogleEnabled() {
		googleAuth = auth.NewGoogleAuthenticator(store, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		logger.Info("Google login enabled")
	}

	var parser ingest.Parser
	if cfg.GeminiAPIKey != "" {
		geminiParser, err := ingest.NewGeminiParser(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Error("Failed to initialize receipt parser", "error", err)
			os.Exit(1)
		}
		parser = geminiParser
		logger.Info("Receipt parsing enabled", "model", ingest.ModelName)
	}

	var notifiers []notify.Notifier
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom))
	}
	if cfg.WhatsAppEnabled() {
		notifiers = append(notifiers, notify.NewWhatsAppNotifier(
			cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppRecipient))
	}
	if len(notifiers) > 0 {
		sched, err := scheduler.New(store, reports, notifiers, cfg.SummaryHour, cfg.SummaryTimezone, logger)
		if err != nil {
			logger.Error("Failed to initialize summary scheduler", "error", err)
			os.Exit(1)
		}
		go sched.Run(context.Background())
	}

	apiServer := api.NewServer(sessions, settlements, reports,
		passwordAuth, googleAuth, jwtManager, store, parser, cfg.UploadDir, logger)
	mux := apiServer.Routes()

	registerStaticRoutes(mux, cfg.StaticPath, logger)

	handler := middleware.Logging(middleware.Metrics(corsMiddleware(mux)))

	// Wrap with h2c so HTTP/2 works without TLS behind a plain proxy.
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// registerStaticRoutes serves the frontend bundle, falling back to index.html
// for client-side routes.
func registerStaticRoutes(mux *http.ServeMux, staticPath string, logger *slog.Logger) {
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		logger.Error("Failed to resolve static path", "error", err)
		os.Exit(1)
	}
	logger.Info("Serving static files", "path", staticDir)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			// SPA routes resolve client-side; hand back the shell.
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	})
}

// corsMiddleware adds CORS headers for the browser frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
