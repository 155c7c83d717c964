// Package api exposes SplitFair's JSON REST surface.
package api

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitfair/splitfair/internal/auth"
	"github.com/splitfair/splitfair/internal/ingest"
	"github.com/splitfair/splitfair/internal/middleware"
	"github.com/splitfair/splitfair/internal/service"
)

// Server wires the HTTP handlers to the application services.
type Server struct {
	sessions    *service.SessionService
	settlements *service.SettlementService
	reports     *service.ReportService

	password *auth.PasswordAuthenticator
	google   *auth.GoogleAuthenticator // nil when OAuth is not configured
	jwt      *auth.JWTManager
	users    auth.UserStorage

	parser    ingest.Parser // nil when no vision parser is configured
	uploadDir string

	logger *slog.Logger
}

// NewServer creates a Server. The google authenticator and receipt parser are
// optional; their endpoints report unavailability when nil.
func NewServer(
	sessions *service.SessionService,
	settlements *service.SettlementService,
	reports *service.ReportService,
	password *auth.PasswordAuthenticator,
	google *auth.GoogleAuthenticator,
	jwt *auth.JWTManager,
	users auth.UserStorage,
	parser ingest.Parser,
	uploadDir string,
	logger *slog.Logger,
) *Server {
	return &Server{
		sessions:    sessions,
		settlements: settlements,
		reports:     reports,
		password:    password,
		google:      google,
		jwt:         jwt,
		users:       users,
		parser:      parser,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

// Routes builds the API mux. Everything under /api except the auth entry
// points requires a valid bearer token.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(s.jwt)
	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(h))
	}

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/google/callback", s.handleGoogleCallback)
	protected("GET /api/auth/me", s.handleMe)

	protected("GET /api/sessions", s.handleListSessions)
	protected("POST /api/sessions", s.handleCreateSession)
	protected("GET /api/sessions/export/csv", s.handleExportCSV)
	protected("GET /api/sessions/{id}", s.handleGetSession)
	protected("PATCH /api/sessions/{id}/archive", s.handleArchiveSession)
	protected("PATCH /api/sessions/{id}/amounts", s.handleSetAmounts)
	protected("POST /api/sessions/{id}/participants", s.handleAddParticipant)
	protected("POST /api/sessions/{id}/items", s.handleAddItem)
	protected("PUT /api/sessions/{id}/items/{itemID}", s.handleUpdateItem)
	protected("DELETE /api/sessions/{id}/items/{itemID}", s.handleDeleteItem)
	protected("POST /api/sessions/{id}/items/{itemID}/assign", s.handleAssignItem)
	protected("GET /api/sessions/{id}/calculate", s.handleCalculate)
	protected("POST /api/sessions/{id}/settle", s.handleSettleSession)

	protected("GET /api/participants", s.handleListGlobalParticipants)
	protected("POST /api/participants", s.handleAddGlobalParticipant)
	protected("GET /api/participants/settlement-summary", s.handleSettlementSummary)
	protected("POST /api/participants/settle", s.handleSettleParticipant)

	protected("POST /api/receipts/{sessionID}/upload", s.handleReceiptUpload)
	protected("POST /api/receipts/{sessionID}/manual", s.handleReceiptManual)
	protected("POST /api/receipts/{sessionID}/text", s.handleReceiptText)

	protected("GET /api/reports/activity", s.handleActivity)
	protected("GET /api/reports/summary", s.handleReportSummary)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}
