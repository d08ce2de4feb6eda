// Package api serves the MovieHub signup endpoint.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pure-golang/moviehub-mailer/httpserver/middleware"
	"github.com/pure-golang/moviehub-mailer/logger"
	"github.com/pure-golang/moviehub-mailer/mail"
)

const (
	MaxBodySize = 1 << 20

	RunningText = "🎬 MovieHub Email Server is Running!"
)

const (
	msgWelcomeSent    = "Welcome email sent successfully! 🎬"
	errInvalidBody    = "Invalid request body"
	errMissingFields  = "Name and email are required"
	errSendFailed     = "Failed to send email"
	statusHealthy     = "healthy"
	contentTypeJSON   = "application/json"
	contentTypePlain  = "text/plain; charset=utf-8"
	headerContentType = "Content-Type"
)

// WelcomeSender sends the welcome email for a signup.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, name, email string) mail.Result
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Handler holds the endpoint handlers.
type Handler struct {
	sender WelcomeSender
}

func NewHandler(sender WelcomeSender) *Handler {
	return &Handler{sender: sender}
}

// NewRouter builds the service router with the monitoring, recovery and
// CORS middleware applied to every route.
func NewRouter(sender WelcomeSender) http.Handler {
	h := NewHandler(sender)

	r := chi.NewRouter()
	r.Use(
		middleware.Monitoring,
		middleware.Recovery,
		middleware.CORS(middleware.DefaultCORSConfig),
	)

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Post("/signup", h.Signup)
	r.Options("/signup", h.Preflight)

	return r
}

// Signup validates the request and sends exactly one welcome email.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SignupRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize)).Decode(&req); err != nil {
		logger.FromContextWithErr(ctx, err).Warn("failed to decode signup request")
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: errInvalidBody})
		return
	}

	log := logger.FromContext(ctx).With("name", req.Name, "email", req.Email)
	log.Info("signup request received")

	if req.Name == "" || req.Email == "" {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: errMissingFields})
		return
	}

	res := h.sender.SendWelcome(logger.NewContext(ctx, log), req.Name, req.Email)
	if !res.OK() {
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: errSendFailed})
		return
	}

	writeJSON(ctx, w, http.StatusOK, messageResponse{Message: msgWelcomeSent})
}

// Preflight answers the browser's OPTIONS request. CORS headers are set by
// the middleware.
func (h *Handler) Preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(headerContentType, contentTypePlain)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(RunningText))
}

// Health does not probe the mail server.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: statusHealthy})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContextWithErr(ctx, err).Error("failed to write response")
	}
}
