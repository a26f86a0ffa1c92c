// Package apitest runs an in-process fake of the rewards API for tests:
// an httptest server with in-memory state, bearer-token auth and the same
// JSON surface the real API exposes, plus seed helpers and fault
// injection.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pointsnav/go-pointsnav/models"
)

// Server is a fake rewards API bound to an httptest listener.
type Server struct {
	HTTP *httptest.Server

	mu          sync.Mutex
	users       map[string]models.User // by user id
	emails      map[string]string      // email → user id
	passwords   map[string]string      // user id → password
	tokens      map[string]string      // bearer token → user id
	resetTokens map[string]string      // reset token → user id

	brands     map[string]models.CardBrand
	programs   map[string]models.PointsProgram
	promotions map[string]models.Promotion

	cards      map[string]models.Card
	cardOwners map[string]string // card id → user id
	purchases  map[string]models.Purchase
	purchOwner map[string]string // purchase id → user id

	notifications map[string][]models.Notification // user id → list, newest first

	// fault injection: requests whose path starts with failPath get
	// failStatus until cleared.
	failPath   string
	failStatus int
}

// NewServer starts a fake API. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		users:         make(map[string]models.User),
		emails:        make(map[string]string),
		passwords:     make(map[string]string),
		tokens:        make(map[string]string),
		resetTokens:   make(map[string]string),
		brands:        make(map[string]models.CardBrand),
		programs:      make(map[string]models.PointsProgram),
		promotions:    make(map[string]models.Promotion),
		cards:         make(map[string]models.Card),
		cardOwners:    make(map[string]string),
		purchases:     make(map[string]models.Purchase),
		purchOwner:    make(map[string]string),
		notifications: make(map[string][]models.Notification),
	}

	s.HTTP = httptest.NewServer(s.router())
	return s
}

// Close shuts the listener down.
func (s *Server) Close() {
	s.HTTP.Close()
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.HTTP.URL
}

// InjectFailure makes every request whose path starts with pathPrefix fail
// with the given status until ClearFailure is called.
func (s *Server) InjectFailure(pathPrefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPath = pathPrefix
	s.failStatus = status
}

// ClearFailure disables fault injection.
func (s *Server) ClearFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPath = ""
	s.failStatus = 0
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
	}))
	r.Use(s.failureMiddleware)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/users/me", s.handleMe)
		r.Put("/users/me", s.handleUpdateMe)
		r.Put("/users/me/password", s.handleChangePassword)

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Post("/", s.handleCreateCard)
			r.Get("/{id}", s.handleGetCard)
			r.Put("/{id}", s.handleUpdateCard)
			r.Delete("/{id}", s.handleDeleteCard)
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", s.handleListPurchases)
			r.Post("/", s.handleCreatePurchase)
			r.Get("/{id}", s.handleGetPurchase)
			r.Put("/{id}", s.handleUpdatePurchase)
			r.Delete("/{id}", s.handleDeletePurchase)
			r.Patch("/{id}/status", s.handlePurchaseStatus)
			r.Post("/{id}/receipt", s.handleUploadReceipt)
		})

		r.Get("/programs", s.handleListPrograms)
		r.Get("/programs/{id}", s.handleGetProgram)
		r.Get("/brands", s.handleListBrands)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/brands", s.handleCreateBrand)
			r.Put("/brands/{id}", s.handleUpdateBrand)
			r.Delete("/brands/{id}", s.handleDeleteBrand)
			r.Post("/programs", s.handleCreateProgram)
			r.Put("/programs/{id}", s.handleUpdateProgram)
			r.Delete("/programs/{id}", s.handleDeleteProgram)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.handleListNotifications)
			r.Get("/unread-count", s.handleUnreadCount)
			r.Patch("/read-all", s.handleMarkAllRead)
			r.Patch("/{id}/read", s.handleMarkRead)
		})

		r.Get("/promotions", s.handleListPromotions)
		r.Get("/promotions/active", s.handleActivePromotions)
		r.Get("/promotions/{id}", s.handleGetPromotion)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/reports/history", s.handleHistory)
		r.Get("/reports/export/csv", s.handleExportCSV)
		r.Get("/reports/export/pdf", s.handleExportPDF)
	})

	return r
}

func (s *Server) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		failPath, failStatus := s.failPath, s.failStatus
		s.mu.Unlock()

		if failPath != "" && strings.HasPrefix(r.URL.Path, failPath) {
			respondError(w, r, failStatus, "injected failure")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves the bearer token to a user id and rejects
// anything else with a 401.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			respondError(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}

		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			respondError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
	})
}

func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		user := s.users[userIDFrom(r.Context())]
		s.mu.Unlock()

		if user.Role != models.RoleAdmin {
			respondError(w, r, http.StatusForbidden, "admin role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, status, models.APIError{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Code:      http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}
