package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portal/accounts/internal/auth"
	"portal/accounts/internal/config"
	"portal/accounts/internal/model"
	"portal/accounts/internal/repository"
	"portal/accounts/internal/revocation"
	"portal/accounts/internal/validate"
)

// Store is what the handlers need from persistent storage. Implemented
// by *repository.Store; tests substitute an in-memory version.
type Store interface {
	GetAccountByEmail(ctx context.Context, email string) (model.Account, error)
	GetAccountByID(ctx context.Context, id string) (model.Account, error)
	CreateAccountWithProfile(ctx context.Context, account model.Account, profile repository.Profile) error
	UpdateAccount(ctx context.Context, id string, update repository.AccountUpdate) (model.Account, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	GetStudentProfile(ctx context.Context, userID string) (model.StudentProfile, error)
	GetTeacherProfile(ctx context.Context, userID string) (model.TeacherProfile, error)
	GetParentProfile(ctx context.Context, userID string) (model.ParentProfile, error)
	CountChildren(ctx context.Context, parentID string) (int, error)
}

type Server struct {
	cfg     config.Config
	store   Store
	revoked revocation.List
}

func NewServer(cfg config.Config, store Store, revoked revocation.List) *Server {
	return &Server{cfg: cfg, store: store, revoked: revoked}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/me", s.handleGetMe)
		r.Patch("/auth/me", s.handleUpdateMe)
		r.Post("/auth/change-password", s.handleChangePassword)

		r.Get("/users/{userID}", s.handleGetUser)
		r.With(s.requireAdmin).Post("/users", s.handleCreateUser)
	})

	return r
}

// authMiddleware resolves the bearer access token into an account:
// invalid or expired tokens, unknown accounts and deactivated accounts
// are all rejected before a handler runs.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, auth.TokenTypeAccess, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		account, err := s.store.GetAccountByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown_account")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if !account.IsActive {
			writeError(w, http.StatusUnauthorized, "account_inactive")
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := accountFromContext(r.Context())
		if !ok || account.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type accountKey struct{}

func accountFromContext(ctx context.Context) (model.Account, bool) {
	account, ok := ctx.Value(accountKey{}).(model.Account)
	return account, ok
}

func (s *Server) issueTokens(userID, role string) (tokenPair, error) {
	access, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, userID, role)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := auth.NewRefreshToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.RefreshTokenTTL, userID, role)
	if err != nil {
		return tokenPair{}, err
	}
	return tokenPair{Access: access, Refresh: refresh}, nil
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeFieldErrors(w http.ResponseWriter, errs validate.Errors) {
	writeJSON(w, http.StatusBadRequest, errs)
}

// writeDuplicate maps a storage uniqueness violation to the same
// field-scoped body a validation failure produces.
func writeDuplicate(w http.ResponseWriter, dup *repository.DuplicateError) {
	errs := validate.Errors{}
	switch dup.Field {
	case "email":
		errs.Add("email", "A user with this email already exists.")
	case "username":
		errs.Add("username", "A user with this username already exists.")
	case "admission_number":
		errs.Add("admission_number", "A student with this admission number already exists.")
	case "staff_id":
		errs.Add("staff_id", "A teacher with this staff ID already exists.")
	default:
		errs.Add(dup.Field, "Duplicate value.")
	}
	writeFieldErrors(w, errs)
}
