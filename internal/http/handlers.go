package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"portal/accounts/internal/auth"
	"portal/accounts/internal/crypto"
	"portal/accounts/internal/model"
	"portal/accounts/internal/repository"
	"portal/accounts/internal/validate"
)

type registerRequest struct {
	Email           string  `json:"email"`
	Username        string  `json:"username"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm"`
	Phone           *string `json:"phone,omitempty"`
	DateOfBirth     *string `json:"date_of_birth,omitempty"`
}

type authResponse struct {
	User   userView  `json:"user"`
	Tokens tokenPair `json:"tokens"`
}

// Self-registration always creates a parent account with an empty
// parent profile; staff and student accounts are provisioned by an
// administrator.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.Email = validate.NormalizeIdentifier(req.Email)
	req.Username = validate.NormalizeIdentifier(req.Username)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	errs := validate.Errors{}
	if req.Email == "" {
		errs.Add("email", "This field is required.")
	} else if !validate.ValidEmail(req.Email) {
		errs.Add("email", "Enter a valid email address.")
	}
	if req.Username == "" {
		errs.Add("username", "This field is required.")
	}
	if req.FirstName == "" {
		errs.Add("first_name", "This field is required.")
	}
	if req.LastName == "" {
		errs.Add("last_name", "This field is required.")
	}
	if req.Password == "" {
		errs.Add("password", "This field is required.")
	} else {
		for _, violation := range validate.CheckPassword(req.Password, req.Email, req.Username, req.FirstName, req.LastName) {
			errs.Add("password", violation)
		}
	}
	if req.PasswordConfirm == "" {
		errs.Add("password_confirm", "This field is required.")
	} else if req.Password != "" && req.Password != req.PasswordConfirm {
		errs.Add("password_confirm", "Password fields didn't match.")
	}

	var phone *string
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		trimmed := strings.TrimSpace(*req.Phone)
		if !validate.ValidPhone(trimmed) {
			errs.Add("phone", "Enter a valid phone number.")
		} else {
			phone = &trimmed
		}
	}

	var dateOfBirth *time.Time
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		parsed, ok := validate.ParseDate(*req.DateOfBirth)
		if !ok {
			errs.Add("date_of_birth", "Date has wrong format. Use YYYY-MM-DD.")
		} else {
			dateOfBirth = &parsed
		}
	}

	if errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	now := time.Now().UTC()
	account := model.Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         model.RoleParent,
		Phone:        phone,
		DateOfBirth:  dateOfBirth,
		IsActive:     true,
		DateJoined:   now,
		UpdatedAt:    now,
	}

	profile := model.ParentProfile{
		ID:                    uuid.NewString(),
		UserID:                account.ID,
		RelationshipToStudent: model.RelationshipFather,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.store.CreateAccountWithProfile(r.Context(), account, repository.Profile{Parent: &profile}); err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			writeDuplicate(w, dup)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	tokens, err := s.issueTokens(account.ID, account.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{User: mapUserView(account), Tokens: tokens})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = validate.NormalizeIdentifier(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	account, err := s.store.GetAccountByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if err := crypto.CheckPassword(account.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	if !account.IsActive {
		writeError(w, http.StatusForbidden, "account_inactive")
		return
	}

	tokens, err := s.issueTokens(account.ID, account.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	now := time.Now().UTC()
	if err := s.store.UpdateLastLogin(r.Context(), account.ID, now); err == nil {
		account.LastLogin = &now
	}

	writeJSON(w, http.StatusOK, authResponse{User: mapUserView(account), Tokens: tokens})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// handleRefresh rotates a refresh token: the presented token is revoked
// for the remainder of its lifetime before a new pair is minted, so it
// can be redeemed exactly once.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Refresh == "" {
		writeError(w, http.StatusBadRequest, "missing_refresh_token")
		return
	}

	claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, auth.TokenTypeRefresh, req.Refresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
		return
	}

	remaining := auth.RemainingLifetime(claims, time.Now().UTC())
	first, err := s.revoked.Revoke(r.Context(), claims.ID, remaining)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !first {
		// Already consumed by rotation or logout; replays never win.
		writeError(w, http.StatusUnauthorized, "refresh_token_revoked")
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

	tokens, err := s.issueTokens(account.ID, account.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// handleLogout is idempotent: a missing, expired or already-revoked
// refresh token still yields 200. Only a structurally invalid token is
// a client error.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.RefreshToken == "" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, auth.TokenTypeRefresh, req.RefreshToken)
	if err != nil {
		if auth.IsExpired(err) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_refresh_token")
		return
	}

	remaining := auth.RemainingLifetime(claims, time.Now().UTC())
	if _, err := s.revoked.Revoke(r.Context(), claims.ID, remaining); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	errs := validate.Errors{}
	if req.OldPassword == "" {
		errs.Add("old_password", "This field is required.")
	} else if err := crypto.CheckPassword(account.PasswordHash, req.OldPassword); err != nil {
		errs.Add("old_password", "Old password is incorrect.")
	}
	if req.NewPassword == "" {
		errs.Add("new_password", "This field is required.")
	} else {
		for _, violation := range validate.CheckPassword(req.NewPassword, account.Email, account.Username, account.FirstName, account.LastName) {
			errs.Add("new_password", violation)
		}
	}
	if errs.HasErrors() {
		writeFieldErrors(w, errs)
		return
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := s.store.SetPassword(r.Context(), account.ID, hash); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
