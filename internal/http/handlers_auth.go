package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"monty/internal/auth"
	"monty/internal/core"
)

// withAuth requires a valid bearer token and stores its claims in the
// request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := contextWithClaims(r.Context(), claims)
		next(w, r.WithContext(ctx))
	}
}

type authRequest struct {
	InitData string `json:"init_data"`
}

type userResponse struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	FirstName  string `json:"first_name"`
}

type authResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

// handleAuthTelegram exchanges Telegram Mini App init data for an
// access token, creating the user on first sight.
func (s *Server) handleAuthTelegram(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InitData == "" {
		writeError(w, http.StatusBadRequest, "init_data is required")
		return
	}

	tgUser, err := s.verifier.Verify(req.InitData)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrUserNotAllowed) {
			status = http.StatusForbidden
		}
		slog.WarnContext(r.Context(), "Telegram auth rejected", "error", err)
		writeError(w, status, "authentication failed")
		return
	}

	user, err := s.repo.UpsertUserByTelegramID(r.Context(), tgUser.ID, tgUser.FirstName)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to upsert user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.tokens.Issue(user.ID, user.TelegramID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken: token,
		User:        toUserResponse(user),
	})
}

func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	user, err := s.repo.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, TelegramID: u.TelegramID, FirstName: u.FirstName}
}

func contextWithClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// userIDFrom extracts the authenticated user's internal id.
func userIDFrom(r *http.Request) (int64, bool) {
	claims, ok := r.Context().Value(claimsKey).(auth.Claims)
	if !ok {
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}
