package http

import (
	"encoding/json"
	"net/http"
	"time"
)

func (s *Server) handleBudgetDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.budgets.CurrentDashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	progress, err := s.goals.Progress(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := s.settings.All(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		writeError(w, http.StatusBadRequest, "key and value are required")
		return
	}
	if err := s.settings.Set(r.Context(), req.Key, req.Value); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{req.Key: req.Value})
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID  int64 `json:"category_id"`
		LimitAmount int64 `json:"limit_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	b, err := s.settings.UpsertBudget(r.Context(), req.CategoryID, req.LimitAmount, time.Now().UTC())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category_id":  b.CategoryID,
		"period":       b.Period.Format("2006-01-02"),
		"limit_amount": b.LimitAmount,
	})
}

func (s *Server) handleSendDigest(w http.ResponseWriter, r *http.Request) {
	text, err := s.digest.SendDaily(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"digest": text})
}
