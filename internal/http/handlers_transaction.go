package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"monty/internal/core"
	"monty/internal/export"
	"monty/internal/services"
	"monty/internal/storage"
)

type createTransactionRequest struct {
	CategoryID int64  `json:"category_id"`
	Amount     int64  `json:"amount"`
	Date       string `json:"date"`
	Comment    string `json:"comment"`
}

type transactionResponse struct {
	ID         string `json:"id"`
	CategoryID int64  `json:"category_id"`
	Amount     int64  `json:"amount"`
	Date       string `json:"date"`
	Comment    string `json:"comment,omitempty"`
}

type transactionViewResponse struct {
	ID           string `json:"id"`
	Amount       int64  `json:"amount"`
	Date         string `json:"date"`
	Comment      string `json:"comment,omitempty"`
	CategoryName string `json:"category_name"`
	CategoryIcon string `json:"category_icon"`
	CategoryType string `json:"category_type"`
	UserName     string `json:"user_name"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := parseDayOrTimestamp(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD or RFC3339")
			return
		}
		date = parsed
	}

	tr, err := s.transactions.Create(r.Context(), services.CreateTransactionInput{
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Date:       date,
		Comment:    req.Comment,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tr))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]transactionViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, transactionViewResponse{
			ID:           v.ID,
			Amount:       v.Amount,
			Date:         v.Date.Format(time.RFC3339),
			Comment:      v.Comment,
			CategoryName: v.CategoryName,
			CategoryIcon: v.CategoryIcon,
			CategoryType: string(v.CategoryType),
			UserName:     v.UserName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		CategoryID *int64  `json:"category_id"`
		Amount     *int64  `json:"amount"`
		Comment    *string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.CategoryID == nil && req.Amount == nil && req.Comment == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	tr, err := s.transactions.Update(r.Context(), id, storage.TransactionUpdate{
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Comment:    req.Comment,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tr))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.transactions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	views, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteTransactionsCSV(w, views); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type categoryResponse struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Group string `json:"group"`
		Type  string `json:"type"`
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:    c.ID,
			Name:  c.Name,
			Icon:  c.Icon,
			Group: string(c.Group),
			Type:  string(c.Type),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		CategoryID: t.CategoryID,
		Amount:     t.Amount,
		Date:       t.Date.Format(time.RFC3339),
		Comment:    t.Comment,
	}
}

// parseTransactionFilter reads category_id, start, end and q query
// parameters. start and end are inclusive dates.
func parseTransactionFilter(r *http.Request) (storage.TransactionFilter, error) {
	var f storage.TransactionFilter
	q := r.URL.Query()

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("category_id must be an integer")
		}
		f.CategoryID = id
	}
	if v := q.Get("start"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("start must be YYYY-MM-DD")
		}
		f.Start = d
	}
	if v := q.Get("end"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("end must be YYYY-MM-DD")
		}
		f.End = d.AddDate(0, 0, 1)
	}
	f.Search = q.Get("q")
	return f, nil
}

// parseDayOrTimestamp accepts a plain date or a full RFC3339 timestamp.
func parseDayOrTimestamp(v string) (time.Time, error) {
	if d, err := time.Parse("2006-01-02", v); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, v)
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrCommentTooLong),
		errors.Is(err, services.ErrUnknownSetting):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Handler error", "error", err, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
