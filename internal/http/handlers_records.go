package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"hobbytrack/internal/core"
)

// resolveListFilter parses the optional hobby_id query parameter and checks
// the hobby exists. Returns (nil, true) when no filter was given.
func (s *Server) resolveListFilter(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("hobby_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hobby_id "+strconv.Quote(raw))
		return nil, false
	}
	hobby, err := s.repo.GetHobby(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	if hobby == nil {
		writeError(w, http.StatusNotFound, "Hobby not found")
		return nil, false
	}
	return &id, true
}

// resolveHobby loads the hobby referenced by a create request, writing the
// error response itself when the id is unknown.
func (s *Server) resolveHobby(w http.ResponseWriter, r *http.Request, id int64) bool {
	hobby, err := s.repo.GetHobby(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return false
	}
	if hobby == nil {
		writeError(w, http.StatusNotFound, "Hobby not found")
		return false
	}
	return true
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	hobbyID, ok := s.resolveListFilter(w, r)
	if !ok {
		return
	}
	expenses, err := s.repo.ListExpenses(r.Context(), hobbyID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	payload := make([]expensePayload, 0, len(expenses))
	for _, e := range expenses {
		payload = append(payload, toExpensePayload(e))
	}
	writeJSON(w, http.StatusOK, payload)
}

type createExpenseRequest struct {
	HobbyID     int64       `json:"hobby_id"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.resolveHobby(w, r, req.HobbyID) {
		return
	}

	cents, err := amountToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount value")
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := core.Expense{
		HobbyID:     req.HobbyID,
		AmountCents: cents,
		Description: sanitizeInput(req.Description),
		Date:        date,
	}
	if err := e.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.repo.AddExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateHobby(req.HobbyID)
	writeCreated(w, id, "Expense added successfully")
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	hobbyID, ok := s.resolveListFilter(w, r)
	if !ok {
		return
	}
	activities, err := s.repo.ListActivities(r.Context(), hobbyID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	payload := make([]activityPayload, 0, len(activities))
	for _, a := range activities {
		payload = append(payload, toActivityPayload(a))
	}
	writeJSON(w, http.StatusOK, payload)
}

type createActivityRequest struct {
	HobbyID     int64    `json:"hobby_id"`
	Hours       *float64 `json:"duration_hours"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req createActivityRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Hours == nil {
		writeError(w, http.StatusBadRequest, "Missing required field: duration_hours")
		return
	}
	if !s.resolveHobby(w, r, req.HobbyID) {
		return
	}

	date, err := parseDateField(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a := core.Activity{
		HobbyID:     req.HobbyID,
		Hours:       *req.Hours,
		Description: sanitizeInput(req.Description),
		Date:        date,
	}
	if err := a.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.repo.AddActivity(r.Context(), a)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateHobby(req.HobbyID)
	writeCreated(w, id, "Activity added successfully")
}
