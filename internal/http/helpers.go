package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hobbytrack/internal/core"
)

// Wire shapes. Derived numbers travel as plain decimals; absent values as
// JSON null rather than zero.
type (
	hobbyPayload struct {
		ID          int64    `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		CreatedAt   string   `json:"created_at"`
		Target      *float64 `json:"target_cost_per_hour"`
	}

	expensePayload struct {
		ID          int64   `json:"id"`
		HobbyID     int64   `json:"hobby_id"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Date        string  `json:"date"`
	}

	activityPayload struct {
		ID          int64   `json:"id"`
		HobbyID     int64   `json:"hobby_id"`
		Hours       float64 `json:"duration_hours"`
		Description string  `json:"description"`
		Date        string  `json:"date"`
	}

	hobbyRef struct {
		ID          int64    `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Target      *float64 `json:"target_cost_per_hour"`
	}

	statsPayload struct {
		Hobby          hobbyRef `json:"hobby"`
		TotalExpenses  float64  `json:"total_expenses"`
		TotalHours     float64  `json:"total_hours"`
		ExpensePerHour *float64 `json:"expense_per_hour"`
		OverTarget     *bool    `json:"over_target,omitempty"`
	}

	chartPoint struct {
		Date           string  `json:"date"`
		ExpensePerHour float64 `json:"expense_per_hour"`
	}

	summaryEntry struct {
		ID             int64    `json:"id"`
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		TotalExpenses  float64  `json:"total_expenses"`
		TotalHours     float64  `json:"total_hours"`
		ExpensePerHour *float64 `json:"expense_per_hour"`
	}
)

func toHobbyPayload(h core.Hobby) hobbyPayload {
	p := hobbyPayload{
		ID:          h.ID,
		Name:        h.Name,
		Description: h.Description,
		CreatedAt:   h.CreatedAt.Format(time.RFC3339),
	}
	if h.TargetCents != nil {
		v := core.CentsToAmount(*h.TargetCents)
		p.Target = &v
	}
	return p
}

func toHobbyRef(h core.Hobby) hobbyRef {
	ref := hobbyRef{ID: h.ID, Name: h.Name, Description: h.Description}
	if h.TargetCents != nil {
		v := core.CentsToAmount(*h.TargetCents)
		ref.Target = &v
	}
	return ref
}

func toExpensePayload(e core.Expense) expensePayload {
	return expensePayload{
		ID:          e.ID,
		HobbyID:     e.HobbyID,
		Amount:      core.CentsToAmount(e.AmountCents),
		Description: e.Description,
		Date:        e.Date.Format(time.RFC3339),
	}
}

func toActivityPayload(a core.Activity) activityPayload {
	return activityPayload{
		ID:          a.ID,
		HobbyID:     a.HobbyID,
		Hours:       a.Hours,
		Description: a.Description,
		Date:        a.Date.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeCreated(w http.ResponseWriter, id int64, msg string) {
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "message": msg})
}

// writeDomainError maps domain failures onto the API's status codes:
// duplicate names and bad input are the caller's fault (400), unknown
// hobbies are 404, everything else is a server error.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrDuplicateName),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidHours),
		errors.Is(err, core.ErrInvalidTarget),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrDescTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "url", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID extracts the {id} segment of the route.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// parseDateField accepts RFC 3339 timestamps or bare YYYY-MM-DD dates.
// An empty string yields the zero time, which the store fills with now.
func parseDateField(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// amountToCents parses a JSON number into cents, rejecting negatives.
func amountToCents(n json.Number) (int64, error) {
	return core.ParseDecimalToCents(n.String())
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request id for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
