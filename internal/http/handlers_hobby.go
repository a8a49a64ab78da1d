package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"hobbytrack/internal/core"
	"hobbytrack/internal/storage"
)

func (s *Server) handleListHobbies(w http.ResponseWriter, r *http.Request) {
	hobbies, err := s.repo.ListHobbies(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	payload := make([]hobbyPayload, 0, len(hobbies))
	for _, h := range hobbies {
		payload = append(payload, toHobbyPayload(h))
	}
	writeJSON(w, http.StatusOK, payload)
}

type createHobbyRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Target      *json.Number `json:"target_cost_per_hour"`
}

func (s *Server) handleCreateHobby(w http.ResponseWriter, r *http.Request) {
	var req createHobbyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h := core.Hobby{
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
	}
	if req.Target != nil {
		cents, err := amountToCents(*req.Target)
		if err != nil {
			writeError(w, http.StatusBadRequest, core.ErrInvalidTarget.Error())
			return
		}
		h.TargetCents = &cents
	}
	if err := h.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := s.repo.AddHobby(r.Context(), h)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Purge()
	writeCreated(w, id, "Hobby added successfully")
}

type updateHobbyRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Target      json.RawMessage `json:"target_cost_per_hour"`
}

func (s *Server) handleUpdateHobby(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateHobbyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd := storage.HobbyUpdate{}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if err := core.ValidateName(name); err != nil {
			writeDomainError(w, r, err)
			return
		}
		upd.Name = &name
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		if err := core.ValidateDescription(desc); err != nil {
			writeDomainError(w, r, err)
			return
		}
		upd.Description = &desc
	}
	// target_cost_per_hour distinguishes "absent" (keep), "null" (clear)
	// and a number (set).
	if len(req.Target) > 0 {
		if string(req.Target) == "null" {
			upd.ClearTarget = true
		} else {
			var n json.Number
			if err := json.Unmarshal(req.Target, &n); err != nil {
				writeError(w, http.StatusBadRequest, core.ErrInvalidTarget.Error())
				return
			}
			cents, err := amountToCents(n)
			if err != nil {
				writeError(w, http.StatusBadRequest, core.ErrInvalidTarget.Error())
				return
			}
			upd.TargetCents = &cents
		}
	}

	if err := s.repo.UpdateHobby(r.Context(), id, upd); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateHobby(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hobby updated successfully"})
}

func (s *Server) handleDeleteHobby(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.repo.DeleteHobby(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateHobby(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hobby deleted successfully"})
}

func (s *Server) handleHobbyStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if payload, ok := s.statsCache.Get(statsKey(id)); ok {
		slog.DebugContext(r.Context(), "Stats cache hit", "hobby_id", id)
		writeJSON(w, http.StatusOK, payload)
		return
	}

	hobby, err := s.repo.GetHobby(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if hobby == nil {
		writeError(w, http.StatusNotFound, "Hobby not found")
		return
	}

	stats, err := s.repo.Stats(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	payload := statsPayload{
		Hobby:          toHobbyRef(*hobby),
		TotalExpenses:  core.CentsToAmount(stats.TotalExpenseCents),
		TotalHours:     stats.TotalHours,
		ExpensePerHour: stats.CostPerHour,
	}
	if hobby.TargetCents != nil && stats.CostPerHour != nil {
		over := *stats.CostPerHour > core.CentsToAmount(*hobby.TargetCents)
		payload.OverTarget = &over
	}

	s.statsCache.Set(statsKey(id), payload)
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hobby, err := s.repo.GetHobby(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if hobby == nil {
		writeError(w, http.StatusNotFound, "Hobby not found")
		return
	}

	points, err := s.repo.CostSeries(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	payload := make([]chartPoint, 0, len(points))
	for _, p := range points {
		payload = append(payload, chartPoint{
			Date:           p.Date.Format("2006-01-02"),
			ExpensePerHour: p.Value,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}
