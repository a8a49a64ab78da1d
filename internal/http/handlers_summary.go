package http

import (
	"log/slog"
	"net/http"

	"hobbytrack/internal/core"
	"hobbytrack/internal/export"
)

const summaryKey = "summary"

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if entries, ok := s.summaryCache.Get(summaryKey); ok {
		slog.DebugContext(r.Context(), "Summary cache hit")
		writeJSON(w, http.StatusOK, entries)
		return
	}

	hobbies, err := s.repo.ListHobbies(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	entries := make([]summaryEntry, 0, len(hobbies))
	for _, h := range hobbies {
		stats, err := s.repo.Stats(r.Context(), h.ID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		entries = append(entries, summaryEntry{
			ID:             h.ID,
			Name:           h.Name,
			Description:    h.Description,
			TotalExpenses:  core.CentsToAmount(stats.TotalExpenseCents),
			TotalHours:     stats.TotalHours,
			ExpensePerHour: stats.CostPerHour,
		})
	}

	s.summaryCache.Set(summaryKey, entries)
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := export.Collect(r.Context(), s.repo)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var snap export.Snapshot
	if err := decodeBody(r, &snap); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid import file format")
		return
	}
	res, err := export.Import(r.Context(), s.repo, &snap)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Import failed: "+err.Error())
		return
	}
	s.invalidateAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":             "Data imported successfully",
		"hobbies_imported":    res.Hobbies,
		"expenses_imported":   res.Expenses,
		"activities_imported": res.Activities,
	})
}
