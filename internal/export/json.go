// Package export moves full dataset snapshots in and out of the store as
// JSON, plus flat CSV listings for spreadsheets.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"hobbytrack/internal/core"
	"hobbytrack/internal/storage"
)

// SnapshotVersion tags the snapshot format; importers reject files without a
// version field.
const SnapshotVersion = "1.0"

type Snapshot struct {
	Version    string        `json:"version"`
	ExportedAt string        `json:"exported_at"`
	Hobbies    []HobbyRec    `json:"hobbies"`
	Expenses   []ExpenseRec  `json:"expenses"`
	Activities []ActivityRec `json:"activities"`
}

type HobbyRec struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CreatedAt   string   `json:"created_at"`
	Target      *float64 `json:"target_cost_per_hour,omitempty"`
}

type ExpenseRec struct {
	ID          int64   `json:"id"`
	HobbyID     int64   `json:"hobby_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

type ActivityRec struct {
	ID          int64   `json:"id"`
	HobbyID     int64   `json:"hobby_id"`
	Hours       float64 `json:"duration_hours"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// Collect builds a snapshot of everything in the store.
func Collect(ctx context.Context, repo *storage.SQLiteRepository) (*Snapshot, error) {
	hobbies, err := repo.ListHobbies(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect hobbies: %w", err)
	}
	expenses, err := repo.ListExpenses(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("collect expenses: %w", err)
	}
	activities, err := repo.ListActivities(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("collect activities: %w", err)
	}

	snap := &Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, h := range hobbies {
		rec := HobbyRec{
			ID:          h.ID,
			Name:        h.Name,
			Description: h.Description,
			CreatedAt:   h.CreatedAt.Format(time.RFC3339),
		}
		if h.TargetCents != nil {
			v := core.CentsToAmount(*h.TargetCents)
			rec.Target = &v
		}
		snap.Hobbies = append(snap.Hobbies, rec)
	}
	for _, e := range expenses {
		snap.Expenses = append(snap.Expenses, ExpenseRec{
			ID:          e.ID,
			HobbyID:     e.HobbyID,
			Amount:      core.CentsToAmount(e.AmountCents),
			Description: e.Description,
			Date:        e.Date.Format(time.RFC3339),
		})
	}
	for _, a := range activities {
		snap.Activities = append(snap.Activities, ActivityRec{
			ID:          a.ID,
			HobbyID:     a.HobbyID,
			Hours:       a.Hours,
			Description: a.Description,
			Date:        a.Date.Format(time.RFC3339),
		})
	}
	return snap, nil
}

// Result counts records actually written during an import.
type Result struct {
	Hobbies    int `json:"hobbies_imported"`
	Expenses   int `json:"expenses_imported"`
	Activities int `json:"activities_imported"`
}

// Import loads a snapshot into the store. Hobbies are reconciled by name:
// a snapshot hobby whose name already exists maps onto the existing row
// instead of creating a duplicate. Expenses and activities referencing a
// hobby id unknown to the snapshot are skipped.
func Import(ctx context.Context, repo *storage.SQLiteRepository, snap *Snapshot) (Result, error) {
	var res Result
	if snap == nil || snap.Version == "" {
		return res, fmt.Errorf("invalid snapshot: missing version")
	}

	// Old hobby id -> id in this store.
	idMap := make(map[int64]int64, len(snap.Hobbies))
	for _, rec := range snap.Hobbies {
		existing, err := repo.GetHobbyByName(ctx, rec.Name)
		if err != nil {
			return res, fmt.Errorf("lookup hobby %q: %w", rec.Name, err)
		}
		if existing != nil {
			idMap[rec.ID] = existing.ID
			continue
		}

		h := core.Hobby{Name: rec.Name, Description: rec.Description}
		if rec.CreatedAt != "" {
			t, err := time.Parse(time.RFC3339, rec.CreatedAt)
			if err != nil {
				return res, fmt.Errorf("hobby %q created_at: %w", rec.Name, err)
			}
			h.CreatedAt = t
		}
		if rec.Target != nil {
			cents := centsFromFloat(*rec.Target)
			h.TargetCents = &cents
		}
		if err := h.Validate(); err != nil {
			return res, fmt.Errorf("hobby %q: %w", rec.Name, err)
		}
		id, err := repo.AddHobby(ctx, h)
		if err != nil {
			return res, fmt.Errorf("import hobby %q: %w", rec.Name, err)
		}
		idMap[rec.ID] = id
		res.Hobbies++
	}

	for _, rec := range snap.Expenses {
		hobbyID, ok := idMap[rec.HobbyID]
		if !ok {
			continue
		}
		date, err := time.Parse(time.RFC3339, rec.Date)
		if err != nil {
			return res, fmt.Errorf("expense %d date: %w", rec.ID, err)
		}
		e := core.Expense{
			HobbyID:     hobbyID,
			AmountCents: centsFromFloat(rec.Amount),
			Description: rec.Description,
			Date:        date,
		}
		if err := e.Validate(); err != nil {
			return res, fmt.Errorf("expense %d: %w", rec.ID, err)
		}
		if _, err := repo.AddExpense(ctx, e); err != nil {
			return res, fmt.Errorf("import expense %d: %w", rec.ID, err)
		}
		res.Expenses++
	}

	for _, rec := range snap.Activities {
		hobbyID, ok := idMap[rec.HobbyID]
		if !ok {
			continue
		}
		date, err := time.Parse(time.RFC3339, rec.Date)
		if err != nil {
			return res, fmt.Errorf("activity %d date: %w", rec.ID, err)
		}
		a := core.Activity{
			HobbyID:     hobbyID,
			Hours:       rec.Hours,
			Description: rec.Description,
			Date:        date,
		}
		if err := a.Validate(); err != nil {
			return res, fmt.Errorf("activity %d: %w", rec.ID, err)
		}
		if _, err := repo.AddActivity(ctx, a); err != nil {
			return res, fmt.Errorf("import activity %d: %w", rec.ID, err)
		}
		res.Activities++
	}

	return res, nil
}

// WriteFile marshals a snapshot to path with indentation.
func WriteFile(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	return nil
}

// ReadFile parses a snapshot file written by WriteFile (or the API export).
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot file: %w", err)
	}
	return &snap, nil
}

func centsFromFloat(v float64) int64 {
	return int64(math.Round(v * 100))
}
