// Package storage persists hobbies, expenses and activities in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hobbytrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath and brings
// the schema up to date.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection sidesteps table-lock errors from concurrent
	// writers inside one process.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Hobby operations

// AddHobby persists a new hobby and returns its id. A name collision with
// the UNIQUE column surfaces as core.ErrDuplicateName.
func (r *SQLiteRepository) AddHobby(ctx context.Context, h core.Hobby) (int64, error) {
	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hobbies (name, description, created_at, target_cents) VALUES (?, ?, ?, ?)`,
		h.Name, h.Description, createdAt.UTC().Format(time.RFC3339), h.TargetCents,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, core.ErrDuplicateName
		}
		return 0, fmt.Errorf("insert hobby: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("hobby insert id: %w", err)
	}

	slog.InfoContext(ctx, "Hobby saved", "id", id, "name", h.Name)
	return id, nil
}

// GetHobby returns the hobby with the given id, or nil when absent.
func (r *SQLiteRepository) GetHobby(ctx context.Context, id int64) (*core.Hobby, error) {
	return r.getHobbyWhere(ctx, "id = ?", id)
}

// GetHobbyByName returns the hobby with the exact name, or nil when absent.
// Lookup is case-sensitive like the UNIQUE column itself.
func (r *SQLiteRepository) GetHobbyByName(ctx context.Context, name string) (*core.Hobby, error) {
	return r.getHobbyWhere(ctx, "name = ?", name)
}

func (r *SQLiteRepository) getHobbyWhere(ctx context.Context, where string, arg any) (*core.Hobby, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, target_cents FROM hobbies WHERE `+where, arg)
	h, err := scanHobby(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get hobby: %w", err)
	}
	return h, nil
}

// ListHobbies returns all hobbies ordered by name ascending.
func (r *SQLiteRepository) ListHobbies(ctx context.Context) ([]core.Hobby, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, target_cents FROM hobbies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list hobbies: %w", err)
	}
	defer rows.Close()

	var hobbies []core.Hobby
	for rows.Next() {
		h, err := scanHobby(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hobby: %w", err)
		}
		hobbies = append(hobbies, *h)
	}
	return hobbies, rows.Err()
}

// HobbyUpdate is a partial update: nil fields keep their current value.
// ClearTarget removes the target; it wins over TargetCents.
type HobbyUpdate struct {
	Name        *string
	Description *string
	TargetCents *int64
	ClearTarget bool
}

// UpdateHobby applies a partial update. Renaming onto another hobby's name
// fails with core.ErrDuplicateName and leaves the row untouched.
func (r *SQLiteRepository) UpdateHobby(ctx context.Context, id int64, upd HobbyUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, target_cents FROM hobbies WHERE id = ?`, id)
	current, err := scanHobby(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load hobby %d: %w", id, err)
	}

	name := current.Name
	if upd.Name != nil {
		name = *upd.Name
	}
	description := current.Description
	if upd.Description != nil {
		description = *upd.Description
	}
	target := current.TargetCents
	switch {
	case upd.ClearTarget:
		target = nil
	case upd.TargetCents != nil:
		target = upd.TargetCents
	}

	if name != current.Name {
		var clash int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM hobbies WHERE name = ? AND id <> ?`, name, id).Scan(&clash)
		switch {
		case err == nil:
			return core.ErrDuplicateName
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check name collision: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE hobbies SET name = ?, description = ?, target_cents = ? WHERE id = ?`,
		name, description, target, id,
	); err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateName
		}
		return fmt.Errorf("update hobby %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}

	slog.InfoContext(ctx, "Hobby updated", "id", id, "name", name)
	return nil
}

// DeleteHobby removes a hobby and every expense and activity referencing it
// in a single transaction. Any failure rolls the whole delete back.
func (r *SQLiteRepository) DeleteHobby(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE hobby_id = ?`, id); err != nil {
		return fmt.Errorf("delete activities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE hobby_id = ?`, id); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM hobbies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete hobby: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete hobby rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Hobby deleted", "id", id)
	return nil
}

// Expense operations

// AddExpense persists a new expense. The referenced hobby id is not checked
// here; callers resolve the hobby first.
func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	date := e.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (hobby_id, amount_cents, description, date) VALUES (?, ?, ?, ?)`,
		e.HobbyID, e.AmountCents, e.Description, date.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id, "hobby_id", e.HobbyID, "amount_cents", e.AmountCents)
	return id, nil
}

// ListExpenses returns expenses ordered by date descending, filtered by
// hobby when hobbyID is non-nil.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, hobbyID *int64) ([]core.Expense, error) {
	query := `SELECT id, hobby_id, amount_cents, description, date FROM expenses`
	var args []any
	if hobbyID != nil {
		query += ` WHERE hobby_id = ?`
		args = append(args, *hobbyID)
	}
	query += ` ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			dateStr string
		)
		if err := rows.Scan(&e.ID, &e.HobbyID, &e.AmountCents, &e.Description, &dateStr); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date, err = parseStoredTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("expense %d date: %w", e.ID, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// TotalExpenses sums the expense amounts for one hobby; zero when none exist.
func (r *SQLiteRepository) TotalExpenses(ctx context.Context, hobbyID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE hobby_id = ?`, hobbyID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total expenses: %w", err)
	}
	return total, nil
}

// Activity operations

// AddActivity persists a new activity session.
func (r *SQLiteRepository) AddActivity(ctx context.Context, a core.Activity) (int64, error) {
	date := a.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (hobby_id, duration_hours, description, date) VALUES (?, ?, ?, ?)`,
		a.HobbyID, a.Hours, a.Description, date.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("activity insert id: %w", err)
	}

	slog.InfoContext(ctx, "Activity saved",
		"id", id, "hobby_id", a.HobbyID, "hours", a.Hours)
	return id, nil
}

// ListActivities returns activities ordered by date descending, filtered by
// hobby when hobbyID is non-nil.
func (r *SQLiteRepository) ListActivities(ctx context.Context, hobbyID *int64) ([]core.Activity, error) {
	query := `SELECT id, hobby_id, duration_hours, description, date FROM activities`
	var args []any
	if hobbyID != nil {
		query += ` WHERE hobby_id = ?`
		args = append(args, *hobbyID)
	}
	query += ` ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []core.Activity
	for rows.Next() {
		var (
			a       core.Activity
			dateStr string
		)
		if err := rows.Scan(&a.ID, &a.HobbyID, &a.Hours, &a.Description, &dateStr); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Date, err = parseStoredTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("activity %d date: %w", a.ID, err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// TotalHours sums the activity hours for one hobby; zero when none exist.
func (r *SQLiteRepository) TotalHours(ctx context.Context, hobbyID int64) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(duration_hours), 0) FROM activities WHERE hobby_id = ?`, hobbyID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total hours: %w", err)
	}
	return total, nil
}

// Aggregation reads

// Stats returns the derived cost snapshot for one hobby.
func (r *SQLiteRepository) Stats(ctx context.Context, hobbyID int64) (core.Stats, error) {
	totalCents, err := r.TotalExpenses(ctx, hobbyID)
	if err != nil {
		return core.Stats{}, err
	}
	totalHours, err := r.TotalHours(ctx, hobbyID)
	if err != nil {
		return core.Stats{}, err
	}
	return core.NewStats(totalCents, totalHours), nil
}

// CostSeries returns the cumulative cost-per-hour trend for one hobby.
func (r *SQLiteRepository) CostSeries(ctx context.Context, hobbyID int64) ([]core.SeriesPoint, error) {
	expenses, err := r.ListExpenses(ctx, &hobbyID)
	if err != nil {
		return nil, err
	}
	activities, err := r.ListActivities(ctx, &hobbyID)
	if err != nil {
		return nil, err
	}
	return core.CostPerHourSeries(expenses, activities), nil
}

// helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHobby(row rowScanner) (*core.Hobby, error) {
	var (
		h         core.Hobby
		createdAt string
		target    sql.NullInt64
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Description, &createdAt, &target); err != nil {
		return nil, err
	}
	var err error
	h.CreatedAt, err = parseStoredTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("hobby %d created_at: %w", h.ID, err)
	}
	if target.Valid {
		h.TargetCents = &target.Int64
	}
	return &h, nil
}

func parseStoredTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
