package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"hobbytrack/internal/core"
)

// ExpensesToCSV writes expenses to path, one row per expense. hobbyNames
// maps hobby ids to display names; unknown ids render as "Unknown".
func ExpensesToCSV(path string, expenses []core.Expense, hobbyNames map[int64]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Hobby", "Date", "Amount", "Description"}); err != nil {
		return err
	}
	for _, e := range expenses {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			hobbyName(hobbyNames, e.HobbyID),
			e.Date.Format("2006-01-02"),
			core.FormatCents(e.AmountCents),
			e.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// ActivitiesToCSV writes activity sessions to path, one row per session.
func ActivitiesToCSV(path string, activities []core.Activity, hobbyNames map[int64]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Hobby", "Date", "Hours", "Description"}); err != nil {
		return err
	}
	for _, a := range activities {
		row := []string{
			strconv.FormatInt(a.ID, 10),
			hobbyName(hobbyNames, a.HobbyID),
			a.Date.Format("2006-01-02"),
			strconv.FormatFloat(a.Hours, 'f', 2, 64),
			a.Description,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func hobbyName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "Unknown"
}
