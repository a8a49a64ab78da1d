package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"hobbytrack/internal/core"
	"hobbytrack/internal/export"
	"hobbytrack/internal/storage"
)

func runSummary(ctx context.Context, repo *storage.SQLiteRepository, stdout io.Writer) error {
	hobbies, err := repo.ListHobbies(ctx)
	if err != nil {
		return err
	}
	if len(hobbies) == 0 {
		fmt.Fprintln(stdout, "No hobbies yet.")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXPENSES\tHOURS\tCOST/H")
	var totalCents int64
	var totalHours float64
	for _, h := range hobbies {
		stats, err := repo.Stats(ctx, h.ID)
		if err != nil {
			return err
		}
		totalCents += stats.TotalExpenseCents
		totalHours += stats.TotalHours
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n",
			h.Name, core.FormatCents(stats.TotalExpenseCents), stats.TotalHours,
			formatKPI(stats.CostPerHour))
	}
	overall := core.NewStats(totalCents, totalHours)
	fmt.Fprintf(w, "TOTAL\t%s\t%.2f\t%s\n",
		core.FormatCents(totalCents), totalHours, formatKPI(overall.CostPerHour))
	return w.Flush()
}

func runExport(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("out", "hobbytrack-export.json", "output file for json format")
	format := fs.String("format", "json", "json or csv")
	dir := fs.String("dir", ".", "output directory for csv format")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch *format {
	case "json":
		snap, err := export.Collect(ctx, repo)
		if err != nil {
			return err
		}
		if err := export.WriteFile(*out, snap); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Exported %d hobbies, %d expenses, %d activities to %s\n",
			len(snap.Hobbies), len(snap.Expenses), len(snap.Activities), *out)
		return nil
	case "csv":
		return exportCSV(ctx, repo, *dir, stdout)
	default:
		return fmt.Errorf("export: unknown format %q: %w", *format, errUsage)
	}
}

func exportCSV(ctx context.Context, repo *storage.SQLiteRepository, dir string, stdout io.Writer) error {
	expenses, err := repo.ListExpenses(ctx, nil)
	if err != nil {
		return err
	}
	activities, err := repo.ListActivities(ctx, nil)
	if err != nil {
		return err
	}
	names, err := hobbyNames(ctx, repo)
	if err != nil {
		return err
	}

	expensesPath := filepath.Join(dir, "expenses.csv")
	if err := export.ExpensesToCSV(expensesPath, expenses, names); err != nil {
		return err
	}
	activitiesPath := filepath.Join(dir, "activities.csv")
	if err := export.ActivitiesToCSV(activitiesPath, activities, names); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s and %s\n", expensesPath, activitiesPath)
	return nil
}

func runImport(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	in := fs.String("in", "", "input file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("import: -in is required: %w", errUsage)
	}

	snap, err := export.ReadFile(*in)
	if err != nil {
		return err
	}
	res, err := export.Import(ctx, repo, snap)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Imported %d hobbies, %d expenses, %d activities\n",
		res.Hobbies, res.Expenses, res.Activities)
	return nil
}
