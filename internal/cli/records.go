package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"hobbytrack/internal/core"
	"hobbytrack/internal/storage"
)

func runExpense(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("expense: missing subcommand: %w", errUsage)
	}
	switch args[0] {
	case "add":
		return expenseAdd(ctx, repo, args[1:], stdout)
	case "list":
		return expenseList(ctx, repo, args[1:], stdout)
	default:
		return fmt.Errorf("expense: unknown subcommand %q: %w", args[0], errUsage)
	}
}

func expenseAdd(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("expense add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	description := fs.String("description", "", "optional description")
	date := fs.String("date", "", "optional date")
	ops, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(ops) != 2 {
		return fmt.Errorf("usage: expense add HOBBY AMOUNT: %w", errUsage)
	}

	hobby, err := resolveHobby(ctx, repo, ops[0])
	if err != nil {
		return err
	}
	cents, err := core.ParseDecimalToCents(ops[1])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	when, err := parseDate(*date)
	if err != nil {
		return err
	}

	expense := core.Expense{
		HobbyID:     hobby.ID,
		AmountCents: cents,
		Description: *description,
		Date:        when,
	}
	if err := expense.Validate(); err != nil {
		return err
	}
	id, err := repo.AddExpense(ctx, expense)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added expense %s (id %d)\n", core.FormatCents(cents), id)
	return nil
}

func expenseList(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	filter, err := parseListFilter(ctx, repo, "expense list", args)
	if err != nil {
		return err
	}
	expenses, err := repo.ListExpenses(ctx, filter)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Fprintln(stdout, "No expenses yet.")
		return nil
	}
	names, err := hobbyNames(ctx, repo)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHOBBY\tDATE\tAMOUNT\tDESCRIPTION")
	for _, e := range expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, nameOrUnknown(names, e.HobbyID), e.Date.Format("2006-01-02"),
			core.FormatCents(e.AmountCents), e.Description)
	}
	return w.Flush()
}

func runActivity(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("activity: missing subcommand: %w", errUsage)
	}
	switch args[0] {
	case "add":
		return activityAdd(ctx, repo, args[1:], stdout)
	case "list":
		return activityList(ctx, repo, args[1:], stdout)
	default:
		return fmt.Errorf("activity: unknown subcommand %q: %w", args[0], errUsage)
	}
}

func activityAdd(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("activity add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	description := fs.String("description", "", "optional description")
	date := fs.String("date", "", "optional date")
	ops, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(ops) != 2 {
		return fmt.Errorf("usage: activity add HOBBY HOURS: %w", errUsage)
	}

	hobby, err := resolveHobby(ctx, repo, ops[0])
	if err != nil {
		return err
	}
	hours, err := strconv.ParseFloat(ops[1], 64)
	if err != nil {
		return fmt.Errorf("hours %q: %w", ops[1], core.ErrInvalidHours)
	}
	when, err := parseDate(*date)
	if err != nil {
		return err
	}

	activity := core.Activity{
		HobbyID:     hobby.ID,
		Hours:       hours,
		Description: *description,
		Date:        when,
	}
	if err := activity.Validate(); err != nil {
		return err
	}
	id, err := repo.AddActivity(ctx, activity)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added activity of %.2f hours (id %d)\n", hours, id)
	return nil
}

func activityList(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	filter, err := parseListFilter(ctx, repo, "activity list", args)
	if err != nil {
		return err
	}
	activities, err := repo.ListActivities(ctx, filter)
	if err != nil {
		return err
	}
	if len(activities) == 0 {
		fmt.Fprintln(stdout, "No activities yet.")
		return nil
	}
	names, err := hobbyNames(ctx, repo)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHOBBY\tDATE\tHOURS\tDESCRIPTION")
	for _, a := range activities {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f\t%s\n",
			a.ID, nameOrUnknown(names, a.HobbyID), a.Date.Format("2006-01-02"),
			a.Hours, a.Description)
	}
	return w.Flush()
}

// parseListFilter handles the shared -hobby flag of the list subcommands.
// An empty flag means no filter; otherwise the hobby must exist.
func parseListFilter(ctx context.Context, repo *storage.SQLiteRepository, name string, args []string) (*int64, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ref := fs.String("hobby", "", "filter by hobby name or id")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *ref == "" {
		return nil, nil
	}
	hobby, err := resolveHobby(ctx, repo, *ref)
	if err != nil {
		return nil, err
	}
	return &hobby.ID, nil
}

func hobbyNames(ctx context.Context, repo *storage.SQLiteRepository) (map[int64]string, error) {
	hobbies, err := repo.ListHobbies(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(hobbies))
	for _, h := range hobbies {
		names[h.ID] = h.Name
	}
	return names, nil
}

func nameOrUnknown(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return "Unknown"
}
