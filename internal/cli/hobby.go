package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"hobbytrack/internal/core"
	"hobbytrack/internal/storage"
)

func runHobby(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("hobby: missing subcommand: %w", errUsage)
	}
	switch args[0] {
	case "add":
		return hobbyAdd(ctx, repo, args[1:], stdout)
	case "list":
		return hobbyList(ctx, repo, stdout)
	case "delete":
		return hobbyDelete(ctx, repo, args[1:], stdout)
	case "stats":
		return hobbyStats(ctx, repo, args[1:], stdout)
	case "set-target":
		return hobbySetTarget(ctx, repo, args[1:], stdout)
	case "rename":
		return hobbyRename(ctx, repo, args[1:], stdout)
	default:
		return fmt.Errorf("hobby: unknown subcommand %q: %w", args[0], errUsage)
	}
}

func hobbyAdd(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hobby add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	description := fs.String("description", "", "optional description")
	target := fs.String("target", "", "optional target cost per hour, e.g. 12.50")
	ops, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(ops) != 1 {
		return fmt.Errorf("usage: hobby add NAME: %w", errUsage)
	}

	hobby := core.Hobby{Name: ops[0], Description: *description}
	if *target != "" {
		cents, err := core.ParseDecimalToCents(*target)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		hobby.TargetCents = &cents
	}
	if err := hobby.Validate(); err != nil {
		return err
	}

	id, err := repo.AddHobby(ctx, hobby)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added hobby %q (id %d)\n", hobby.Name, id)
	return nil
}

func hobbyList(ctx context.Context, repo *storage.SQLiteRepository, stdout io.Writer) error {
	hobbies, err := repo.ListHobbies(ctx)
	if err != nil {
		return err
	}
	if len(hobbies) == 0 {
		fmt.Fprintln(stdout, "No hobbies yet.")
		return nil
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTARGET/H\tDESCRIPTION")
	for _, h := range hobbies {
		targetCol := "-"
		if h.TargetCents != nil {
			targetCol = core.FormatCents(*h.TargetCents)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", h.ID, h.Name, targetCol, h.Description)
	}
	return w.Flush()
}

func hobbyDelete(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hobby delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ops, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(ops) != 1 {
		return fmt.Errorf("usage: hobby delete NAME|ID: %w", errUsage)
	}
	hobby, err := resolveHobby(ctx, repo, ops[0])
	if err != nil {
		return err
	}
	if err := repo.DeleteHobby(ctx, hobby.ID); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Deleted hobby %q and all its records\n", hobby.Name)
	return nil
}

func hobbyStats(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hobby stats", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ops, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(ops) != 1 {
		return fmt.Errorf("usage: hobby stats NAME|ID: %w", errUsage)
	}
	hobby, err := resolveHobby(ctx, repo, ops[0])
	if err != nil {
		return err
	}
	stats, err := repo.Stats(ctx, hobby.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s\n", hobby.Name)
	if hobby.Description != "" {
		fmt.Fprintf(stdout, "  %s\n", hobby.Description)
	}
	fmt.Fprintf(stdout, "  Total expenses: %s\n", core.FormatCents(stats.TotalExpenseCents))
	fmt.Fprintf(stdout, "  Total hours:    %.2f\n", stats.TotalHours)
	fmt.Fprintf(stdout, "  Cost per hour:  %s\n", formatKPI(stats.CostPerHour))
	if hobby.TargetCents != nil {
		fmt.Fprintf(stdout, "  Target:         %s", core.FormatCents(*hobby.TargetCents))
		if stats.CostPerHour != nil {
			if *stats.CostPerHour > core.CentsToAmount(*hobby.TargetCents) {
				fmt.Fprint(stdout, " (over)")
			} else {
				fmt.Fprint(stdout, " (within)")
			}
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

func hobbySetTarget(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hobby set-target", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	clear := fs.Bool("clear", false, "remove the target")
	ops, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if (*clear && len(ops) != 1) || (!*clear && len(ops) != 2) {
		return fmt.Errorf("usage: hobby set-target NAME|ID AMOUNT, or hobby set-target --clear NAME|ID: %w", errUsage)
	}
	hobby, err := resolveHobby(ctx, repo, ops[0])
	if err != nil {
		return err
	}

	var update storage.HobbyUpdate
	if *clear {
		update.ClearTarget = true
	} else {
		cents, err := core.ParseDecimalToCents(ops[1])
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		update.TargetCents = &cents
	}
	if err := repo.UpdateHobby(ctx, hobby.ID, update); err != nil {
		return err
	}
	if *clear {
		fmt.Fprintf(stdout, "Cleared target for %q\n", hobby.Name)
	} else {
		fmt.Fprintf(stdout, "Set target %s for %q\n", ops[1], hobby.Name)
	}
	return nil
}

func hobbyRename(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hobby rename", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ops, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(ops) != 2 {
		return fmt.Errorf("usage: hobby rename NAME|ID NEWNAME: %w", errUsage)
	}
	newName := ops[1]
	if err := core.ValidateName(newName); err != nil {
		return err
	}
	hobby, err := resolveHobby(ctx, repo, ops[0])
	if err != nil {
		return err
	}
	if err := repo.UpdateHobby(ctx, hobby.ID, storage.HobbyUpdate{Name: &newName}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Renamed %q to %q\n", hobby.Name, newName)
	return nil
}
