package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"hobbytrack/internal/core"
	"hobbytrack/internal/storage"
)

const usage = `Usage: hobbytrack <command> [arguments]

Commands:
  hobby add        NAME [--description TEXT] [--target AMOUNT]
  hobby list
  hobby delete     NAME|ID
  hobby stats      NAME|ID
  hobby set-target NAME|ID AMOUNT
  hobby set-target --clear NAME|ID
  hobby rename     NAME|ID NEWNAME
  expense add      HOBBY AMOUNT [--description TEXT] [--date DATE]
  expense list     [--hobby HOBBY]
  activity add     HOBBY HOURS [--description TEXT] [--date DATE]
  activity list    [--hobby HOBBY]
  summary
  export           [--out FILE] [--format json|csv] [--dir DIR]
  import           --in FILE

Hobbies are addressed by name or numeric id. Dates are YYYY-MM-DD or
RFC 3339; amounts are decimal, e.g. 12.50.
`

// Run executes a single CLI invocation against the given store and returns
// the process exit code.
func Run(ctx context.Context, repo *storage.SQLiteRepository, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "hobby":
		err = runHobby(ctx, repo, args[1:], stdout)
	case "expense":
		err = runExpense(ctx, repo, args[1:], stdout)
	case "activity":
		err = runActivity(ctx, repo, args[1:], stdout)
	case "summary":
		err = runSummary(ctx, repo, stdout)
	case "export":
		err = runExport(ctx, repo, args[1:], stdout)
	case "import":
		err = runImport(ctx, repo, args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

var errUsage = errors.New("invalid arguments")

// parseArgs parses flags wherever they appear on the command line and
// returns the positional operands in order, so both
// "expense add Archery 12.50 --description bow" and
// "expense add --description bow Archery 12.50" work.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var operands []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return operands, nil
		}
		operands = append(operands, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

// parseDate accepts YYYY-MM-DD or RFC 3339; empty means "now".
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", raw)
	}
	return t.UTC(), nil
}

func formatKPI(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

// resolveHobby looks a hobby up by name first, then by numeric id, so
// hobbies with numeric names still resolve.
func resolveHobby(ctx context.Context, repo *storage.SQLiteRepository, ref string) (*core.Hobby, error) {
	if ref == "" {
		return nil, fmt.Errorf("-hobby is required: %w", errUsage)
	}
	hobby, err := repo.GetHobbyByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if hobby != nil {
		return hobby, nil
	}
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		hobby, err = repo.GetHobby(ctx, id)
		if err != nil {
			return nil, err
		}
		if hobby != nil {
			return hobby, nil
		}
	}
	return nil, fmt.Errorf("hobby %q: %w", ref, core.ErrNotFound)
}
