// Command planresult is an operator tool for inspecting and revising stored
// plan results. It covers the two manual interventions support needs: reading
// what a caller sees and supplying an edited text that overrides it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"mediaplan/internal/adapter/repo"
	"mediaplan/internal/domain"
)

func main() {
	_ = godotenv.Load()

	var (
		requestFlag    int64
		editFlag       string
		editFileFlag   string
		clearEditsFlag bool
	)
	flag.Int64Var(&requestFlag, "request", 0, "request ID to inspect or revise")
	flag.StringVar(&editFlag, "set-edited", "", "replacement text for the latest result")
	flag.StringVar(&editFileFlag, "set-edited-file", "", "file with replacement text (use - for stdin)")
	flag.BoolVar(&clearEditsFlag, "clear-edited", false, "remove the human revision, restoring the generated text")
	flag.Parse()

	if requestFlag <= 0 {
		exitWithError(errors.New("-request must be > 0"))
	}
	if editFlag != "" && editFileFlag != "" {
		exitWithError(errors.New("-set-edited and -set-edited-file are mutually exclusive"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	outcomes := repo.NewOutcomeRepository(pool)

	edited, hasEdit, err := editedText(editFlag, editFileFlag, clearEditsFlag)
	if err != nil {
		exitWithError(err)
	}
	if hasEdit {
		if err := outcomes.UpdateEditedText(ctx, requestFlag, edited); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				exitWithError(fmt.Errorf("request %d has no stored result", requestFlag))
			}
			exitWithError(err)
		}
	}

	outcome, err := outcomes.FetchLatest(ctx, requestFlag)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			exitWithError(fmt.Errorf("request %d has no stored result", requestFlag))
		}
		exitWithError(err)
	}
	printOutcome(outcome)
}

func editedText(inline, file string, clear bool) (string, bool, error) {
	if clear {
		if inline != "" || file != "" {
			return "", false, errors.New("-clear-edited cannot be combined with -set-edited flags")
		}
		return "", true, nil
	}
	if inline != "" {
		return inline, true, nil
	}
	if file == "" {
		return "", false, nil
	}
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", false, fmt.Errorf("read edited text: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false, errors.New("edited text is empty")
	}
	return text, true, nil
}

func printOutcome(outcome *domain.Outcome) {
	view := map[string]any{
		"id":          outcome.ID,
		"request_id":  outcome.RequestID,
		"user_id":     outcome.UserID,
		"failed":      outcome.Failed(),
		"created_at":  outcome.CreatedAt.Format(time.RFC3339),
		"result_text": outcome.ResultText(),
	}
	if outcome.Failed() {
		view["error_kind"] = outcome.ErrorKind
		view["error_message"] = outcome.ErrorMessage
	}
	if outcome.EditedText != "" {
		view["has_human_edit"] = true
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(view)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
