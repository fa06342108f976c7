package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"jobwatch/internal/audit"
	"jobwatch/internal/config"
	"jobwatch/internal/model"
	"jobwatch/internal/ratelimit"
	"jobwatch/internal/snapshot"
	"jobwatch/internal/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Browse job boards interactively (TUI)",
	Long:  "Shows the employer picker TUI, fetches the live board, then launches the split-pane view: all listed postings on the left, postings new since the last poll on the right.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	sqlStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer sqlStore.Close()

	runAudit(cfg, sqlStore)
	return nil
}

func runAudit(cfg *config.Config, st *store.SQLiteStore) {
	employers, err := st.ListEmployers()
	if err != nil {
		fmt.Printf("Failed to list employers: %v\n", err)
		return
	}
	if len(employers) == 0 {
		fmt.Println("No employers tracked. Add one with `jobwatch employers add <name> <board-id>`.")
		return
	}

	httpClient := &http.Client{Timeout: cfg.Board.Timeout}
	limiter := ratelimit.NewBoardRateLimiter(cfg.RateLimit.MinDelay)

	for {
		choice, err := audit.RunEmployerPicker(employers)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		employer := employers[choice]

		fetcher := buildFetcher(cfg, employer, limiter, httpClient, discardLogger())
		raw, err := audit.RunLoader(employer.Name, fetcher.FetchSnapshot)
		if err != nil {
			fmt.Printf("Error fetching board: %v\n", err)
			continue
		}

		allPostings, err := snapshot.ParseListing(raw)
		if err != nil {
			fmt.Printf("Bad board snapshot: %v\n", err)
			continue
		}

		// New relative to the stored snapshot; audit never writes the store,
		// so browsing here does not suppress future notifications.
		var newPostings []model.Posting
		stored, found, err := st.GetSnapshot(employer.Name)
		if err == nil && found {
			newPostings, _ = snapshot.Diff(stored, raw)
		} else {
			newPostings = allPostings
		}

		wantQuit, err := audit.RunBoardTUI(employer.Name, allPostings, newPostings)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}
