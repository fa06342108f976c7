package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobwatch/internal/store"
)

var employersCmd = &cobra.Command{
	Use:   "employers",
	Short: "Manage tracked employers",
}

var employersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tracked employers",
	Long:  "Prints every employer the daemon is tracking, in the order they are polled.",
	RunE:  runEmployersList,
}

var employersAddCmd = &cobra.Command{
	Use:   "add <name> <board-id>",
	Short: "Track a new employer",
	Long:  "Registers an employer by name and Ashby job board id. The running daemon picks it up on its next discovery pass.",
	Args:  cobra.ExactArgs(2),
	RunE:  runEmployersAdd,
}

func init() {
	rootCmd.AddCommand(employersCmd)
	employersCmd.AddCommand(employersListCmd)
	employersCmd.AddCommand(employersAddCmd)
}

func openStore() (*store.SQLiteStore, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return store.NewSQLiteStore(cfg.DatabasePath)
}

func runEmployersList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer st.Close()

	employers, err := st.ListEmployers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list employers: %v\n", err)
		os.Exit(1)
	}

	if len(employers) == 0 {
		fmt.Println("No employers tracked. Add one with `jobwatch employers add <name> <board-id>`.")
		return nil
	}

	fmt.Printf("%-30s %s\n", "Employer", "Board ID")
	fmt.Println(strings.Repeat("─", 50))
	for _, e := range employers {
		fmt.Printf("%-30s %s\n", e.Name, e.ExternalID)
	}
	fmt.Printf("\nTotal: %d employers\n", len(employers))
	return nil
}

func runEmployersAdd(cmd *cobra.Command, args []string) error {
	name, boardID := args[0], args[1]

	st, err := openStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.AddEmployer(name, boardID); err != nil {
		fmt.Fprintf(os.Stderr, "failed to add employer: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tracking %s (board %s). The daemon picks it up on its next discovery pass.\n", name, boardID)
	return nil
}
