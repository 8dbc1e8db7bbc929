package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"tcp-chat/internal"
	"tcp-chat/repositories"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func main() {
	var dbPath string
	var limit int

	rootCmd := &cobra.Command{
		Use:           "badger_inspect",
		Short:         "Prints the session ledger of a chat server as a table",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(dbPath, limit)
		},
	}
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Path to badger DB, BADGER_FILEPATH when empty")
	rootCmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of sessions, 0 for all")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func inspect(dbPath string, limit int) error {
	if dbPath == "" {
		config, err := internal.Load()
		if err != nil {
			return err
		}
		dbPath = config.BadgerFilepath
	}
	if dbPath == "" {
		return fmt.Errorf("no database path: use --db or BADGER_FILEPATH")
	}

	db, err := openDB(dbPath)
	if err != nil {
		return fmt.Errorf("error while opening Badger: %w", err)
	}
	defer db.Close()

	var maxRecords *int
	if limit > 0 {
		maxRecords = &limit
	}
	records, err := repositories.NewSessionRepository(db, slog.Default()).ListSessions(maxRecords)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Session", "Name", "Remote", "Joined", "Left", "Duration", "Reason", "Messages"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	table.AppendBulk(lo.Map(records, func(r repositories.SessionRecord, _ int) []string {
		return toRow(r)
	}))
	table.Render()
	return nil
}

func toRow(r repositories.SessionRecord) []string {
	left, duration, reason := "-", "-", "online"
	if r.LeftAt != nil {
		left = r.LeftAt.Format(time.TimeOnly)
		duration = r.LeftAt.Sub(r.JoinedAt).Round(time.Second).String()
		reason = r.Reason
	}
	// First 8 characters of the id are enough to tell sessions apart
	return []string{
		r.ID.String()[:8],
		r.Name,
		r.RemoteAddr,
		r.JoinedAt.Format(time.DateTime),
		left,
		duration,
		reason,
		fmt.Sprintf("%d", r.Messages),
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// Open in write mode once to let badger truncate, then read-only again
		repairOpts := badger.DefaultOptions(path).
			WithLogger(nil).WithBypassLockGuard(true)
		repaired, repairErr := badger.Open(repairOpts)
		if repairErr != nil {
			return nil, fmt.Errorf("repair failed: %w", repairErr)
		}
		_ = repaired.Close()
		return badger.Open(opts)
	}
	return db, err
}
