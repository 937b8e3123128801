package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"perpbot/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the order journal",
	Long: `Query and display order records from the SQLite journal.

Subcommands:
  recent - List the most recent order submissions
  day    - List orders submitted on a specific day (UTC)

Examples:
  perpbot journal recent
  perpbot journal day 2024-03-01`,
}

var journalRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recent order submissions",
	Args:  cobra.NoArgs,
	RunE:  runJournalRecent,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List orders submitted on a specific day (UTC)",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRecentCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./perpbot.sqlite", "path to SQLite journal DB")
	journalRecentCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of records to show")
}

func runJournalRecent(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.Recent(journalLimit)
	if err != nil {
		return fmt.Errorf("query orders: %w", err)
	}

	printRecords(recs)
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListDay(start, end)
	if err != nil {
		return fmt.Errorf("query orders: %w", err)
	}

	printRecords(recs)
	return nil
}

func printRecords(recs []journal.Record) {
	if len(recs) == 0 {
		fmt.Println("no records")
		return
	}
	for _, r := range recs {
		fmt.Println(journal.Format(r))
	}
}

func dayBounds(day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour), nil
}
