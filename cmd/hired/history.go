package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/hired/internal/results"
	"github.com/spf13/cobra"
)

var (
	historyUser string
	historyJSON bool
	historyYes  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear saved interviews",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved interviews, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show the full results of one saved interview",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved interview of the user",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyUser, "user", "local", "User id whose sessions to read")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "Print the sessions as JSON")
	historyClearCmd.Flags().BoolVar(&historyYes, "yes", false, "Confirm deletion")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadHistory(cmd *cobra.Command) ([]results.View, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := openStore(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, err
	}
	defer func() { _ = st.Close() }()

	sessions, err := st.ListSessions(cmd.Context(), historyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return results.History(sessions), nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	views, err := loadHistory(cmd)
	if err != nil {
		return err
	}
	if historyJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}
	results.RenderHistory(cmd.OutOrStdout(), views)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	views, err := loadHistory(cmd)
	if err != nil {
		return err
	}
	for _, v := range views {
		if v.SessionID == args[0] {
			results.Render(cmd.OutOrStdout(), v)
			return nil
		}
	}
	return fmt.Errorf("no session %q for user %q", args[0], historyUser)
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	if !historyYes {
		return fmt.Errorf("refusing to delete without --yes")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.ClearAll(cmd.Context(), historyUser); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared interview history for %s\n", historyUser)
	return nil
}
