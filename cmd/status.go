package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"tokenauth/internal/auth"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	Long: `Show the stored session without contacting the API.

Use 'tokenauth validate' to check the session with the server.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	sess, err := newSession(cmd.Context(), sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"FIELD", "VALUE"})

	tok, err := sess.manager.Token()
	if errors.Is(err, auth.ErrNotSignedIn) {
		t.AppendRow(table.Row{"Status", text.FgYellow.Sprint("Not signed in")})
		t.AppendRow(table.Row{"Storage", storageKind})
		t.Render()
		return nil
	}
	if err != nil {
		return err
	}

	status := text.FgGreen.Sprint("Signed in")
	if !tok.Valid() {
		status = text.FgYellow.Sprint("Expired")
	}

	userType := sess.manager.CurrentUserType()
	if userType == "" {
		userType = text.FgHiBlack.Sprint("-")
	}

	t.AppendRows([]table.Row{
		{"Status", status},
		{"UID", tok.Extra("uid")},
		{"Client", tok.Extra("client")},
		{"Token type", tok.Type()},
		{"Expires", formatExpiry(tok.Expiry)},
		{"User type", userType},
		{"Storage", storageKind},
	})
	t.Render()
	return nil
}

// formatExpiry renders an expiry as an absolute time plus "in X" or "expired X ago".
func formatExpiry(expiresAt time.Time) string {
	if expiresAt.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s (%s)", expiresAt.Local().Format(time.RFC3339), formatExpiryWithDirection(expiresAt))
}

// formatExpiryWithDirection formats a time as "in X" or "expired X ago".
func formatExpiryWithDirection(expiresAt time.Time) string {
	remaining := time.Until(expiresAt)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(-remaining))
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
