package cmd

import (
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Long: `Sign out of the API and clear the stored session.

The stored credentials are removed even when the sign-out request fails.`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if !sess.manager.UserSignedIn() {
		printf(cmd.OutOrStdout(), "Not signed in.\n")
		return nil
	}

	err = sess.manager.SignOut(ctx)
	printf(cmd.OutOrStdout(), "%s Signed out; stored session cleared.\n", text.FgGreen.Sprint("✓"))
	return err
}
