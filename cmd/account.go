package cmd

import (
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"tokenauth/internal/auth"
)

// Account flags
var (
	accountLogin                string
	accountPassword             string
	accountPasswordConfirmation string
	accountPasswordCurrent      string
	accountResetToken           string
	accountUserType             string
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account. The API sends a confirmation email that links back
to registerAccountCallback.`,
	RunE: runRegister,
}

// deleteAccountCmd represents the delete-account command
var deleteAccountCmd = &cobra.Command{
	Use:   "delete-account",
	Short: "Delete the signed-in account",
	RunE:  runDeleteAccount,
}

// passwordCmd groups the password commands
var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Reset or change the account password",
}

// passwordResetCmd represents the password reset command
var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Request a password reset email",
	RunE:  runPasswordReset,
}

// passwordUpdateCmd represents the password update command
var passwordUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change the password of the signed-in account",
	Long: `Change the password of the signed-in account.

Pass --current when the API requires the current password, or
--reset-token to complete a reset started with 'tokenauth password reset'.`,
	RunE: runPasswordUpdate,
}

func init() {
	registerCmd.Flags().StringVar(&accountLogin, "login", "", "login (email by default)")
	registerCmd.Flags().StringVar(&accountPassword, "password", "", "password (read from stdin when omitted)")
	registerCmd.Flags().StringVar(&accountPasswordConfirmation, "password-confirmation", "", "password confirmation (read from stdin when omitted)")
	registerCmd.Flags().StringVar(&accountUserType, "user-type", "", "configured user type to register as")
	_ = registerCmd.MarkFlagRequired("login")

	passwordResetCmd.Flags().StringVar(&accountLogin, "login", "", "login (email by default)")
	passwordResetCmd.Flags().StringVar(&accountUserType, "user-type", "", "configured user type")
	_ = passwordResetCmd.MarkFlagRequired("login")

	passwordUpdateCmd.Flags().StringVar(&accountPassword, "password", "", "new password (read from stdin when omitted)")
	passwordUpdateCmd.Flags().StringVar(&accountPasswordConfirmation, "password-confirmation", "", "new password confirmation (read from stdin when omitted)")
	passwordUpdateCmd.Flags().StringVar(&accountPasswordCurrent, "current", "", "current password")
	passwordUpdateCmd.Flags().StringVar(&accountResetToken, "reset-token", "", "reset password token")
	passwordUpdateCmd.Flags().StringVar(&accountUserType, "user-type", "", "configured user type")

	passwordCmd.AddCommand(passwordResetCmd)
	passwordCmd.AddCommand(passwordUpdateCmd)

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(deleteAccountCmd)
	rootCmd.AddCommand(passwordCmd)
}

// readPasswords reads the password and its confirmation where not given as flags.
func readPasswords(cmd *cobra.Command) (string, string, error) {
	if accountPassword != "" && accountPasswordConfirmation != "" {
		return accountPassword, accountPasswordConfirmation, nil
	}

	prompter, err := newSecretPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return "", "", err
	}
	defer prompter.Close()

	password, err := prompter.read("Password", accountPassword)
	if err != nil {
		return "", "", err
	}
	confirmation, err := prompter.read("Password confirmation", accountPasswordConfirmation)
	if err != nil {
		return "", "", err
	}
	return password, confirmation, nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	password, confirmation, err := readPasswords(cmd)
	if err != nil {
		return err
	}

	sess, err := newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := sess.manager.RegisterAccount(ctx, auth.RegisterData{
		Login:                accountLogin,
		Password:             password,
		PasswordConfirmation: confirmation,
		UserType:             accountUserType,
	}, nil); err != nil {
		return err
	}

	printf(cmd.OutOrStdout(), "%s Account created for %s; check your inbox to confirm it.\n",
		text.FgGreen.Sprint("✓"), accountLogin)
	return nil
}

func runDeleteAccount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.requireSignedIn(cmd); err != nil {
		return err
	}
	if _, err := sess.manager.DeleteAccount(ctx); err != nil {
		return err
	}

	printf(cmd.OutOrStdout(), "%s Account deleted.\n", text.FgGreen.Sprint("✓"))
	return nil
}

func runPasswordReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := sess.manager.ResetPassword(ctx, auth.ResetPasswordData{
		Login:    accountLogin,
		UserType: accountUserType,
	}, nil); err != nil {
		return err
	}

	printf(cmd.OutOrStdout(), "%s Password reset instructions sent to %s.\n", text.FgGreen.Sprint("✓"), accountLogin)
	return nil
}

func runPasswordUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	password, confirmation, err := readPasswords(cmd)
	if err != nil {
		return err
	}

	sess, err := newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := sess.manager.UpdatePassword(ctx, auth.UpdatePasswordData{
		Password:             password,
		PasswordConfirmation: confirmation,
		PasswordCurrent:      accountPasswordCurrent,
		ResetPasswordToken:   accountResetToken,
		UserType:             accountUserType,
	}); err != nil {
		return err
	}

	printf(cmd.OutOrStdout(), "%s Password updated.\n", text.FgGreen.Sprint("✓"))
	return nil
}
