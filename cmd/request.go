package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"tokenauth/internal/auth"
)

var requestData string

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the session with the server",
	Long: `Validate the stored token with the server and print the profile it returns.

With signOutFailedValidate set in the configuration, a rejected token also
clears the stored session.`,
	RunE: runValidate,
}

// requestCmd represents the request command
var requestCmd = &cobra.Command{
	Use:   "request METHOD URL",
	Short: "Send an authenticated API request",
	Long: `Send a request with the stored credentials and print the response body.

A URL without a scheme is resolved against apiBase and apiPath. Rotated
credentials in the response are stored.

Examples:
  tokenauth request GET users/me
  tokenauth request POST https://api.example.com/posts --data '{"title":"hi"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().StringVar(&requestData, "data", "", "JSON request body")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(requestCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.requireSignedIn(cmd); err != nil {
		return err
	}

	resp, err := sess.manager.ValidateToken(ctx)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp.Data)
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	method := strings.ToUpper(args[0])

	sess, err := newSession(ctx, sessionOptions{})
	if err != nil {
		return err
	}
	defer sess.Close()

	target := args[1]
	if u, err := url.Parse(target); err != nil || u.Scheme == "" {
		target = sess.manager.APIPath() + strings.TrimPrefix(target, "/")
	}

	var body io.Reader
	if requestData != "" {
		if !json.Valid([]byte(requestData)) {
			return fmt.Errorf("--data is not valid JSON")
		}
		body = strings.NewReader(requestData)
	}

	resp, err := sess.manager.Do(ctx, method, target, body)
	if resp != nil {
		if werr := writeBody(cmd.OutOrStdout(), resp); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// writeBody prints a JSON body indented and anything else as-is.
func writeBody(w io.Writer, resp *auth.Response) error {
	if len(resp.Body) == 0 {
		return nil
	}
	if json.Valid(resp.Body) {
		return writeJSON(w, resp.Body)
	}
	_, err := fmt.Fprintln(w, string(resp.Body))
	return err
}

func writeJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
