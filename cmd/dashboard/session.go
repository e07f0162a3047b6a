package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskdash/dashboard/internal/core/domain"
)

var (
	loginPassword string
	whoamiJSON    bool
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the credential",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored credential",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the stored credential",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (use '-' to read from stdin)")
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Output as JSON")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	password := loginPassword
	if password == "" || password == "-" {
		password, err = readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	if err := a.session.Login(ctx, args[0], password); err != nil {
		var rejected *domain.RemoteRejectedError
		if errors.As(err, &rejected) {
			return errors.New(rejected.DisplayMessage())
		}
		return err
	}

	st := a.session.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", st.Identity.Email, st.Identity.Role)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	a.session.Logout(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	st := a.session.Snapshot()
	out := cmd.OutOrStdout()
	if whoamiJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	if !st.IsAuthenticated {
		fmt.Fprintln(out, "Not signed in")
		return nil
	}
	fmt.Fprintf(out, "%s <%s>\nrole: %s\nid:   %s\n", st.Identity.Name, st.Identity.Email, st.Identity.Role, st.Identity.ID)
	return nil
}

// readSecret reads one line from in, prompting on prompt.
func readSecret(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			fmt.Fprint(prompt, "Password: ")
		}
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
