package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

var (
	usersListJSON bool

	userAddName     string
	userAddPassword string
	userAddRole     string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage backend accounts (admin only)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersAdd,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersAddCmd)

	usersListCmd.Flags().BoolVar(&usersListJSON, "json", false, "Output as JSON")

	usersAddCmd.Flags().StringVar(&userAddName, "name", "", "Display name (defaults to the email local part)")
	usersAddCmd.Flags().StringVarP(&userAddPassword, "password", "p", "", "Password (use '-' to read from stdin)")
	usersAddCmd.Flags().StringVar(&userAddRole, "role", string(domain.RoleUser), "Role (admin, user)")
}

// adminApp builds the app from the stored credential and insists it belongs
// to an administrator.
func adminApp(cmd *cobra.Command) (*app, error) {
	a, err := buildApp(cmd.Context(), cfg, true)
	if err != nil {
		return nil, err
	}
	st := a.session.Snapshot()
	switch {
	case !st.IsAuthenticated:
		a.Close(context.Background())
		return nil, fmt.Errorf("not signed in: run `dashboard login` first")
	case st.Role() != domain.RoleAdmin:
		a.Close(context.Background())
		return nil, domain.ErrForbidden
	}
	return a, nil
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	a, err := adminApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	// Bind already loaded the list; reload to surface any error.
	if err := a.store.LoadUsers(cmd.Context()); err != nil {
		return err
	}
	users := a.store.Users()

	out := cmd.OutOrStdout()
	if usersListJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	return tw.Flush()
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	a, err := adminApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	password := userAddPassword
	if password == "" || password == "-" {
		password, err = readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	name := userAddName
	if name == "" {
		name = domain.NameFromEmail(args[0])
	}

	user, err := a.store.AddUser(cmd.Context(), ports.NewUser{
		Name:     name,
		Email:    args[0],
		Password: password,
		Role:     userAddRole,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s (id %s, %s)\n", user.Email, user.ID, user.Role)
	return nil
}
