package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/service"
)

// NewUsersCommand groups account administration commands.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUsersAddCommand(rootOpts))
	cmd.AddCommand(newUsersListCommand(rootOpts))
	return cmd
}

type usersAddOptions struct {
	username string
	password string
	role     string
	fullName string
}

func newUsersAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &usersAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Example: `  equipmon users add --username tech2 --password s3cret! --role engineer --full-name "Jo Tech"
  equipmon users add --username boss --password s3cret! --role admin`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.users.Create(cmd.Context(), service.NewUser{
				Username: opts.username,
				Password: opts.password,
				Role:     domain.Role(opts.role),
				FullName: opts.fullName,
			})
			if err != nil {
				return fmt.Errorf("create user %q: %w", opts.username, err)
			}
			return printUsers(cmd, rootOpts, []domain.User{*user})
		},
	}

	cmd.Flags().StringVar(&opts.username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "initial password (required)")
	cmd.Flags().StringVar(&opts.role, "role", string(domain.RoleEngineer), "admin|engineer")
	cmd.Flags().StringVar(&opts.fullName, "full-name", "", "display name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUsersListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List accounts",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := a.users.List(cmd.Context())
			if err != nil {
				return err
			}
			return printUsers(cmd, rootOpts, users)
		},
	}
}

type userRow struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	FullName string      `json:"full_name"`
}

func printUsers(cmd *cobra.Command, opts *RootOptions, users []domain.User) error {
	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{ID: u.ID, Username: u.Username, Role: u.Role, FullName: u.FullName})
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tFULL NAME")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.Username, r.Role, r.FullName)
	}
	return w.Flush()
}
