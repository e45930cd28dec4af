package command

import (
	"github.com/spf13/cobra"
)

// auth.go handles sign-in, registration, logout and the profile.

func newAuthCmd(c *cli) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Sign in, register, sign out and edit your profile. The session is kept in the OS keyring.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			session, err := c.app.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return userError(err)
			}
			c.app.Store.LoginSuccess(session)
			okColor.Fprintf(cmd.OutOrStdout(), "✓ Welcome back, %s!\n", session.Name)
			return nil
		},
	}
	loginCmd.Flags().StringP("email", "e", "", "Email address")
	loginCmd.Flags().StringP("password", "p", "", "Password")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			session, err := c.app.Auth.Register(cmd.Context(), name, email, password)
			if err != nil {
				return userError(err)
			}
			c.app.Store.LoginSuccess(session)
			okColor.Fprintf(cmd.OutOrStdout(), "✓ Account created. Welcome, %s!\n", session.Name)
			return nil
		},
	}
	registerCmd.Flags().StringP("name", "n", "", "Display name")
	registerCmd.Flags().StringP("email", "e", "", "Email address")
	registerCmd.Flags().StringP("password", "p", "", "Password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Store.Logout()
			okColor.Fprintln(cmd.OutOrStdout(), "✓ Signed out.")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printSession(cmd.OutOrStdout(), c.app.Store.Session())
			return nil
		},
	}

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your display name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			current := c.app.Store.Session()
			name, email := current.Name, current.Email
			if cmd.Flags().Changed("name") {
				name, _ = cmd.Flags().GetString("name")
			}
			if cmd.Flags().Changed("email") {
				email, _ = cmd.Flags().GetString("email")
			}

			if err := c.app.Store.UpdateProfile(name, email); err != nil {
				return userError(err)
			}
			okColor.Fprintln(cmd.OutOrStdout(), "✓ Profile updated.")
			printSession(cmd.OutOrStdout(), c.app.Store.Session())
			return nil
		},
	}
	profileCmd.Flags().StringP("name", "n", "", "New display name")
	profileCmd.Flags().StringP("email", "e", "", "New email address")

	authCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, profileCmd)
	return authCmd
}
