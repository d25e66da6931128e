package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mohammad-safakhou/worstcrm/config"
	"github.com/mohammad-safakhou/worstcrm/internal/runtime"
	"github.com/mohammad-safakhou/worstcrm/internal/store"
)

func userCMD() *cobra.Command {
	var user = &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	user.AddCommand(userCreateCMD())
	return user
}

// userCreateCMD bootstraps a user directly in the database, typically the
// first admin.
func userCreateCMD() *cobra.Command {
	var (
		cfgPath  string
		userID   string
		fullName string
		email    string
		scopes   string
	)
	var create = &cobra.Command{
		Use:   "create",
		Short: "Create a user (password from WORSTCRM_USER_PASSWORD)",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("WORSTCRM_USER_PASSWORD")
			if len(password) < 8 {
				return fmt.Errorf("WORSTCRM_USER_PASSWORD must hold at least 8 characters")
			}
			if userID == "" {
				return fmt.Errorf("--id required")
			}
			cfg := config.LoadConfig(cfgPath)
			dsn, err := runtime.BuildPostgresDSN(cfg)
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, err := store.NewWithDSN(ctx, dsn)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			u, err := st.CreateUser(ctx, store.UserWithHash{
				User: store.User{
					UserID:   userID,
					FullName: fullName,
					Email:    email,
					Scopes:   splitScopes(scopes),
					Audit:    store.Audit{CreatedBy: "cli"},
				},
				HashedPassword: string(hash),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s with scopes %v\n", u.UserID, u.Scopes)
			return nil
		},
	}
	create.Flags().StringVar(&userID, "id", "", "user id used to log in")
	create.Flags().StringVar(&fullName, "name", "", "full name")
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&scopes, "scopes", runtime.ScopeWrite+","+runtime.ScopeAdmin, "comma separated scopes")
	create.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	return create
}

func splitScopes(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
