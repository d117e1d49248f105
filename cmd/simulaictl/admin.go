package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/crypto"
)

func (c *cli) adminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var req domain.CreateUserRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Role = domain.RoleAdmin
			generated := ""
			if req.Password == "" {
				password, err := crypto.GenerateRandomToken(12)
				if err != nil {
					return err
				}
				req.Password = password
				generated = password
			}

			return c.withUsers(cmd.Context(), func(ctx context.Context, users domain.UserService) error {
				user, err := users.CreateUser(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "created administrator %s (%s)\n", user.Email, user.ID)
				if generated != "" {
					fmt.Fprintf(c.out, "generated password: %s\n", generated)
				}
				return nil
			})
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "email address (required)")
	create.Flags().StringVar(&req.Name, "name", "Admin", "first name")
	create.Flags().StringVar(&req.Lastname, "lastname", "", "last name")
	create.Flags().StringVar(&req.Password, "password", "", "password, generated when empty")
	_ = create.MarkFlagRequired("email")

	cmd.AddCommand(create)
	return cmd
}
