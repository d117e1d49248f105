package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/simulai/simulai/internal/domain"
)

func (c *cli) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Bulk user operations",
	}
	cmd.AddCommand(c.usersImportCommand(), c.usersExportCommand())
	return cmd
}

func (c *cli) usersImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create users from a CSV file, - reads standard input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			return c.withUsers(cmd.Context(), func(ctx context.Context, users domain.UserService) error {
				results, err := users.ImportUsers(ctx, in)
				if err != nil {
					return err
				}
				return c.printImportResults(results)
			})
		},
	}
}

func (c *cli) printImportResults(results []domain.UserImportResult) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tEMAIL\tSTATUS\tDETAIL")

	failed := 0
	for _, r := range results {
		detail := r.Note
		if r.Status == domain.ImportStatusFailed {
			failed++
			detail = r.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Row, r.Email, r.Status, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%d created, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d rows could not be imported", failed)
	}
	return nil
}

func (c *cli) usersExportCommand() *cobra.Command {
	var filter domain.UserFilter
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write users as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.Role != "" && !filter.Role.Valid() {
				return fmt.Errorf("invalid role: %s", filter.Role)
			}

			out := c.out
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}

			return c.withUsers(cmd.Context(), func(ctx context.Context, users domain.UserService) error {
				return users.ExportUsers(ctx, filter, out)
			})
		},
	}
	cmd.Flags().StringVar(&filter.CompanyID, "company", "", "only users of this company")
	cmd.Flags().StringVar(&filter.DepartmentID, "department", "", "only users of this department")
	cmd.Flags().Var(roleFlag{&filter.Role}, "role", "only users with this role (admin, company, user)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, standard output when empty")
	return cmd
}

// roleFlag binds a domain.Role to a pflag
type roleFlag struct{ role *domain.Role }

func (f roleFlag) String() string {
	if f.role == nil {
		return ""
	}
	return string(*f.role)
}

func (f roleFlag) Set(v string) error {
	*f.role = domain.Role(v)
	return nil
}

func (f roleFlag) Type() string { return "role" }
