package main

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/simulai/simulai/internal/database"
	"github.com/simulai/simulai/internal/migrations"
)

func (c *cli) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withMigrations(func(m *migrations.Manager) error {
					if err := m.Up(); err != nil {
						return err
					}
					return c.printVersion(m)
				})
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations, one by default",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}
				return c.withMigrations(func(m *migrations.Manager) error {
					if err := m.Down(steps); err != nil {
						return err
					}
					return c.printVersion(m)
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Mark a version as applied without running it, to recover a dirty schema",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("version must be an integer, got %q", args[0])
				}
				return c.withMigrations(func(m *migrations.Manager) error {
					if err := m.Force(version); err != nil {
						return err
					}
					return c.printVersion(m)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.withMigrations(c.printVersion)
			},
		},
	)
	return cmd
}

func (c *cli) withMigrations(fn func(m *migrations.Manager) error) error {
	cfg, err := c.loadConfig(c.envFile)
	if err != nil {
		return err
	}
	if err := database.EnsureSystemDatabaseExists(database.GetPostgresDSN(&cfg.Database), cfg.Database.DBName); err != nil {
		return err
	}

	db, err := sql.Open("postgres", database.GetSystemDSN(&cfg.Database))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	m, err := migrations.NewManager(db, cfg.Database.DBName, c.newLogger(cfg))
	if err != nil {
		db.Close()
		return err
	}
	defer m.Close()

	return fn(m)
}

func (c *cli) printVersion(m *migrations.Manager) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(c.out, "schema version %d (%s)\n", version, state)
	return nil
}
