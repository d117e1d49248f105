package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/simulai/simulai/config"
	"github.com/simulai/simulai/internal/database"
	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/repository"
	"github.com/simulai/simulai/internal/service"
	"github.com/simulai/simulai/pkg/logger"
)

// cliPrincipal is the identity administrative commands run as
var cliPrincipal = &domain.Principal{UserID: "simulaictl", Role: domain.RoleAdmin}

// cli holds what the commands need, replaced in tests
type cli struct {
	envFile    string
	loadConfig func(envFile string) (*config.Config, error)
	openDB     func(cfg *config.Config) (*sql.DB, error)
	newUsers   func(db *sql.DB, log logger.Logger) domain.UserService
	newLogger  func(cfg *config.Config) logger.Logger
	out        io.Writer
}

func defaultCLI() *cli {
	return &cli{
		loadConfig: func(envFile string) (*config.Config, error) {
			return config.LoadWithOptions(config.LoadOptions{EnvFile: envFile})
		},
		openDB: database.Connect,
		newUsers: func(db *sql.DB, log logger.Logger) domain.UserService {
			return service.NewUserService(repository.NewUserRepository(db), repository.NewCompanyRepository(db), log)
		},
		newLogger: func(cfg *config.Config) logger.Logger {
			return logger.NewLoggerWithOptions(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		},
		out: os.Stdout,
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "simulaictl",
		Short:         "Administration tool for the SimulAI backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "environment file to load before the process environment")

	root.AddCommand(c.migrateCommand(), c.adminCommand(), c.usersCommand(), c.versionCommand())
	return root
}

func (c *cli) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the backend version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(c.out, config.VERSION)
		},
	}
}

// withUsers loads the configuration, connects and runs fn as the CLI administrator
func (c *cli) withUsers(ctx context.Context, fn func(ctx context.Context, users domain.UserService) error) error {
	cfg, err := c.loadConfig(c.envFile)
	if err != nil {
		return err
	}
	db, err := c.openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	users := c.newUsers(db, c.newLogger(cfg))
	return fn(domain.WithPrincipal(ctx, cliPrincipal), users)
}

func main() {
	if err := defaultCLI().rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
