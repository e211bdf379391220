package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sharedrive/internal/authz"
	"sharedrive/internal/config"
	"sharedrive/internal/repository/postgres"
	"sharedrive/internal/setup"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRelations opens the configured relation store. The caller must Close the result.
func newRelations(ctx context.Context) (*setup.Backends, error) {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = config.NewLogger(cfg.Environment, os.Stderr)
	}

	b, err := setup.SetupRelations(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening relation store: %w", err)
	}
	return b, nil
}

// parseTuple reads "<subject> <relation> <object>" arguments
func parseTuple(args []string) (authz.Tuple, error) {
	subject, err := authz.ParseRef(args[0])
	if err != nil {
		return authz.Tuple{}, fmt.Errorf("subject: %w", err)
	}
	object, err := authz.ParseRef(args[2])
	if err != nil {
		return authz.Tuple{}, fmt.Errorf("object: %w", err)
	}
	return authz.Tuple{Subject: subject, Relation: authz.Relation(args[1]), Object: object}, nil
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "driveadmin",
	Short:        "Administer sharedrive storage and relation tuples",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}

		if err := postgres.RunMigrations(cmd.Context(), cfg.DatabaseURL, cfg.TablePrefix); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (table prefix %q)\n", cfg.TablePrefix)
		return nil
	},
}

var dropTablesCmd = &cobra.Command{
	Use:   "drop-tables",
	Short: "Drop all tables of the configured table prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirmed, _ := cmd.Flags().GetBool("yes")
		cfg := config.Load()
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
		if !confirmed {
			return fmt.Errorf("refusing to drop tables with prefix %q without --yes", cfg.TablePrefix)
		}

		if err := postgres.DropTables(cmd.Context(), cfg.DatabaseURL, cfg.TablePrefix); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "All tables dropped (table prefix %q)\n", cfg.TablePrefix)
		return nil
	},
}

// tuples command
var tuplesCmd = &cobra.Command{
	Use:   "tuples",
	Short: "Manage relation tuples",
}

var tuplesWriteCmd = &cobra.Command{
	Use:     "write <subject> <relation> <object>",
	Short:   "Write a primitive tuple",
	Example: "  driveadmin tuples write user:alice viewer folder:f1",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTuple(args)
		if err != nil {
			return err
		}

		b, err := newRelations(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		if err := b.Relations.WriteTuples(cmd.Context(), []authz.Tuple{t}); err != nil {
			return fmt.Errorf("writing tuple: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", t)
		return nil
	},
}

var tuplesCheckCmd = &cobra.Command{
	Use:     "check <subject> <relation> <object>",
	Short:   "Evaluate a relation or capability",
	Example: "  driveadmin tuples check user:alice can_view file:f9",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTuple(args)
		if err != nil {
			return err
		}

		b, err := newRelations(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		allowed, err := b.Relations.Check(cmd.Context(), t.Subject, t.Relation, t.Object)
		if err != nil {
			return fmt.Errorf("checking: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %t\n", t, allowed)
		return nil
	},
}

var tuplesListCmd = &cobra.Command{
	Use:     "list <subject> <relation> <type>",
	Short:   "List objects of a type on which the subject holds a relation",
	Example: "  driveadmin tuples list user:bob is_shared file",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := authz.ParseRef(args[0])
		if err != nil {
			return fmt.Errorf("subject: %w", err)
		}

		b, err := newRelations(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		ids, err := b.Relations.ListObjects(cmd.Context(), subject, authz.Relation(args[1]), authz.ObjectType(args[2]))
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}

		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No objects found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n", args[2], id)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log backend activity to stderr")

	dropTablesCmd.Flags().Bool("yes", false, "confirm dropping tables")

	tuplesCmd.AddCommand(tuplesWriteCmd, tuplesCheckCmd, tuplesListCmd)
	rootCmd.AddCommand(migrateCmd, dropTablesCmd, tuplesCmd)
}
