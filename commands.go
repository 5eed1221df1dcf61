package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// defaultSeedPassword is used by `seed` when neither --password nor
// SEED_PASSWORD is given.
const defaultSeedPassword = "password"

type configLoader func() (*Config, error)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "blogicum",
		Short: "Blogicum - a small multi-author blog",
		Long: `Blogicum serves a multi-author blog with categories, scheduled posts and
comments. Configuration comes from the environment (optionally a .env file)
and an optional YAML file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults to $CONFIG_PATH)")

	load := func() (*Config, error) { return loadConfig(configPath) }

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newCategoryCmd(load),
		newSeedCmd(load),
	)
	return root
}

// setup loads the configuration, installs the logger and opens the database.
func setup(cmd *cobra.Command, load configLoader) (*Config, *slog.Logger, *sql.DB, error) {
	cfg, err := load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	return cfg, logger, db, nil
}

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply pending migrations and start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := setup(cmd, load)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger, db)
		},
	}
}

func serve(ctx context.Context, cfg *Config, logger *slog.Logger, db *sql.DB) error {
	if err := initDB(ctx, db); err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}

	blog := NewBlog(db, cfg, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      blog.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening on %s: %w", srv.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		sweepSessions(gctx, db, cfg.Auth.CleanupInterval, logger)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// sweepSessions deletes expired sessions now and then every interval
// until ctx is done.
func sweepSessions(ctx context.Context, db *sql.DB, interval time.Duration, logger *slog.Logger) {
	sweep := func() {
		n, err := cleanupExpiredSessions(ctx, db)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("cleaning up expired sessions", slog.String("error", err.Error()))
			}
			return
		}
		if n > 0 {
			logger.Info("expired sessions removed", slog.Int64("count", n))
		}
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Manage the database schema.

Subcommands:
  up      - Apply pending migrations
  down    - Roll back the most recent migration
  status  - Show migration status`,
	}

	withMigrator := func(run func(cmd *cobra.Command, p *goose.Provider) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			_, _, db, err := setup(cmd, load)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := newMigrator(db)
			if err != nil {
				return fmt.Errorf("creating migrator: %w", err)
			}
			return run(cmd, p)
		}
	}

	migrate.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, p *goose.Provider) error {
				results, err := p.Up(cmd.Context())
				if err != nil {
					return fmt.Errorf("applying migrations: %w", err)
				}
				if len(results) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no pending migrations")
				}
				for _, res := range results {
					fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (%s)\n", res.Source.Path, res.Duration.Round(time.Millisecond))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, p *goose.Provider) error {
				res, err := p.Down(cmd.Context())
				if err != nil {
					return fmt.Errorf("rolling back: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (%s)\n", res.Source.Path, res.Duration.Round(time.Millisecond))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(cmd *cobra.Command, p *goose.Provider) error {
				statuses, err := p.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("reading migration status: %w", err)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tSOURCE")
				for _, s := range statuses {
					applied := "-"
					if s.State == goose.StateApplied {
						applied = s.AppliedAt.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
				}
				return tw.Flush()
			}),
		},
	)
	return migrate
}

func newCategoryCmd(load configLoader) *cobra.Command {
	category := &cobra.Command{
		Use:   "category",
		Short: "Administer post categories",
	}

	withDB := func(run func(cmd *cobra.Command, args []string, db *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			_, _, db, err := setup(cmd, load)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := initDB(cmd.Context(), db); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			return run(cmd, args, db)
		}
	}

	var c Category
	var hidden bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a category",
		Long: `Create a category.

Examples:
  blogicum category create --title "Travel"
  blogicum category create --title "Drafts" --slug drafts --hidden`,
		Args: cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, args []string, db *sql.DB) error {
			c.IsPublished = !hidden
			created, err := createCategory(cmd.Context(), db, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created category %q (id %d, slug %s)\n", created.Title, created.ID, created.Slug)
			return nil
		}),
	}
	create.Flags().StringVar(&c.Title, "title", "", "category title")
	create.Flags().StringVar(&c.Slug, "slug", "", "URL identifier; derived from the title when empty")
	create.Flags().StringVar(&c.Description, "description", "", "category description")
	create.Flags().BoolVar(&hidden, "hidden", false, "create the category unpublished")
	_ = create.MarkFlagRequired("title")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, args []string, db *sql.DB) error {
			categories, err := listCategories(cmd.Context(), db)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tTITLE\tPUBLISHED")
			for _, c := range categories {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", c.ID, c.Slug, c.Title, c.IsPublished)
			}
			return tw.Flush()
		}),
	}

	setPublished := func(use, short string, published bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <slug>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(cmd *cobra.Command, args []string, db *sql.DB) error {
				if err := setCategoryPublished(cmd.Context(), db, args[0], published); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "category %s: published=%t\n", args[0], published)
				return nil
			}),
		}
	}

	category.AddCommand(
		create,
		list,
		setPublished("publish", "Make a category and its posts visible", true),
		setPublished("hide", "Hide a category together with its posts", false),
	)
	return category
}

func newSeedCmd(load configLoader) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty database with demo content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := setup(cmd, load)
			if err != nil {
				return err
			}
			defer db.Close()

			if password == "" {
				password = os.Getenv("SEED_PASSWORD")
			}
			if password == "" {
				password = defaultSeedPassword
				logger.Warn("seeding with the default password; set SEED_PASSWORD or --password")
			}

			if err := initDB(cmd.Context(), db); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			return seedDB(cmd.Context(), db, password)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password of the demo author (defaults to $SEED_PASSWORD)")
	return cmd
}
