package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/jobboard-ui-api/internal/bootstrap"
	"github.com/target/jobboard-ui-api/internal/ports"
)

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 2 * time.Minute
	defaultListLimit        = 50
)

type migrateOptions struct {
	Timeout time.Duration
}

type listOptions struct {
	ClientID string
	UserID   string
	Limit    int
	RawJSON  bool
}

type clearOptions struct {
	ClientIDs []string
	All       bool
	DryRun    bool
	Yes       bool
}

type purgeOptions struct {
	Timeout time.Duration
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runListClientSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	cache, err := cmdCtx.OpenCache(ctx, cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer cache.close(cmdCtx.Logger)

	sessions, err := cache.Admin.List(ctx, ports.SessionListFilter{
		ClientID: opts.ClientID,
		UserID:   opts.UserID,
		Limit:    opts.Limit,
	})
	if err != nil {
		return fmt.Errorf("list client sessions: %w", err)
	}

	if opts.RawJSON {
		return printSessionsJSON(cmdCtx.Out, sessions)
	}
	return printSessionsTable(cmdCtx.Out, sessions)
}

func runClearClientSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	cache, err := cmdCtx.OpenCache(ctx, cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer cache.close(cmdCtx.Logger)

	if opts.DryRun {
		return previewClear(ctx, cmdCtx, cache.Admin, opts)
	}

	if confirmErr := confirmClear(cmdCtx, opts); confirmErr != nil {
		return confirmErr
	}

	// An empty id list deletes every snapshot.
	var ids []string
	if !opts.All {
		ids = opts.ClientIDs
	}
	deleted, err := cache.Admin.DeleteClients(ctx, ids)
	if err != nil {
		return fmt.Errorf("clear client sessions: %w", err)
	}

	cmdCtx.Logger.Info("clear client sessions complete", "sessions_deleted", deleted)
	return writef(cmdCtx.Out, "Deleted %d cached session(s).\n", deleted)
}

func previewClear(ctx context.Context, cmdCtx *commandContext, admin ports.SessionCacheAdmin, opts clearOptions) error {
	var matched []ports.CachedSession
	if opts.All {
		all, err := admin.List(ctx, ports.SessionListFilter{})
		if err != nil {
			return fmt.Errorf("list client sessions: %w", err)
		}
		matched = all
	} else {
		for _, id := range opts.ClientIDs {
			found, err := admin.List(ctx, ports.SessionListFilter{ClientID: id})
			if err != nil {
				return fmt.Errorf("list client session %s: %w", id, err)
			}
			matched = append(matched, found...)
		}
	}

	if err := writef(cmdCtx.Out, "Dry run: %d cached session(s) would be deleted.\n", len(matched)); err != nil {
		return err
	}
	if len(matched) == 0 {
		return nil
	}
	return printSessionsTable(cmdCtx.Out, matched)
}

func runPurgeExpiredSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parsePurgeFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	cache, err := cmdCtx.OpenCache(ctx, cmdCtx.Logger, &cmdCtx.Config)
	if err != nil {
		return err
	}
	defer cache.close(cmdCtx.Logger)

	if cache.Purger == nil {
		return writeln(cmdCtx.Out, "Session cache expires entries natively; nothing to purge.")
	}

	purged, err := cache.Purger.PurgeExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}

	cmdCtx.Logger.Info("purge expired sessions complete", "sessions_purged", purged)
	return writef(cmdCtx.Out, "Purged %d expired session(s).\n", purged)
}

func printSessionsTable(out io.Writer, sessions []ports.CachedSession) error {
	if len(sessions) == 0 {
		return writeln(out, "No cached sessions found.")
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "CLIENT\tUSER\tROLE\tEMAIL\tSAVED\tEXPIRES"); err != nil {
		return fmt.Errorf("write session header: %w", err)
	}
	for _, s := range sessions {
		if err := writef(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ClientID,
			s.Session.UserID,
			s.Session.Role,
			s.Session.Email,
			len(s.Session.Saved),
			s.ExpiresAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("write session row %s: %w", s.ClientID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush session table: %w", err)
	}
	return writef(out, "\n%d session(s)\n", len(sessions))
}

type sessionRecord struct {
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	Saved     []string  `json:"saved"`
	ExpiresAt time.Time `json:"expires_at"`
}

// printSessionsJSON writes one record per session. Bearer tokens are never printed.
func printSessionsJSON(out io.Writer, sessions []ports.CachedSession) error {
	records := make([]sessionRecord, 0, len(sessions))
	for _, s := range sessions {
		saved := s.Session.Saved
		if saved == nil {
			saved = []string{}
		}
		records = append(records, sessionRecord{
			ClientID:  s.ClientID,
			UserID:    s.Session.UserID,
			Role:      string(s.Session.Role),
			Email:     s.Session.Email,
			Saved:     saved,
			ExpiresAt: s.ExpiresAt.UTC(),
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	return nil
}

func confirmClear(cmdCtx *commandContext, opts clearOptions) error {
	if opts.Yes {
		return nil
	}

	target := "clients " + strings.Join(opts.ClientIDs, ", ")
	if opts.All {
		target = "ALL clients"
	}
	if err := writef(cmdCtx.Out, "About to delete cached sessions for %s. Those users will have to sign in again.\n", target); err != nil {
		return fmt.Errorf("print confirmation message: %w", err)
	}
	if err := write(cmdCtx.Out, "Continue? [y/N]: "); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}

	resp, err := bufio.NewReader(cmdCtx.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseListFlags(args []string) (listOptions, error) {
	fs := flag.NewFlagSet("list-client-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listOptions{}
	fs.StringVar(&opts.ClientID, "client", "", "Only show the session of this client id")
	fs.StringVar(&opts.UserID, "user", "", "Only show sessions belonging to this user id")
	fs.IntVar(&opts.Limit, "limit", defaultListLimit, "Maximum number of sessions to show (0 for no limit)")
	fs.BoolVar(&opts.RawJSON, "json", false, "Print sessions as JSON")

	if err := fs.Parse(args); err != nil {
		return listOptions{}, err
	}
	if opts.Limit < 0 {
		return listOptions{}, errors.New("--limit must not be negative")
	}
	opts.ClientID = strings.TrimSpace(opts.ClientID)
	opts.UserID = strings.TrimSpace(opts.UserID)
	return opts, nil
}

func parseClearFlags(args []string) (clearOptions, error) {
	fs := flag.NewFlagSet("clear-client-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		opts    clearOptions
		clients string
	)
	fs.StringVar(&clients, "client", "", "Comma separated client ids whose sessions to delete")
	fs.BoolVar(&opts.All, "all", false, "Delete every cached session")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Show what would be deleted without deleting")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return clearOptions{}, err
	}

	opts.ClientIDs = splitList(clients)
	switch {
	case opts.All && len(opts.ClientIDs) > 0:
		return clearOptions{}, errors.New("--all cannot be combined with --client")
	case !opts.All && len(opts.ClientIDs) == 0:
		return clearOptions{}, errors.New("either --client or --all is required")
	}
	return opts, nil
}

func parsePurgeFlags(args []string) (purgeOptions, error) {
	fs := flag.NewFlagSet("purge-expired-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := purgeOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for the purge")

	if err := fs.Parse(args); err != nil {
		return purgeOptions{}, err
	}
	if opts.Timeout <= 0 {
		return purgeOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}
