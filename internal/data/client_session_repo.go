package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/target/jobboard-ui-api/internal/data/pgxutil"
	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
	apperrors "github.com/target/jobboard-ui-api/internal/errors"
	"github.com/target/jobboard-ui-api/internal/ports"
)

// DefaultSessionTTL is how long a cached client session lives without being rewritten.
const DefaultSessionTTL = 30 * 24 * time.Hour

// ClientSessionRepoOptions groups dependencies for ClientSessionRepo.
type ClientSessionRepoOptions struct {
	DB           *sql.DB // Required
	TTL          time.Duration
	TimeProvider TimeProvider
}

// ClientSessionRepo stores client session snapshots in the client_sessions table.
type ClientSessionRepo struct {
	DB           *sql.DB
	ttl          time.Duration
	timeProvider TimeProvider
}

// NewClientSessionRepo creates a new ClientSessionRepo.
func NewClientSessionRepo(opts ClientSessionRepoOptions) *ClientSessionRepo {
	if opts.DB == nil {
		panic("DB is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	tp := opts.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &ClientSessionRepo{DB: opts.DB, ttl: ttl, timeProvider: tp}
}

// Save upserts the snapshot for clientID and pushes its expiry forward.
func (r *ClientSessionRepo) Save(ctx context.Context, clientID string, sess domainauth.Session) error {
	if clientID == "" {
		return ErrClientIDRequired
	}
	payload, err := json.Marshal(sess.Normalize())
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	expiresAt := r.timeProvider.Now().Add(r.ttl)

	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO client_sessions (client_id, user_id, session, expires_at, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (client_id) DO UPDATE
			SET user_id = EXCLUDED.user_id,
				session = EXCLUDED.session,
				expires_at = EXCLUDED.expires_at,
				updated_at = now()`,
			clientID, sess.UserID, payload, expiresAt)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("save client session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Load returns the unexpired snapshot of clientID or ports.ErrSessionNotCached.
func (r *ClientSessionRepo) Load(ctx context.Context, clientID string) (domainauth.Session, error) {
	if clientID == "" {
		return domainauth.Session{}, ports.ErrSessionNotCached
	}

	var payload []byte
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT session FROM client_sessions WHERE client_id = $1 AND expires_at > $2`,
			clientID, r.timeProvider.Now(),
		).Scan(&payload)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return domainauth.Session{}, ports.ErrSessionNotCached
	}
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("load client session: %w", apperrors.MapDBError(err))
	}

	var sess domainauth.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess.Normalize(), nil
}

// Delete removes the snapshot of clientID. Deleting a missing snapshot is not an error.
func (r *ClientSessionRepo) Delete(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `DELETE FROM client_sessions WHERE client_id = $1`, clientID)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("delete client session: %w", apperrors.MapDBError(err))
	}
	return nil
}

// List returns unexpired snapshots ordered by client id.
func (r *ClientSessionRepo) List(ctx context.Context, filter ports.SessionListFilter) ([]ports.CachedSession, error) {
	var (
		conds = []string{"expires_at > $1"}
		args  = []any{r.timeProvider.Now()}
	)
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	query := `SELECT client_id, session, expires_at FROM client_sessions WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY client_id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var out []ports.CachedSession
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				entry   ports.CachedSession
				payload []byte
			)
			if err := rows.Scan(&entry.ClientID, &payload, &entry.ExpiresAt); err != nil {
				return err
			}
			if err := json.Unmarshal(payload, &entry.Session); err != nil {
				return fmt.Errorf("unmarshal session for %s: %w", entry.ClientID, err)
			}
			entry.Session = entry.Session.Normalize()
			out = append(out, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list client sessions: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// DeleteClients removes the given snapshots, or all snapshots when ids is empty.
func (r *ClientSessionRepo) DeleteClients(ctx context.Context, ids []string) (int64, error) {
	ids = slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return id == "" })

	var n int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var (
			tag pgconn.CommandTag
			err error
		)
		if len(ids) == 0 {
			tag, err = conn.Exec(ctx, `DELETE FROM client_sessions`)
		} else {
			tag, err = conn.Exec(ctx, `DELETE FROM client_sessions WHERE client_id = ANY($1)`, ids)
		}
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete client sessions: %w", apperrors.MapDBError(err))
	}
	return n, nil
}

// PurgeExpired deletes snapshots whose expiry is at or before now.
func (r *ClientSessionRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM client_sessions WHERE expires_at <= $1`, now)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge expired client sessions: %w", apperrors.MapDBError(err))
	}
	return n, nil
}
