package grant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/danecando/gdocs-mcp/internal/gauth"
)

// ErrNotFound means no grant exists for the given identifier.
var ErrNotFound = errors.New("grant: not found")

// Record is a stored grant without its credentials.
type Record struct {
	ID          string
	Subject     string
	Email       string
	DisplayName string
	Scope       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store persists grants in SQLite. One row per subject: re-authorizing
// replaces the subject's credentials under the same grant id, so handed-out
// grant identifiers stay valid across re-consent.
type Store struct {
	db      *sql.DB
	sealer  *Sealer
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens (creating if needed) the grant database at dbPath, runs
// migrations, and returns a ready-to-use store.
func Open(ctx context.Context, dbPath string, sealer *Sealer, logger *slog.Logger) (*Store, error) {
	// DSN parameters ensure pragmas apply to every connection from the pool.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("grant: opening database %s: %w", dbPath, err)
	}

	// Sole-writer pattern: only one connection writes at a time.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("grant store initialized", slog.String("db_path", dbPath))

	return &Store{
		db:      db,
		sealer:  sealer,
		logger:  logger,
		nowFunc: time.Now,
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Finalize binds a credential pair to a subject and returns the grant id.
// A subject that re-authorizes keeps its existing grant id; only the
// credentials, scope, and profile fields are replaced.
func (s *Store) Finalize(
	ctx context.Context, user gauth.UserIdentity, scope string, pair gauth.CredentialPair,
) (string, error) {
	sealed, err := s.sealer.Seal(pair)
	if err != nil {
		return "", err
	}

	now := s.nowFunc().Unix()
	grantID := uuid.NewString()

	// Upsert keyed on subject; RETURNING yields the surviving grant id.
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO grants (id, subject, email, display_name, scope, sealed_credentials, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(subject) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			scope = excluded.scope,
			sealed_credentials = excluded.sealed_credentials,
			updated_at = excluded.updated_at
		RETURNING id`,
		grantID, user.ID, user.Email, user.Name, scope, sealed, now, now,
	)

	if err := row.Scan(&grantID); err != nil {
		return "", fmt.Errorf("grant: finalizing grant for subject %s: %w", user.ID, err)
	}

	s.logger.Info("grant finalized",
		slog.String("grant_id", grantID),
		slog.String("subject", user.ID),
	)

	return grantID, nil
}

// Credentials returns the decrypted credential pair for a grant.
func (s *Store) Credentials(ctx context.Context, grantID string) (gauth.CredentialPair, error) {
	var sealed []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT sealed_credentials FROM grants WHERE id = ?`, grantID,
	).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return gauth.CredentialPair{}, ErrNotFound
	}

	if err != nil {
		return gauth.CredentialPair{}, fmt.Errorf("grant: loading credentials: %w", err)
	}

	return s.sealer.Open(sealed)
}

// UpdateCredentials atomically replaces a grant's credential pair. Called
// by the session after every refresh so the rotated pair becomes the
// canonical value before the triggering operation returns.
func (s *Store) UpdateCredentials(ctx context.Context, grantID string, pair gauth.CredentialPair) error {
	sealed, err := s.sealer.Seal(pair)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE grants SET sealed_credentials = ?, updated_at = ? WHERE id = ?`,
		sealed, s.nowFunc().Unix(), grantID,
	)
	if err != nil {
		return fmt.Errorf("grant: updating credentials: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("grant: updating credentials: %w", err)
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// Get returns a grant's record (no credentials).
func (s *Store) Get(ctx context.Context, grantID string) (*Record, error) {
	var (
		r       Record
		created int64
		updated int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, subject, email, display_name, scope, created_at, updated_at
		FROM grants WHERE id = ?`, grantID,
	).Scan(&r.ID, &r.Subject, &r.Email, &r.DisplayName, &r.Scope, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("grant: loading grant: %w", err)
	}

	r.CreatedAt = time.Unix(created, 0)
	r.UpdatedAt = time.Unix(updated, 0)

	return &r, nil
}

// Revoke deletes a grant and its sealed credentials.
func (s *Store) Revoke(ctx context.Context, grantID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grants WHERE id = ?`, grantID)
	if err != nil {
		return fmt.Errorf("grant: revoking grant: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("grant: revoking grant: %w", err)
	}

	if n == 0 {
		return ErrNotFound
	}

	s.logger.Info("grant revoked", slog.String("grant_id", grantID))

	return nil
}
