package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/checkboard/internal/adapters/remote"
	"github.com/okian/checkboard/internal/domain/types"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		access_token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		red_checked BOOLEAN NOT NULL,
		blue_checked BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_name ON submissions(name)`,
}

const leaderboardQuery = `
SELECT name, COUNT(*) AS submission_count
FROM submissions
GROUP BY name
ORDER BY submission_count DESC, name ASC`

// SQLStore serves sessions, submissions and the leaderboard from a SQL database.
type SQLStore struct {
	db     *sql.DB
	driver string
	now    func() time.Time
	newID  func() string
}

var (
	_ Store         = (*SQLStore)(nil)
	_ remote.Client = (*SQLStore)(nil)
)

// Open connects to dsn with driver ("postgres" or "sqlite") and verifies the
// connection.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One connection keeps :memory: databases shared and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return New(db, driver, opts...), nil
}

// New wraps an open database handle.
func New(db *sql.DB, driver string, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:     db,
		driver: driver,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the schema. Safe to call multiple times.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CreateSession issues a new access token for userID.
func (s *SQLStore) CreateSession(ctx context.Context, userID, displayName string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrEmptyUserID
	}
	token := s.newID()
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO sessions (access_token, user_id, full_name, created_at) VALUES (?, ?, ?, ?)`),
		token, userID, displayName, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// GetSession looks up accessToken. Unknown tokens mean no session.
func (s *SQLStore) GetSession(ctx context.Context, accessToken string) (*types.Session, error) {
	if accessToken == "" {
		return nil, nil
	}
	var sess types.Session
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT user_id, full_name FROM sessions WHERE access_token = ?`),
		accessToken).Scan(&sess.UserID, &sess.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get_session: %w", remote.ErrService, err)
	}
	return &sess, nil
}

// InsertSubmission stores one submission row.
func (s *SQLStore) InsertSubmission(ctx context.Context, sub types.Submission) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO submissions (id, name, red_checked, blue_checked, created_at) VALUES (?, ?, ?, ?, ?)`),
		s.newID(), sub.Name, sub.RedSelected, sub.BlueSelected, s.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: insert_submission: %w", remote.ErrService, err)
	}
	return nil
}

// GetLeaderboard counts submissions per name, most submissions first and
// ties broken by name.
func (s *SQLStore) GetLeaderboard(ctx context.Context) ([]types.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, leaderboardQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: get_leaderboard: %w", remote.ErrService, err)
	}
	defer rows.Close()

	entries := []types.LeaderboardEntry{}
	for rows.Next() {
		var e types.LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.SubmissionCount); err != nil {
			return nil, fmt.Errorf("%w: get_leaderboard: scan: %w", remote.ErrService, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: get_leaderboard: %w", remote.ErrService, err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
