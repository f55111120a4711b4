// Package repository implements the remote service on top of database/sql.
package repository

import (
	"context"

	"github.com/okian/checkboard/internal/domain/types"
)

// Store is the persistence the self-hosted backend needs. SQLStore is the
// only implementation; the interface keeps callers such as the session
// issuer testable.
type Store interface {
	// Migrate creates the tables and index if missing.
	Migrate(ctx context.Context) error

	// CreateSession stores a new session and returns its access token.
	CreateSession(ctx context.Context, userID, displayName string) (string, error)

	GetSession(ctx context.Context, accessToken string) (*types.Session, error)
	InsertSubmission(ctx context.Context, s types.Submission) error
	GetLeaderboard(ctx context.Context) ([]types.LeaderboardEntry, error)

	Close() error
}
