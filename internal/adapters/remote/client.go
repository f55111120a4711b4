// Package remote defines the backend boundary used by the views and a REST
// client for the hosted backend.
package remote

import (
	"context"

	"github.com/okian/checkboard/internal/domain/types"
)

// Client is the remote service the views depend on. Implementations wrap
// every failure with ErrService.
type Client interface {
	// GetSession returns the session for accessToken, or nil when there is
	// none. An empty token returns (nil, nil) without I/O.
	GetSession(ctx context.Context, accessToken string) (*types.Session, error)

	// InsertSubmission records one submission.
	InsertSubmission(ctx context.Context, s types.Submission) error

	// GetLeaderboard runs the server-side aggregation and returns its rows
	// in server order.
	GetLeaderboard(ctx context.Context) ([]types.LeaderboardEntry, error)
}
